package models

import id "carbonregistry/pkg/domain"

// RegistryState is the singleton administrative record. It is owned by the
// ledger, initialized once at startup, and mutated only through the gated
// admin entry points - never via ambient globals.
type RegistryState struct {
	Admin          id.Principal `json:"admin"`
	Paused         bool         `json:"paused"`
	ProjectCounter uint64       `json:"project_counter"`

	// Height is the ledger sequence counter. It advances once per committed
	// mutating transaction and stamps Project.RegisteredAt.
	Height uint64 `json:"height"`
}

// AllocateProjectID consumes the next project id. IDs start at 1 and are
// never reused, even after failed registrations.
func (s *RegistryState) AllocateProjectID() id.ProjectID {
	s.ProjectCounter++
	return id.ProjectID(s.ProjectCounter)
}
