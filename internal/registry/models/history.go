package models

import (
	"time"

	id "carbonregistry/pkg/domain"
)

// ProjectUpdate is one append-only metadata-edit log entry. Entries are never
// edited or deleted; Seq comes from the project's persisted update counter.
type ProjectUpdate struct {
	ProjectID id.ProjectID `json:"project_id"`
	Seq       uint64       `json:"seq"`
	Updater   id.Principal `json:"updater"`
	Note      string       `json:"note"`
	Timestamp time.Time    `json:"timestamp"`
}

// OwnershipTransfer is one append-only provenance entry for an owner change.
type OwnershipTransfer struct {
	ProjectID id.ProjectID `json:"project_id"`
	Seq       uint64       `json:"seq"`
	From      id.Principal `json:"from"`
	To        id.Principal `json:"to"`
	Reason    string       `json:"reason"`
	Timestamp time.Time    `json:"timestamp"`
}
