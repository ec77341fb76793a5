package models

import (
	"time"

	id "carbonregistry/pkg/domain"
	dErrors "carbonregistry/pkg/domain-errors"
)

const (
	MaxRoleLength  = 50
	MaxPermissions = 5
)

// PermissionUpdateStatus is the capability an external verifier must hold to
// drive status transitions through the verification callback.
const PermissionUpdateStatus = "update-status"

// Collaborator is a delegated, project-scoped capability grant. A principal
// holds at most one record per project; changing permissions means removing
// the record and adding a new one.
type Collaborator struct {
	ProjectID   id.ProjectID `json:"project_id"`
	Principal   id.Principal `json:"principal"`
	Role        string       `json:"role"`
	Permissions []string     `json:"permissions"`
	AddedAt     time.Time    `json:"added_at"`
}

// NewCollaborator validates and builds a grant. Permissions are an unordered
// capability list compared by exact string match.
func NewCollaborator(
	projectID id.ProjectID,
	principal id.Principal,
	role string,
	permissions []string,
	now time.Time,
) (*Collaborator, error) {
	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidParameter, "collaborator principal cannot be empty")
	}
	if len(role) > MaxRoleLength {
		return nil, dErrors.Newf(dErrors.CodeInvalidLength,
			"role must be %d characters or less", MaxRoleLength)
	}
	if len(permissions) > MaxPermissions {
		return nil, dErrors.Newf(dErrors.CodeInvalidParameter,
			"at most %d permissions allowed, got %d", MaxPermissions, len(permissions))
	}
	return &Collaborator{
		ProjectID:   projectID,
		Principal:   principal,
		Role:        role,
		Permissions: append([]string(nil), permissions...),
		AddedAt:     now,
	}, nil
}

// Grants reports whether the record contains the exact capability string.
func (c *Collaborator) Grants(capability string) bool {
	for _, p := range c.Permissions {
		if p == capability {
			return true
		}
	}
	return false
}
