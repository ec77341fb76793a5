// Package store defines the registry ledger contract and its implementations.
//
// The registry's execution model is strictly serial: every mutating entry
// point runs as one atomic transaction against shared ledger state, and no
// two transactions interleave their reads and writes. Ledger.Update is that
// transaction boundary. The in-memory ledger serializes behind a single
// writer lock with staged writes; the Postgres ledger uses a serializable SQL
// transaction with row locks. Either way, a failing callback leaves no
// partial state behind.
package store

import (
	"context"

	"carbonregistry/internal/registry/models"
	id "carbonregistry/pkg/domain"
)

// Tx is the mutating view inside one ledger transaction. Records obtained
// from it are private to the transaction; nothing is visible to readers until
// the callback returns nil and the transaction commits.
type Tx interface {
	// State returns the staged singleton registry state. Mutations persist
	// on commit. The ledger advances State().Height by one before the
	// callback runs; like every staged write, the bump is discarded when the
	// callback fails.
	State() *models.RegistryState

	// Project loads a staged copy of a project, or sentinel.ErrNotFound.
	// Mutate the copy and persist it with SaveProject.
	Project(projectID id.ProjectID) (*models.Project, error)
	SaveProject(project *models.Project) error

	// InsertProject stores a newly registered project and its tag list.
	InsertProject(project *models.Project, tags []string) error

	// Collaborator loads a grant, or sentinel.ErrNotFound.
	Collaborator(projectID id.ProjectID, principal id.Principal) (*models.Collaborator, error)
	// InsertCollaborator stores a grant; sentinel.ErrConflict when the
	// (project, principal) pair already holds one.
	InsertCollaborator(collaborator *models.Collaborator) error
	// DeleteCollaborator removes a grant; sentinel.ErrNotFound when absent.
	DeleteCollaborator(projectID id.ProjectID, principal id.Principal) error

	// AppendUpdate and AppendTransfer add history entries. Entries are
	// append-only by construction: no Tx method edits or removes one.
	AppendUpdate(update *models.ProjectUpdate) error
	AppendTransfer(transfer *models.OwnershipTransfer) error
}

// Ledger is the canonical store for all registry state. Update runs one
// atomic mutating transaction; the Find methods form the unauthorized read
// surface and see only committed state.
type Ledger interface {
	Update(ctx context.Context, fn func(tx Tx) error) error

	FindProject(ctx context.Context, projectID id.ProjectID) (*models.Project, error)
	FindTags(ctx context.Context, projectID id.ProjectID) ([]string, error)
	FindCollaborator(ctx context.Context, projectID id.ProjectID, principal id.Principal) (*models.Collaborator, error)
	FindUpdate(ctx context.Context, projectID id.ProjectID, seq uint64) (*models.ProjectUpdate, error)
	FindTransfer(ctx context.Context, projectID id.ProjectID, seq uint64) (*models.OwnershipTransfer, error)
	State(ctx context.Context) (models.RegistryState, error)
}
