package service

import (
	"context"
	"errors"

	"carbonregistry/internal/registry/models"
	id "carbonregistry/pkg/domain"
	dErrors "carbonregistry/pkg/domain-errors"
	"carbonregistry/pkg/platform/sentinel"
)

// The read surface carries no authorization: every record is fetchable by id.
// Visibility is stored and reported but does not yet filter reads.

func (s *Service) GetProject(ctx context.Context, projectID id.ProjectID) (*models.Project, error) {
	project, err := s.ledger.FindProject(ctx, projectID)
	if err != nil {
		return nil, s.translateRead(err)
	}
	return project, nil
}

func (s *Service) GetTags(ctx context.Context, projectID id.ProjectID) ([]string, error) {
	tags, err := s.ledger.FindTags(ctx, projectID)
	if err != nil {
		return nil, s.translateRead(err)
	}
	return tags, nil
}

func (s *Service) GetCollaborator(ctx context.Context, projectID id.ProjectID, principal id.Principal) (*models.Collaborator, error) {
	collaborator, err := s.ledger.FindCollaborator(ctx, projectID, principal)
	if err != nil {
		return nil, s.translateRead(err)
	}
	return collaborator, nil
}

func (s *Service) GetUpdate(ctx context.Context, projectID id.ProjectID, seq uint64) (*models.ProjectUpdate, error) {
	update, err := s.ledger.FindUpdate(ctx, projectID, seq)
	if err != nil {
		return nil, s.translateRead(err)
	}
	return update, nil
}

func (s *Service) GetTransfer(ctx context.Context, projectID id.ProjectID, seq uint64) (*models.OwnershipTransfer, error) {
	transfer, err := s.ledger.FindTransfer(ctx, projectID, seq)
	if err != nil {
		return nil, s.translateRead(err)
	}
	return transfer, nil
}

// GetState exposes the pause flag, admin principal, project counter, and
// ledger height.
func (s *Service) GetState(ctx context.Context) (models.RegistryState, error) {
	state, err := s.ledger.State(ctx)
	if err != nil {
		return models.RegistryState{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registry state")
	}
	return state, nil
}

func (s *Service) translateRead(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "ledger failure")
}
