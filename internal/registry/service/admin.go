package service

import (
	"context"

	"carbonregistry/internal/audit"
	"carbonregistry/internal/registry/store"
	id "carbonregistry/pkg/domain"
	dErrors "carbonregistry/pkg/domain-errors"
)

// IsAdmin reports whether the caller is the registry's administrative
// principal.
func (s *Service) IsAdmin(ctx context.Context, caller id.Principal) (bool, error) {
	state, err := s.ledger.State(ctx)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registry state")
	}
	return state.Admin == caller, nil
}

// Pause stops new registrations. Existing projects remain fully governable
// while paused: the emergency stop gates intake, not in-flight mutation.
// Pausing an already-paused registry is a no-op.
func (s *Service) Pause(ctx context.Context, caller id.Principal) error {
	return s.setPaused(ctx, caller, true, audit.EventRegistryPaused)
}

// Unpause reopens registration.
func (s *Service) Unpause(ctx context.Context, caller id.Principal) error {
	return s.setPaused(ctx, caller, false, audit.EventRegistryUnpaused)
}

func (s *Service) setPaused(ctx context.Context, caller id.Principal, paused bool, event string) error {
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		st := tx.State()
		if st.Admin != caller {
			return dErrors.New(dErrors.CodeUnauthorized, "caller is not the registry admin")
		}
		st.Paused = paused
		return nil
	})
	if err != nil {
		return s.reject(err)
	}
	s.logAudit(ctx, event, "actor", caller.String())
	return nil
}

// TransferAdmin overwrites the administrative principal. Unlike project
// ownership, self-transfer is accepted as a harmless no-op.
func (s *Service) TransferAdmin(ctx context.Context, caller id.Principal, newAdmin id.Principal) error {
	if newAdmin.IsZero() {
		return s.reject(dErrors.New(dErrors.CodeInvalidParameter, "new admin cannot be empty"))
	}
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		st := tx.State()
		if st.Admin != caller {
			return dErrors.New(dErrors.CodeUnauthorized, "caller is not the registry admin")
		}
		st.Admin = newAdmin
		return nil
	})
	if err != nil {
		return s.reject(err)
	}
	s.logAudit(ctx, audit.EventAdminTransferred,
		"actor", caller.String(),
		"new_admin", newAdmin.String(),
	)
	return nil
}
