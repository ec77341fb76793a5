// Package service implements the registry's entry points. Every mutating
// operation evaluates access control, applies its writes, and appends history
// inside one ledger transaction; audit and integration events are emitted
// only after the transaction commits.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"carbonregistry/internal/audit"
	"carbonregistry/internal/events"
	"carbonregistry/internal/platform/metrics"
	"carbonregistry/internal/platform/middleware"
	"carbonregistry/internal/registry/models"
	"carbonregistry/internal/registry/store"
	"carbonregistry/pkg/attrs"
	id "carbonregistry/pkg/domain"
	dErrors "carbonregistry/pkg/domain-errors"
	"carbonregistry/pkg/platform/sentinel"
)

// AuditPublisher records structured audit events after committed mutations.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service orchestrates project registration, mutation, and lifecycle.
type Service struct {
	ledger    store.Ledger
	logger    *slog.Logger
	auditPub  AuditPublisher
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPub = publisher }
}

func WithEventPublisher(publisher events.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the wall clock for history timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs a Service.
func New(ledger store.Ledger, opts ...Option) *Service {
	s := &Service{ledger: ledger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput carries the caller-supplied fields for a registration.
type RegisterInput struct {
	DocumentHash     []byte
	Title            string
	Description      string
	Location         string
	AreaHectares     uint64
	EstimatedCO2Tons uint64
	Tags             []string
}

// Register records a new project. Preconditions run in order and the first
// failure wins: registry not paused, hash exactly 32 bytes, metadata caps,
// positive area and CO2, tag limits. A failed registration consumes no
// project id: the allocation rolls back with the transaction.
func (s *Service) Register(ctx context.Context, caller id.Principal, in RegisterInput) (id.ProjectID, error) {
	var projectID id.ProjectID
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		st := tx.State()
		if st.Paused {
			return dErrors.New(dErrors.CodePaused, "registry is paused")
		}
		allocated := st.AllocateProjectID()
		project, err := models.NewProject(
			allocated, caller, in.DocumentHash,
			in.Title, in.Description, in.Location,
			in.AreaHectares, in.EstimatedCO2Tons,
			st.Height,
		)
		if err != nil {
			return err
		}
		if err := models.ValidateTags(in.Tags); err != nil {
			return err
		}
		if err := tx.InsertProject(project, in.Tags); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist project")
		}
		projectID = allocated
		return nil
	})
	if err != nil {
		return 0, s.reject(err)
	}

	s.logAudit(ctx, audit.EventProjectRegistered,
		"actor", caller.String(),
		"project_id", projectID.String(),
	)
	s.publish(ctx, events.Event{
		Type:      audit.EventProjectRegistered,
		ProjectID: uint64(projectID),
		Actor:     caller.String(),
		Attributes: map[string]string{
			"status": string(models.StatusPending),
		},
	})
	if s.metrics != nil {
		s.metrics.ProjectsRegistered.Inc()
	}
	return projectID, nil
}

// UpdateMetadata replaces title, description, and location. Owner only. One
// ProjectUpdate history entry is appended per successful call.
func (s *Service) UpdateMetadata(ctx context.Context, caller id.Principal, projectID id.ProjectID, title, description, location, note string) error {
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		project, err := s.ownedProject(tx, projectID, caller)
		if err != nil {
			return err
		}
		if err := project.CanUpdateMetadata(title, description, location, note); err != nil {
			return err
		}
		project.ApplyMetadata(title, description, location)
		seq := project.AllocateUpdateSeq()
		if err := tx.SaveProject(project); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save project")
		}
		entry := &models.ProjectUpdate{
			ProjectID: projectID,
			Seq:       seq,
			Updater:   caller,
			Note:      note,
			Timestamp: s.now(),
		}
		if err := tx.AppendUpdate(entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append history")
		}
		return nil
	})
	if err != nil {
		return s.reject(err)
	}

	s.logAudit(ctx, audit.EventMetadataUpdated,
		"actor", caller.String(),
		"project_id", projectID.String(),
	)
	return nil
}

// TransferOwnership hands the project to a new owner and appends one
// OwnershipTransfer provenance entry. Self-transfer is rejected.
func (s *Service) TransferOwnership(ctx context.Context, caller id.Principal, projectID id.ProjectID, newOwner id.Principal, reason string) error {
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		project, err := s.ownedProject(tx, projectID, caller)
		if err != nil {
			return err
		}
		if err := project.CanTransferTo(newOwner); err != nil {
			return err
		}
		if len(reason) > models.MaxReasonLength {
			return dErrors.Newf(dErrors.CodeInvalidLength,
				"reason must be %d characters or less", models.MaxReasonLength)
		}
		from := project.Owner
		project.Owner = newOwner
		seq := project.AllocateTransferSeq()
		if err := tx.SaveProject(project); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save project")
		}
		entry := &models.OwnershipTransfer{
			ProjectID: projectID,
			Seq:       seq,
			From:      from,
			To:        newOwner,
			Reason:    reason,
			Timestamp: s.now(),
		}
		if err := tx.AppendTransfer(entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append history")
		}
		return nil
	})
	if err != nil {
		return s.reject(err)
	}

	s.logAudit(ctx, audit.EventOwnershipTransfer,
		"actor", caller.String(),
		"project_id", projectID.String(),
		"new_owner", newOwner.String(),
	)
	s.publish(ctx, events.Event{
		Type:      audit.EventOwnershipTransfer,
		ProjectID: uint64(projectID),
		Actor:     caller.String(),
		Attributes: map[string]string{
			"new_owner": newOwner.String(),
		},
	})
	if s.metrics != nil {
		s.metrics.OwnershipTransfers.Inc()
	}
	return nil
}

// UpdateStatus overwrites the lifecycle label. The caller must be the owner
// or a collaborator granted the "update-status" capability; this is the entry
// point external verification logic calls after off-core review. Writing the
// current label back is rejected, even for authorized callers.
func (s *Service) UpdateStatus(ctx context.Context, caller id.Principal, projectID id.ProjectID, newStatus models.ProjectStatus) error {
	var previous models.ProjectStatus
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		project, err := tx.Project(projectID)
		if err != nil {
			return s.translateStore(err)
		}
		if project.Owner != caller {
			collaborator, err := tx.Collaborator(projectID, caller)
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeUnauthorized, "caller may not update status")
			}
			if err != nil {
				return s.translateStore(err)
			}
			if !collaborator.Grants(models.PermissionUpdateStatus) {
				return dErrors.New(dErrors.CodeUnauthorized, "caller may not update status")
			}
		}
		if err := project.CanSetStatus(newStatus); err != nil {
			return err
		}
		previous = project.Status
		project.Status = newStatus
		if err := tx.SaveProject(project); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save project")
		}
		return nil
	})
	if err != nil {
		return s.reject(err)
	}

	s.logAudit(ctx, audit.EventStatusChanged,
		"actor", caller.String(),
		"project_id", projectID.String(),
		"status", string(newStatus),
	)
	s.publish(ctx, events.Event{
		Type:      audit.EventStatusChanged,
		ProjectID: uint64(projectID),
		Actor:     caller.String(),
		Attributes: map[string]string{
			"previous": string(previous),
			"status":   string(newStatus),
		},
	})
	if s.metrics != nil {
		s.metrics.StatusChanges.Inc()
	}
	return nil
}

// ToggleVisibility flips the visibility flag and returns the new value.
// Owner only.
func (s *Service) ToggleVisibility(ctx context.Context, caller id.Principal, projectID id.ProjectID) (bool, error) {
	var visible bool
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		project, err := s.ownedProject(tx, projectID, caller)
		if err != nil {
			return err
		}
		visible = project.ToggleVisibility()
		if err := tx.SaveProject(project); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save project")
		}
		return nil
	})
	if err != nil {
		return false, s.reject(err)
	}

	s.logAudit(ctx, audit.EventVisibilityToggled,
		"actor", caller.String(),
		"project_id", projectID.String(),
	)
	return visible, nil
}

// AddCollaborator grants a principal a project-scoped capability set. Owner
// only. A principal holds at most one record per project; re-adding fails.
func (s *Service) AddCollaborator(ctx context.Context, caller id.Principal, projectID id.ProjectID, principal id.Principal, role string, permissions []string) error {
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		if _, err := s.ownedProject(tx, projectID, caller); err != nil {
			return err
		}
		collaborator, err := models.NewCollaborator(projectID, principal, role, permissions, s.now())
		if err != nil {
			return err
		}
		if err := tx.InsertCollaborator(collaborator); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeDuplicateRegistration, "collaborator already added for this project")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add collaborator")
		}
		return nil
	})
	if err != nil {
		return s.reject(err)
	}

	s.logAudit(ctx, audit.EventCollaboratorAdded,
		"actor", caller.String(),
		"project_id", projectID.String(),
		"collaborator", principal.String(),
	)
	return nil
}

// RemoveCollaborator revokes a grant. Owner only. Removing and re-adding is
// the supported way to change a collaborator's permissions.
func (s *Service) RemoveCollaborator(ctx context.Context, caller id.Principal, projectID id.ProjectID, principal id.Principal) error {
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		if _, err := s.ownedProject(tx, projectID, caller); err != nil {
			return err
		}
		if err := tx.DeleteCollaborator(projectID, principal); err != nil {
			return s.translateStore(err)
		}
		return nil
	})
	if err != nil {
		return s.reject(err)
	}

	s.logAudit(ctx, audit.EventCollaboratorRemoved,
		"actor", caller.String(),
		"project_id", projectID.String(),
		"collaborator", principal.String(),
	)
	return nil
}

// HasPermission reports whether a collaborator record exists for the pair and
// its permission list contains the exact capability string.
func (s *Service) HasPermission(ctx context.Context, projectID id.ProjectID, principal id.Principal, capability string) (bool, error) {
	collaborator, err := s.ledger.FindCollaborator(ctx, projectID, principal)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load collaborator")
	}
	return collaborator.Grants(capability), nil
}

// ownedProject loads a project inside tx and enforces the owner check shared
// by every owner-gated entry point.
func (s *Service) ownedProject(tx store.Tx, projectID id.ProjectID, caller id.Principal) (*models.Project, error) {
	project, err := tx.Project(projectID)
	if err != nil {
		return nil, s.translateStore(err)
	}
	if project.Owner != caller {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "caller is not the project owner")
	}
	return project, nil
}

// translateStore maps sentinel store errors onto coded domain errors.
func (s *Service) translateStore(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "project not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeDuplicateRegistration, "record already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "ledger failure")
	}
}

// reject counts a failed mutation by code and passes the error through,
// wrapping anything uncoded as internal.
func (s *Service) reject(err error) error {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		err = dErrors.Wrap(err, dErrors.CodeInternal, "registry failure")
	}
	if s.metrics != nil {
		s.metrics.RejectedMutations.WithLabelValues(string(dErrors.CodeOf(err))).Inc()
	}
	return err
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPub == nil {
		return
	}
	_ = s.auditPub.Emit(ctx, audit.Event{
		Actor:     attrs.ExtractString(attributes, "actor"),
		Action:    event,
		ProjectID: attrs.ExtractString(attributes, "project_id"),
		Reason:    attrs.ExtractString(attributes, "reason"),
		RequestID: attrs.ExtractString(attributes, "request_id"),
	})
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	event.OccurredAt = s.now()
	if err := s.publisher.Publish(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "integration event publish failed",
			"type", event.Type,
			"project_id", event.ProjectID,
			"error", err,
		)
	}
}
