package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"carbonregistry/internal/platform/middleware"
	"carbonregistry/internal/registry/models"
	"carbonregistry/internal/registry/service"
	id "carbonregistry/pkg/domain"
	dErrors "carbonregistry/pkg/domain-errors"
	"carbonregistry/pkg/platform/httputil"
)

// Service defines the registry operations the transport layer needs. The
// read methods are separated conceptually so a caching decorator can wrap
// GetProject without touching mutation paths.
type Service interface {
	Register(ctx context.Context, caller id.Principal, in service.RegisterInput) (id.ProjectID, error)
	UpdateMetadata(ctx context.Context, caller id.Principal, projectID id.ProjectID, title, description, location, note string) error
	TransferOwnership(ctx context.Context, caller id.Principal, projectID id.ProjectID, newOwner id.Principal, reason string) error
	UpdateStatus(ctx context.Context, caller id.Principal, projectID id.ProjectID, newStatus models.ProjectStatus) error
	ToggleVisibility(ctx context.Context, caller id.Principal, projectID id.ProjectID) (bool, error)
	AddCollaborator(ctx context.Context, caller id.Principal, projectID id.ProjectID, principal id.Principal, role string, permissions []string) error
	RemoveCollaborator(ctx context.Context, caller id.Principal, projectID id.ProjectID, principal id.Principal) error
	HasPermission(ctx context.Context, projectID id.ProjectID, principal id.Principal, capability string) (bool, error)

	GetProject(ctx context.Context, projectID id.ProjectID) (*models.Project, error)
	GetTags(ctx context.Context, projectID id.ProjectID) ([]string, error)
	GetCollaborator(ctx context.Context, projectID id.ProjectID, principal id.Principal) (*models.Collaborator, error)
	GetUpdate(ctx context.Context, projectID id.ProjectID, seq uint64) (*models.ProjectUpdate, error)
	GetTransfer(ctx context.Context, projectID id.ProjectID, seq uint64) (*models.OwnershipTransfer, error)
	GetState(ctx context.Context) (models.RegistryState, error)

	Pause(ctx context.Context, caller id.Principal) error
	Unpause(ctx context.Context, caller id.Principal) error
	TransferAdmin(ctx context.Context, caller id.Principal, newAdmin id.Principal) error
}

// Handler wires registry endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a registry handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterReads mounts the unauthorized read surface.
func (h *Handler) RegisterReads(r chi.Router) {
	r.Get("/registry/projects/{projectID}", h.handleGetProject)
	r.Get("/registry/projects/{projectID}/tags", h.handleGetTags)
	r.Get("/registry/projects/{projectID}/collaborators/{principal}", h.handleGetCollaborator)
	r.Get("/registry/projects/{projectID}/collaborators/{principal}/permissions/{capability}", h.handleHasPermission)
	r.Get("/registry/projects/{projectID}/updates/{seq}", h.handleGetUpdate)
	r.Get("/registry/projects/{projectID}/transfers/{seq}", h.handleGetTransfer)
	r.Get("/registry/state", h.handleGetState)
}

// RegisterMutations mounts the authenticated mutating surface. The router
// must run principal authentication ahead of these routes.
func (h *Handler) RegisterMutations(r chi.Router) {
	r.Post("/registry/projects", h.handleRegister)
	r.Put("/registry/projects/{projectID}/metadata", h.handleUpdateMetadata)
	r.Post("/registry/projects/{projectID}/transfer", h.handleTransfer)
	r.Post("/registry/projects/{projectID}/status", h.handleUpdateStatus)
	r.Post("/registry/projects/{projectID}/visibility", h.handleToggleVisibility)
	r.Post("/registry/projects/{projectID}/collaborators", h.handleAddCollaborator)
	r.Delete("/registry/projects/{projectID}/collaborators/{principal}", h.handleRemoveCollaborator)

	r.Post("/admin/pause", h.handlePause)
	r.Post("/admin/unpause", h.handleUnpause)
	r.Post("/admin/transfer", h.handleTransferAdmin)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetPrincipal(ctx)

	req, ok := httputil.Decode[RegisterRequest](w, r)
	if !ok {
		return
	}
	req.Normalize()
	hash, err := req.DecodeHash()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	projectID, err := h.service.Register(ctx, caller, service.RegisterInput{
		DocumentHash:     hash,
		Title:            req.Title,
		Description:      req.Description,
		Location:         req.Location,
		AreaHectares:     req.AreaHectares,
		EstimatedCO2Tons: req.EstimatedCO2Tons,
		Tags:             req.Tags,
	})
	if err != nil {
		h.logError(ctx, "project registration failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"project_id": projectID,
		"status":     models.StatusPending,
		"visible":    true,
	})
}

func (h *Handler) handleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[UpdateMetadataRequest](w, r)
	if !ok {
		return
	}
	req.Normalize()

	err := h.service.UpdateMetadata(ctx, middleware.GetPrincipal(ctx), projectID,
		req.Title, req.Description, req.Location, req.Note)
	if err != nil {
		h.logError(ctx, "metadata update failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[TransferRequest](w, r)
	if !ok {
		return
	}

	err := h.service.TransferOwnership(ctx, middleware.GetPrincipal(ctx), projectID,
		id.ParsePrincipal(req.NewOwner), req.Reason)
	if err != nil {
		h.logError(ctx, "ownership transfer failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[StatusRequest](w, r)
	if !ok {
		return
	}

	err := h.service.UpdateStatus(ctx, middleware.GetPrincipal(ctx), projectID,
		models.ProjectStatus(req.Status))
	if err != nil {
		h.logError(ctx, "status update failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleToggleVisibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	visible, err := h.service.ToggleVisibility(ctx, middleware.GetPrincipal(ctx), projectID)
	if err != nil {
		h.logError(ctx, "visibility toggle failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"visible": visible})
}

func (h *Handler) handleAddCollaborator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[AddCollaboratorRequest](w, r)
	if !ok {
		return
	}

	err := h.service.AddCollaborator(ctx, middleware.GetPrincipal(ctx), projectID,
		id.ParsePrincipal(req.Principal), req.Role, req.Permissions)
	if err != nil {
		h.logError(ctx, "add collaborator failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleRemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	principal := id.ParsePrincipal(chi.URLParam(r, "principal"))

	err := h.service.RemoveCollaborator(ctx, middleware.GetPrincipal(ctx), projectID, principal)
	if err != nil {
		h.logError(ctx, "remove collaborator failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	project, err := h.service.GetProject(r.Context(), projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProjectResponse(project))
}

func (h *Handler) handleGetTags(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	tags, err := h.service.GetTags(r.Context(), projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"tags": tags})
}

func (h *Handler) handleGetCollaborator(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	principal := id.ParsePrincipal(chi.URLParam(r, "principal"))
	collaborator, err := h.service.GetCollaborator(r.Context(), projectID, principal)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, collaborator)
}

func (h *Handler) handleHasPermission(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	principal := id.ParsePrincipal(chi.URLParam(r, "principal"))
	capability := chi.URLParam(r, "capability")

	granted, err := h.service.HasPermission(r.Context(), projectID, principal, capability)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"granted": granted})
}

func (h *Handler) handleGetUpdate(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	seq, ok := h.seq(w, r)
	if !ok {
		return
	}
	update, err := h.service.GetUpdate(r.Context(), projectID, seq)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, update)
}

func (h *Handler) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r)
	if !ok {
		return
	}
	seq, ok := h.seq(w, r)
	if !ok {
		return
	}
	transfer, err := h.service.GetTransfer(r.Context(), projectID, seq)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, transfer)
}

func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.GetState(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, state)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Pause(ctx, middleware.GetPrincipal(ctx)); err != nil {
		h.logError(ctx, "pause failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUnpause(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Unpause(ctx, middleware.GetPrincipal(ctx)); err != nil {
		h.logError(ctx, "unpause failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransferAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[AdminTransferRequest](w, r)
	if !ok {
		return
	}
	err := h.service.TransferAdmin(ctx, middleware.GetPrincipal(ctx), id.ParsePrincipal(req.NewAdmin))
	if err != nil {
		h.logError(ctx, "admin transfer failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) projectID(w http.ResponseWriter, r *http.Request) (id.ProjectID, bool) {
	projectID, err := id.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid project id"))
		return 0, false
	}
	return projectID, true
}

func (h *Handler) seq(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	seq, err := strconv.ParseUint(chi.URLParam(r, "seq"), 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid sequence number"))
		return 0, false
	}
	return seq, true
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err,
	)
}
