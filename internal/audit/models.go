package audit

import "time"

// Event is emitted from registry logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Actor     string
	Action    string
	ProjectID string
	Reason    string
	RequestID string
}

// Actions recorded by the registry core.
const (
	EventProjectRegistered   = "project.registered"
	EventMetadataUpdated     = "project.metadata_updated"
	EventOwnershipTransfer   = "project.ownership_transferred"
	EventStatusChanged       = "project.status_changed"
	EventVisibilityToggled   = "project.visibility_toggled"
	EventCollaboratorAdded   = "project.collaborator_added"
	EventCollaboratorRemoved = "project.collaborator_removed"
	EventRegistryPaused      = "registry.paused"
	EventRegistryUnpaused    = "registry.unpaused"
	EventAdminTransferred    = "registry.admin_transferred"
)
