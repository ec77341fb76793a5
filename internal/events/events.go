// Package events publishes integration events for the companion subsystems
// (verification workflow, token minting, marketplace). The registry core only
// announces what happened; consumers decide what to do with it.
package events

import (
	"context"
	"time"
)

// Event is one outbound integration event.
type Event struct {
	Type       string            `json:"type"`
	ProjectID  uint64            `json:"project_id"`
	Actor      string            `json:"actor"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Publisher delivers integration events. Publishing is fire-and-forget from
// the registry's point of view: a failed publish is logged, never rolled
// back, because the ledger commit is the source of truth.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
