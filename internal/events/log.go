package events

import (
	"context"
	"log/slog"
)

// LogPublisher is the fallback sink when no broker is configured: events are
// logged and dropped. It also serves as the test double for services.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "integration event",
		"type", event.Type,
		"project_id", event.ProjectID,
		"actor", event.Actor,
	)
	return nil
}
