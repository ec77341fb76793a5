package audit

import (
	"context"
	"log/slog"
)

// Worker drains the audit inbox into the store. Append failures are logged
// and the entry dropped; the audit trail never takes a mutation down with it.
// On shutdown the worker flushes whatever is still queued before returning.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.flush()
			return ctx.Err()
		case event := <-w.inbox:
			w.append(ctx, event)
		}
	}
}

// flush persists events still queued after the run context is gone.
func (w *Worker) flush() {
	for {
		select {
		case event := <-w.inbox:
			w.append(context.Background(), event)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil && w.logger != nil {
		w.logger.WarnContext(ctx, "audit append failed",
			"action", event.Action,
			"project_id", event.ProjectID,
			"error", err,
		)
	}
}
