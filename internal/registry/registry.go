// Package registry re-exports the service and handler so wiring code depends
// on one import path.
package registry

import (
	"log/slog"

	"carbonregistry/internal/registry/handler"
	"carbonregistry/internal/registry/service"
	"carbonregistry/internal/registry/store"
)

// Service exposes project registration, mutation, and lifecycle.
type Service = service.Service

// Handler wires HTTP endpoints to the registry service.
type Handler = handler.Handler

// NewService constructs the registry service over a ledger.
func NewService(ledger store.Ledger, opts ...service.Option) *Service {
	return service.New(ledger, opts...)
}

// NewHandler constructs an HTTP handler for registry routes.
func NewHandler(s handler.Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
