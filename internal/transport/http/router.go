package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carbonregistry/internal/platform/middleware"
	"carbonregistry/internal/registry/handler"
)

// NewRouter wires all endpoints. Reads are public; mutations require an
// authenticated caller principal.
func NewRouter(h *handler.Handler, jwtSigningKey string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		h.RegisterReads(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePrincipal(jwtSigningKey, logger))
		h.RegisterMutations(r)
	})

	return r
}
