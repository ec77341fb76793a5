package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the registry.
type Metrics struct {
	ProjectsRegistered prometheus.Counter
	StatusChanges      prometheus.Counter
	OwnershipTransfers prometheus.Counter
	RejectedMutations  *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		ProjectsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registry_projects_registered_total",
			Help: "Total number of projects registered",
		}),
		StatusChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registry_status_changes_total",
			Help: "Total number of project status transitions",
		}),
		OwnershipTransfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "registry_ownership_transfers_total",
			Help: "Total number of project ownership transfers",
		}),
		RejectedMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_rejected_mutations_total",
			Help: "Mutating calls rejected by validation or access control, by error code",
		}, []string{"code"}),
	}
}
