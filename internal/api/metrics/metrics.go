// Package metrics holds the todo service's domain counters. HTTP request
// metrics come from echoprometheus; these count what the handlers decide.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "todo"

type Metrics struct {
	// UsersRegistered counts successful registrations, including the bootstrap account.
	UsersRegistered prometheus.Counter

	// Logins counts login attempts.
	// Label:
	//   - result: "success", "invalid" (bad credentials) or "error"
	Logins *prometheus.CounterVec

	// TodoMutations counts successful writes.
	// Label:
	//   - op: "create", "update" or "delete"
	TodoMutations *prometheus.CounterVec
}

// New registers the counters on reg. Pass a fresh registry per router so
// several routers can live in one process.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UsersRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "users_registered_total",
			Help:      "Total number of user accounts created.",
		}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "logins_total",
			Help:      "Total number of login attempts, by result.",
		}, []string{"result"}),
		TodoMutations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "todo_mutations_total",
			Help:      "Total number of todo writes, by operation.",
		}, []string{"op"}),
	}
}
