package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for session and fetch activity.
type Metrics struct {
	RosterRefreshes prometheus.Counter
	TenantSwitches  prometheus.Counter
	SessionErrors   prometheus.Counter
	Fetches         *prometheus.CounterVec
	FetchErrors     *prometheus.CounterVec
	StaleDiscards   *prometheus.CounterVec
}

// New registers and returns the collectors on the given registerer. Pass a
// fresh prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RosterRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "finboard_roster_refreshes_total",
			Help: "Total number of successful tenant roster refreshes",
		}),
		TenantSwitches: factory.NewCounter(prometheus.CounterOpts{
			Name: "finboard_tenant_switches_total",
			Help: "Total number of acknowledged tenant switches",
		}),
		SessionErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "finboard_session_errors_total",
			Help: "Total number of session-level operation failures",
		}),
		Fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "finboard_fetches_total",
			Help: "Total number of resource fetches dispatched",
		}, []string{"resource"}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "finboard_fetch_errors_total",
			Help: "Total number of resource fetches that failed",
		}, []string{"resource"}),
		StaleDiscards: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "finboard_stale_discards_total",
			Help: "Total number of late responses discarded for a superseded tenant",
		}, []string{"resource"}),
	}
}
