package authenticator

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics wraps the Prometheus collectors emitted by Server. A nil *Metrics
// is a valid, inert no-op: metrics are additive, not load-bearing (see
// SPEC_FULL.md §9.3).
type Metrics struct {
	requests    *prometheus.CounterVec
	liveTokens  prometheus.GaugeFunc
	migrations  prometheus.Counter
}

// NewMetrics registers the authenticator's collectors on reg and returns a
// Metrics ready to pass to NewServer. liveTokens is polled lazily so the
// gauge always reflects the cache's current size.
func NewMetrics(reg *prometheus.Registry, liveTokens func() int) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "direct_authenticator_requests_total",
			Help: "Count of handled requests by path and status.",
		}, []string{"path", "status"}),
		migrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "direct_authenticator_legacy_migrations_total",
			Help: "Count of attribute records migrated from legacy storage at startup.",
		}),
	}
	m.liveTokens = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "direct_authenticator_live_tokens",
		Help: "Current number of unredeemed one-time enrollment tokens.",
	}, func() float64 { return float64(liveTokens()) })

	reg.MustRegister(m.requests, m.migrations, m.liveTokens)
	return m
}

func (m *Metrics) observeRequest(path, status string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, status).Inc()
}

func (m *Metrics) addMigrations(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.migrations.Add(float64(n))
}
