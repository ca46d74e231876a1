package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	AuthOutcomes       *prometheus.CounterVec
	AccountsRegistered prometheus.Counter
	LoginAttempts      *prometheus.CounterVec
	RateLimited        *prometheus.CounterVec
	ResolveDuration    prometheus.Histogram
	AuditPublishErrors prometheus.Counter
	RateLimitDegraded  prometheus.Gauge
}

// New creates the metrics and registers them with reg. Pass a fresh
// registry in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AuthOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "market_auth_decisions_total",
			Help: "Authentication and authorization decisions by internal kind",
		}, []string{"kind"}),
		AccountsRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "market_accounts_registered_total",
			Help: "Total number of accounts registered",
		}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "market_login_attempts_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "market_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"route"}),
		ResolveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "market_identity_resolve_duration_seconds",
			Help:    "Time spent resolving a bearer token to an account",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		AuditPublishErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "market_audit_publish_errors_total",
			Help: "Audit events that could not be delivered",
		}),
		RateLimitDegraded: f.NewGauge(prometheus.GaugeOpts{
			Name: "market_rate_limit_degraded",
			Help: "1 while the shared rate-limit store is bypassed for the in-memory fallback",
		}),
	}
}

// ObserveDecision counts an auth decision. "allowed" is used for success.
func (m *Metrics) ObserveDecision(kind string) {
	if m == nil {
		return
	}
	m.AuthOutcomes.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveResolve(seconds float64) {
	if m == nil {
		return
	}
	m.ResolveDuration.Observe(seconds)
}

func (m *Metrics) IncrementAccountsRegistered() {
	if m == nil {
		return
	}
	m.AccountsRegistered.Inc()
}

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementRateLimited(route string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(route).Inc()
}

func (m *Metrics) IncrementAuditPublishErrors() {
	if m == nil {
		return
	}
	m.AuditPublishErrors.Inc()
}

func (m *Metrics) SetRateLimitDegraded(degraded bool) {
	if m == nil {
		return
	}
	if degraded {
		m.RateLimitDegraded.Set(1)
		return
	}
	m.RateLimitDegraded.Set(0)
}
