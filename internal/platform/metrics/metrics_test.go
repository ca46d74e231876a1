package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDecision("expired_token")
	m.ObserveDecision("expired_token")
	m.ObserveDecision("allowed")
	m.IncrementAccountsRegistered()
	m.ObserveLogin("success")
	m.IncrementRateLimited("/api")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthOutcomes.WithLabelValues("expired_token")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthOutcomes.WithLabelValues("allowed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccountsRegistered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("/api")))
}

func TestRateLimitDegradedGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetRateLimitDegraded(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitDegraded))
	m.SetRateLimitDegraded(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RateLimitDegraded))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDecision("x")
		m.ObserveResolve(0.1)
		m.IncrementAccountsRegistered()
		m.ObserveLogin("failure")
		m.IncrementRateLimited("/api")
		m.IncrementAuditPublishErrors()
		m.SetRateLimitDegraded(true)
	})
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
