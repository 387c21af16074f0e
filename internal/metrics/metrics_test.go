package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Login(OutcomeSuccess)
	m.Login(OutcomeBadCreds)
	m.Login(OutcomeBadCreds)
	m.Registration(OutcomeConflict)
	m.GateRejection("expired")
	m.HTTPRequest("POST", "/api/auth/login", 200, 15*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttemptsTotal.WithLabelValues(OutcomeBadCreds)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationsTotal.WithLabelValues(OutcomeConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GateRejectionsTotal.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/auth/login", "200")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["gameplatform_http_request_duration_seconds"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Login(OutcomeSuccess)
		m.Registration(OutcomeError)
		m.GateRejection("missing")
		m.HTTPRequest("GET", "/healthz", 200, time.Millisecond)
	})
}
