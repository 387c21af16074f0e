// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the auth counters.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid_input"
	OutcomeConflict = "conflict"
	OutcomeBadCreds = "bad_credentials"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus collectors.  A nil *Metrics is valid and
// records nothing, so tests can pass nil.
type Metrics struct {
	// Auth metrics
	LoginAttemptsTotal  *prometheus.CounterVec
	RegistrationsTotal  *prometheus.CounterVec
	GateRejectionsTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gameplatform_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gameplatform_registrations_total",
				Help: "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		GateRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gameplatform_gate_rejections_total",
				Help: "Requests rejected by the access gate",
			},
			[]string{"reason"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gameplatform_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gameplatform_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.LoginAttemptsTotal,
			m.RegistrationsTotal,
			m.GateRejectionsTotal,
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
		)
	}
	return m
}

func (m *Metrics) Login(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(outcome).Inc()
}

// GateRejection counts a request turned away before reaching its handler.
func (m *Metrics) GateRejection(reason string) {
	if m == nil {
		return
	}
	m.GateRejectionsTotal.WithLabelValues(reason).Inc()
}

// HTTPRequest records one served request.  route is the registered path
// pattern, not the raw URL, to keep label cardinality bounded.
func (m *Metrics) HTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
