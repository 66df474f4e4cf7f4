// Package metrics provides Prometheus metrics for the chat widget and booking form.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Send results recorded in SendsTotal.
const (
	SendOK      = "ok"
	SendFailed  = "failed"
	SendIgnored = "ignored"
	SendBusy    = "busy"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP server metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Completion endpoint metrics
	CompletionRequestsTotal *prometheus.CounterVec
	CompletionDuration      prometheus.Histogram
	CompletionsInFlight     prometheus.Gauge

	// Chat widget metrics
	SendsTotal     *prometheus.CounterVec
	ActiveSessions prometheus.Gauge

	// Booking metrics
	BookingsTotal *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixaphone_http_requests_total",
				Help: "Total number of HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fixaphone_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fixaphone_http_requests_in_flight",
				Help: "Number of HTTP requests currently being served",
			},
		),
		CompletionRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixaphone_completion_requests_total",
				Help: "Total number of completion endpoint requests",
			},
			[]string{"status"},
		),
		CompletionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fixaphone_completion_request_duration_seconds",
				Help:    "Duration of completion endpoint requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		CompletionsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fixaphone_completion_requests_in_flight",
				Help: "Number of completion requests currently awaiting a reply",
			},
		),
		SendsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixaphone_chat_sends_total",
				Help: "Total number of chat send attempts by result",
			},
			[]string{"result"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fixaphone_chat_sessions_active",
				Help: "Number of chat sessions held in memory",
			},
		),
		BookingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fixaphone_bookings_total",
				Help: "Total number of accepted booking submissions",
			},
			[]string{"device"},
		),
	}
}

// NewNop returns metrics registered with a private registry, for callers that
// do not export them.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordCompletion records one completion round trip.
func (m *Metrics) RecordCompletion(status string, duration time.Duration) {
	m.CompletionRequestsTotal.WithLabelValues(status).Inc()
	m.CompletionDuration.Observe(duration.Seconds())
}

// RecordSend records the outcome of a send attempt.
func (m *Metrics) RecordSend(result string) {
	m.SendsTotal.WithLabelValues(result).Inc()
}

// RecordBooking records an accepted booking.
func (m *Metrics) RecordBooking(device string) {
	m.BookingsTotal.WithLabelValues(device).Inc()
}
