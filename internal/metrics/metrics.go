// Package metrics exposes the Prometheus collectors of the studio app.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aguin"

// Result labels.
const (
	ResultOK     = "ok"
	ResultError  = "error"
	ResultCached = "cached"
	ResultDenied = "denied"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	HTTPRequests       *prometheus.CounterVec
	HTTPLatency        *prometheus.HistogramVec
	DashboardBuilds    *prometheus.CounterVec
	DashboardLatency   prometheus.Histogram
	ReservationsBooked prometheus.Counter
	PaymentsRecorded   prometheus.Counter
	EventsPublished    *prometheus.CounterVec
	LedgerRows         *prometheus.CounterVec
	LoginAttempts      *prometheus.CounterVec
	Uploads            *prometheus.CounterVec
	RateLimited        prometheus.Counter
	Suspicious         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil reg uses the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code",
		}, []string{"route", "method", "status"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests by route pattern",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		DashboardBuilds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_builds_total",
			Help:      "Dashboard summaries served, labeled by result",
		}, []string{"result"}),
		DashboardLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dashboard_fetch_duration_seconds",
			Help:      "Time spent fetching dashboard data from the store",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 7},
		}),
		ReservationsBooked: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_booked_total",
			Help:      "Reservations created through the public booking form",
		}),
		PaymentsRecorded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Payments recorded by the back office",
		}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Studio events published to the broker, labeled by kind and result",
		}, []string{"kind", "result"}),
		LedgerRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_rows_exported_total",
			Help:      "Rows appended to the spreadsheet ledger, labeled by row kind",
		}, []string{"kind"}),
		LoginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Back office login attempts, labeled by result",
		}, []string{"result"}),
		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photo_uploads_total",
			Help:      "Gallery photo uploads, labeled by result",
		}, []string{"result"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the POST rate limiter",
		}),
		Suspicious: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspicious_requests_total",
			Help:      "Requests rejected as probing, labeled by reason",
		}, []string{"reason"}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Result maps an error to ResultOK or ResultError.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
