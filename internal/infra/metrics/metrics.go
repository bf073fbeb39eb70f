// Package metrics exposes Prometheus collectors for the marketplace flows.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"tradepost/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tradepost"

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultReplay  = "replay"
)

// Metrics holds Prometheus metrics for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Checkouts       *prometheus.CounterVec
	Moderations     *prometheus.CounterVec
	Uploads         *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	WishlistMatches prometheus.Counter
}

// NewMetrics creates a metrics instance on its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Checkouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkouts_total",
				Help:      "Checkout attempts by result",
			},
			[]string{"result"},
		),
		Moderations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "moderations_total",
				Help:      "Moderation decisions by action",
			},
			[]string{"action"},
		),
		Uploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Item submissions by result",
			},
			[]string{"result"},
		),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notification deliveries by channel and result",
			},
			[]string{"channel", "result"},
		),
		WishlistMatches: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wishlist_matches_total",
				Help:      "Wishlist match rows created",
			},
		),
	}
}

// New builds metrics when enabled in config, otherwise nil.
func New(cfg *config.Config) *Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}

	return NewMetrics()
}

// WatchDB exports the pool statistics of db under the given name.
func (m *Metrics) WatchDB(db *sql.DB, name string) {
	if m == nil {
		return
	}
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Checkout counts a checkout outcome.
func (m *Metrics) Checkout(result string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(result).Inc()
}

// Moderation counts an approve or reject.
func (m *Metrics) Moderation(action string) {
	if m == nil {
		return
	}
	m.Moderations.WithLabelValues(action).Inc()
}

// Upload counts an item submission outcome.
func (m *Metrics) Upload(result string) {
	if m == nil {
		return
	}
	m.Uploads.WithLabelValues(result).Inc()
}

// Notification counts a delivery on one channel.
func (m *Metrics) Notification(channel, result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(channel, result).Inc()
}

// WishlistMatch counts newly created match rows.
func (m *Metrics) WishlistMatch(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.WishlistMatches.Add(float64(n))
}
