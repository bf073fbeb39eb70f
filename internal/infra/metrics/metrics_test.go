package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tradepost/config"
	"tradepost/internal/infra/metrics"
	dbtest "tradepost/internal/testutil"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.Checkout(metrics.ResultSuccess)
		m.Moderation("approve")
		m.Upload(metrics.ResultFailure)
		m.Notification("email", metrics.ResultSuccess)
		m.WishlistMatch(3)
		m.WatchDB(nil, "primary")
		m.ObserveRequest(http.MethodGet, "/items", 200, time.Millisecond)
	})
}

func TestMetrics_Counters(t *testing.T) {
	m := metrics.NewMetrics()

	m.Checkout(metrics.ResultSuccess)
	m.Checkout(metrics.ResultSuccess)
	m.Checkout(metrics.ResultReplay)
	m.WishlistMatch(2)
	m.WishlistMatch(0)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Checkouts.WithLabelValues(metrics.ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Checkouts.WithLabelValues(metrics.ResultReplay)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.WishlistMatches), 0)
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.NewMetrics()
	m.ObserveRequest(http.MethodPost, "/checkout", 201, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tradepost_http_requests_total{method="POST",route="/checkout",status="201"} 1`)
}

func TestNew_Disabled(t *testing.T) {
	assert.Nil(t, metrics.New(&config.Config{}))

	cfg := &config.Config{}
	cfg.Metrics.Enabled = true
	assert.NotNil(t, metrics.New(cfg))
}

func TestMetrics_WatchDB(t *testing.T) {
	m := metrics.NewMetrics()
	sqlDB, err := dbtest.NewTestDB(t).DB()
	require.NoError(t, err)

	m.WatchDB(sqlDB, "primary")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `go_sql_max_open_connections{db_name="primary"} 1`)
}
