package middleware

import (
	"time"

	"tradepost/internal/infra/metrics"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware records the request counter and latency histogram per route.
type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

// NewMetricsMiddleware creates the middleware. A nil metrics instance records nothing.
func NewMetricsMiddleware(m *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: m}
}

// Handle times the request and reports it once the handler chain returns.
func (m *MetricsMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			// Let the error handler pick the final status before it is recorded.
			c.Error(err)
		}

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		m.metrics.ObserveRequest(c.Request().Method, route, c.Response().Status, time.Since(start))

		return nil
	}
}
