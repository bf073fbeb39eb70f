package middleware

import (
	"log/slog"
	"net/http"

	"tradepost/config"

	"github.com/labstack/echo/v4"
	slogecho "github.com/samber/slog-echo"
)

// quietPaths are polled by probes and scrapers and stay out of the access log.
var quietPaths = []string{"/health", "/metrics"}

// NewLoggerMiddleware builds the access log. It runs after the request ID middleware
// so every line carries the same request_id as the service logs.
func NewLoggerMiddleware(logger *slog.Logger, cfg *config.Config) echo.MiddlewareFunc {
	logCfg := slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    false,
		WithUserAgent:    cfg.Env.Debug,
		WithRequestBody:  false,
		WithResponseBody: false,
		Filters: []slogecho.Filter{
			slogecho.IgnorePath(quietPaths...),
			slogecho.IgnoreStatus(http.StatusNotModified),
		},
	}

	return slogecho.NewWithConfig(logger.WithGroup("http"), logCfg)
}
