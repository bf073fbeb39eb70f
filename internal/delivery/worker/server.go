// Package worker serves the push endpoint that receives background jobs from Pub/Sub.
package worker

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"tradepost/config"
	"tradepost/internal/delivery"
	"tradepost/internal/delivery/middleware"
	"tradepost/internal/delivery/worker/handler"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const healthProbeTimeout = 2 * time.Second

// HealthCheck reports whether the worker can do useful work.
type HealthCheck func(ctx context.Context) error

// ServerParams are the dependencies of NewServer.
type ServerParams struct {
	fx.In

	Lc          fx.Lifecycle
	Cfg         *config.Config
	Logger      *slog.Logger
	DB          *gorm.DB `optional:"true"`
	PushHandler *handler.PushHandler
}

// NewEcho wires the worker routes. A nil check makes /health always healthy.
func NewEcho(cfg *config.Config, logger *slog.Logger, push *handler.PushHandler, check HealthCheck) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestID(logger))
	e.Use(middleware.NewLoggerMiddleware(logger, cfg))

	e.GET("/health", func(c echo.Context) error {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), healthProbeTimeout)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "Health check failed", slog.Any("error", err))

				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			}
		}

		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.POST("/push", push.HandlePush)

	return e
}

// NewServer builds the worker server. /health pings the database when one is wired.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	var check HealthCheck
	if params.DB != nil {
		check = func(ctx context.Context) error {
			sqlDB, err := params.DB.DB()
			if err != nil {
				return err
			}

			return sqlDB.PingContext(ctx)
		}
	}

	e := NewEcho(params.Cfg, params.Logger, params.PushHandler, check)
	srv := delivery.NewEchoServer("worker", params.Cfg.HTTP.Port, e, params.Cfg.HTTP.Timeouts.IdleTimeout, params.Logger)
	params.Lc.Append(fx.Hook{OnStop: srv.Shutdown})

	return srv, nil
}
