// Package http serves the marketplace API over echo.
package http

import (
	"log/slog"

	"tradepost/config"
	"tradepost/internal/delivery"
	httpmiddleware "tradepost/internal/delivery/http/middleware"
	"tradepost/internal/delivery/http/router"
	"tradepost/internal/delivery/http/validator"
	"tradepost/internal/delivery/middleware"
	"tradepost/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
)

// HTTPParams holds dependencies for the HTTP server, injected by Fx.
type HTTPParams struct {
	fx.In

	Lc           fx.Lifecycle
	Config       *config.Config
	Logger       *slog.Logger
	Metrics      *metrics.Metrics `optional:"true"`
	RouterParams router.RouterParams
}

// NewServer builds the API server with its middleware chain and routes.
func NewServer(params HTTPParams) (delivery.Delivery, error) {
	e := NewEcho(params.Config, params.Logger, params.Metrics)
	router.NewRouter(params.RouterParams).RegisterRoutes(e)

	srv := delivery.NewEchoServer("api", params.Config.HTTP.Port, e, params.Config.HTTP.Timeouts.IdleTimeout, params.Logger)
	params.Lc.Append(fx.Hook{OnStop: srv.Shutdown})

	return srv, nil
}

// NewEcho configures echo without routes so handler tests share the production chain.
func NewEcho(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *echo.Echo {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Server.ReadTimeout = cfg.HTTP.Timeouts.ReadTimeout
	echoServer.Server.ReadHeaderTimeout = cfg.HTTP.Timeouts.ReadHeaderTimeout
	echoServer.Server.WriteTimeout = cfg.HTTP.Timeouts.WriteTimeout
	echoServer.Server.IdleTimeout = cfg.HTTP.Timeouts.IdleTimeout

	// Recover first so panics in any later middleware are caught.
	echoServer.Use(echomiddleware.Recover())

	// Request ID must run before the access log to tag it.
	echoServer.Use(middleware.RequestID(logger))
	echoServer.Use(middleware.NewLoggerMiddleware(logger, cfg))

	if m != nil {
		echoServer.Use(httpmiddleware.NewMetricsMiddleware(m).Handle)
	}

	echoServer.Use(echomiddleware.CORS())
	if cfg.HTTP.MaxRequestBodySize != "" {
		echoServer.Use(echomiddleware.BodyLimit(cfg.HTTP.MaxRequestBodySize))
	}

	echoServer.HTTPErrorHandler = httpmiddleware.ErrorHandler(logger)
	echoServer.Validator = validator.New()

	return echoServer
}
