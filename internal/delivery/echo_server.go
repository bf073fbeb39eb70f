package delivery

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"tradepost/internal/domain/lifecycle"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/net/http2"
)

// EchoServer serves an echo instance over cleartext HTTP/2 with HTTP/1.1 fallback.
type EchoServer struct {
	name   string
	addr   string
	echo   *echo.Echo
	h2     *http2.Server
	logger *slog.Logger
}

// NewEchoServer listens on every interface at port.
func NewEchoServer(name string, port int, e *echo.Echo, idle time.Duration, logger *slog.Logger) *EchoServer {
	return &EchoServer{
		name:   name,
		addr:   net.JoinHostPort("0.0.0.0", strconv.Itoa(port)),
		echo:   e,
		h2:     &http2.Server{IdleTimeout: idle},
		logger: logger.With(slog.String("server", name)),
	}
}

func (s *EchoServer) Serve(context.Context) error {
	s.logger.Info("Listening", slog.String("addr", s.addr))
	if err := s.echo.StartH2CServer(s.addr, s.h2); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrapf(err, "%s server failed", s.name)
	}

	return nil
}

// Shutdown drains in-flight requests for at most lifecycle.DefaultTimeout.
func (s *EchoServer) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Draining")

	return errors.WithStack(s.echo.Shutdown(ctx))
}
