package middleware

import (
	"log/slog"

	deliverycontext "tradepost/internal/delivery/context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const maxClientRequestID = 128

// RequestID tags every request with an id and a logger carrying it. A well formed
// X-Request-Id from the caller is kept so traces join up across services.
func RequestID(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(deliverycontext.HeaderXRequestID)
			if !validRequestID(id) {
				id = uuid.NewString()
			}
			deliverycontext.SetRequestID(c, id)
			c.Response().Header().Set(deliverycontext.HeaderXRequestID, id)

			ctx := deliverycontext.WithRequestID(c.Request().Context(), id)
			ctx = deliverycontext.WithLogger(ctx, logger.With(slog.String("request_id", id)))
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// validRequestID accepts short tokens of letters, digits and -_.:
func validRequestID(id string) bool {
	if id == "" || len(id) > maxClientRequestID {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}

	return true
}
