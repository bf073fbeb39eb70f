package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/delivery/http/response"
	domainerrors "tradepost/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	codeHTTPError     = "HTTP_ERROR"
	codeInternalError = "INTERNAL_ERROR"
)

// ErrorHandler renders whatever a handler returned. Domain errors keep their
// status and code, echo errors become HTTP_ERROR and anything else is a 500
// whose cause is only logged.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		req := c.Request()
		log := deliverycontext.GetLoggerOrDefault(req.Context(), logger).With(
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
		)

		var appErr domainerrors.AppError
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			if appErr.HTTPCode() >= http.StatusInternalServerError {
				log.Error("Request failed", slog.String("code", appErr.ErrorCode()), slog.Any("error", err))
			}
			err = response.AppError(c, appErr)

		case errors.As(err, &httpErr):
			message := http.StatusText(httpErr.Code)
			if httpErr.Message != nil {
				message = fmt.Sprint(httpErr.Message)
			}
			err = response.Fail(c, httpErr.Code, codeHTTPError, message, "")

		default:
			log.Error("Unhandled error", slog.Any("error", err))
			err = response.Fail(c, http.StatusInternalServerError, codeInternalError,
				"Internal server error, please try again later", "")
		}

		if err != nil {
			log.Warn("Failed to write error response", slog.Any("error", err))
		}
	}
}
