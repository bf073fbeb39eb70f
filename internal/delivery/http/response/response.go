// Package response builds the JSON envelope every endpoint returns.
package response

import (
	"net/http"

	deliverycontext "tradepost/internal/delivery/context"
	domainerrors "tradepost/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// Response is the envelope shared by successes and failures.
type Response struct {
	Success   bool       `json:"success"`
	Code      int        `json:"code"`
	Message   string     `json:"message"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

// ErrorInfo carries the stable machine readable code, e.g. ITEM_NOT_AVAILABLE.
type ErrorInfo struct {
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func Success(c echo.Context, status int, data any, message string) error {
	if message == "" {
		message = "Success"
	}

	return c.JSON(status, Response{
		Success:   true,
		Code:      status,
		Message:   message,
		Data:      data,
		RequestID: deliverycontext.RequestIDFromEcho(c),
	})
}

// Fail writes an error envelope. Details never reach the client on 5xx, 401 or 403
// since they may describe internals or why a credential was refused.
func Fail(c echo.Context, status int, code, message, details string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	if status >= http.StatusInternalServerError || status == http.StatusUnauthorized || status == http.StatusForbidden {
		details = ""
	}

	return c.JSON(status, Response{
		Code:      status,
		Message:   message,
		Error:     &ErrorInfo{Code: code, Details: details},
		RequestID: deliverycontext.RequestIDFromEcho(c),
	})
}

// AppError renders a domain error with its own status and code.
func AppError(c echo.Context, err domainerrors.AppError) error {
	return Fail(c, err.HTTPCode(), err.ErrorCode(), err.Message(), err.Details())
}

func BadRequest(c echo.Context, code, message string) error {
	return Fail(c, http.StatusBadRequest, code, message, "")
}

// BindingError reports a body or query that could not be decoded.
func BindingError(c echo.Context, code, message string) error {
	return BadRequest(c, code, message)
}

// ValidationError names the offending field the same way the services do.
func ValidationError(c echo.Context, field string) error {
	return Fail(c, http.StatusBadRequest, domainerrors.ErrValidationFailed.ErrorCode(),
		domainerrors.ErrValidationFailed.Message(), field)
}

func Unauthorized(c echo.Context, code, message string) error {
	return Fail(c, http.StatusUnauthorized, code, message, "")
}

func Forbidden(c echo.Context, code, message string) error {
	return Fail(c, http.StatusForbidden, code, message, "")
}

func NotFound(c echo.Context, code, message string) error {
	return Fail(c, http.StatusNotFound, code, message, "")
}
