package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"tradepost/internal/delivery/http/response"
	"tradepost/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// NotificationHandlerParams holds dependencies for NotificationHandler, injected by Fx.
type NotificationHandlerParams struct {
	fx.In

	NotificationUC usecase.NotificationUsecase
	Logger         *slog.Logger
}

// NotificationHandler serves the caller's in-app inbox.
type NotificationHandler struct {
	uc     usecase.NotificationUsecase
	logger *slog.Logger
}

// NewNotificationHandler is the constructor for NotificationHandler
func NewNotificationHandler(params NotificationHandlerParams) *NotificationHandler {
	return &NotificationHandler{
		uc:     params.NotificationUC,
		logger: params.Logger,
	}
}

// List returns a page of the inbox.
func (h *NotificationHandler) List(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	unreadOnly, _ := strconv.ParseBool(c.QueryParam("unread_only"))
	limit, offset := pageParams(c)

	notifications, err := h.uc.List(c.Request().Context(), userID, unreadOnly, limit, offset)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, notifications, "")
}

// UnreadCount returns {count:int}.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	count, err := h.uc.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.JSON(http.StatusOK, map[string]int64{"count": count})
}

// MarkRead marks one notification read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	notificationID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	if err := h.uc.MarkRead(c.Request().Context(), userID, notificationID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Notification marked read")
}

// MarkAllRead marks the whole inbox read.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	changed, err := h.uc.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]int64{"updated": changed}, "Notifications marked read")
}
