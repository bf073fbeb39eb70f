package handler

import (
	"log/slog"
	"net/http"

	"tradepost/internal/delivery/http/response"
	"tradepost/internal/delivery/http/validator"
	"tradepost/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// DeviceHandlerParams holds the dependencies of DeviceHandler.
type DeviceHandlerParams struct {
	fx.In

	DeviceUC usecase.DeviceUsecase
	Logger   *slog.Logger
}

// DeviceHandler serves the push registrations of the current user.
type DeviceHandler struct {
	deviceUC usecase.DeviceUsecase
	logger   *slog.Logger
}

func NewDeviceHandler(params DeviceHandlerParams) *DeviceHandler {
	return &DeviceHandler{
		deviceUC: params.DeviceUC,
		logger:   params.Logger,
	}
}

// RegisterDeviceRequest is the body of POST /me/devices.
type RegisterDeviceRequest struct {
	InstallationID string `json:"installation_id" validate:"required,max=128"`
	Token          string `json:"token" validate:"required"`
	Platform       string `json:"platform" validate:"required,oneof=ios android web"`
}

// RegisterDevice stores or refreshes the push registration of the calling installation.
func (h *DeviceHandler) RegisterDevice(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	var req RegisterDeviceRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid device input")
	}
	if err := c.Validate(&req); err != nil {
		return response.ValidationError(c, validator.FirstField(err))
	}

	device, err := h.deviceUC.Register(c.Request().Context(), &usecase.RegisterDeviceInput{
		UserID:         userID,
		InstallationID: req.InstallationID,
		Token:          req.Token,
		Platform:       req.Platform,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, device, "Device registered")
}

func (h *DeviceHandler) ListDevices(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	devices, err := h.deviceUC.List(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, devices, "")
}

func (h *DeviceHandler) RemoveDevice(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	deviceID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	if err := h.deviceUC.Remove(c.Request().Context(), userID, deviceID); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
