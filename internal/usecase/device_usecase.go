package usecase

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// RegisterDeviceInput is a push registration sent by an app installation.
type RegisterDeviceInput struct {
	UserID         uuid.UUID
	InstallationID string
	Token          string
	Platform       string
}

// DeviceUsecase manages the push registrations of the current user.
type DeviceUsecase interface {
	Register(ctx context.Context, input *RegisterDeviceInput) (*entity.Device, error)
	List(ctx context.Context, userID uuid.UUID) ([]*entity.Device, error)
	// Remove unregisters a device. Devices of other users are reported missing.
	Remove(ctx context.Context, userID, deviceID uuid.UUID) error
}
