package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/domain/service"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const maxInstallationIDLength = 128

// DeviceServiceParams holds the dependencies of the device service.
type DeviceServiceParams struct {
	fx.In

	DeviceRepo repository.DeviceRepository
	Clock      service.Clock
	Logger     *slog.Logger
}

type deviceService struct {
	deviceRepo repository.DeviceRepository
	clock      service.Clock
	logger     *slog.Logger
}

// NewDeviceService creates the push registration use case.
func NewDeviceService(params DeviceServiceParams) usecase.DeviceUsecase {
	return &deviceService{
		deviceRepo: params.DeviceRepo,
		clock:      params.Clock,
		logger:     params.Logger,
	}
}

func (srv *deviceService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *deviceService) Register(ctx context.Context, input *usecase.RegisterDeviceInput) (*entity.Device, error) {
	token := strings.TrimSpace(input.Token)
	installation := strings.TrimSpace(input.InstallationID)
	switch {
	case token == "":
		return nil, domainerrors.NewValidationError("token", "is required")
	case installation == "":
		return nil, domainerrors.NewValidationError("installation_id", "is required")
	case len(installation) > maxInstallationIDLength:
		return nil, domainerrors.NewValidationError("installation_id", "is too long")
	}
	platform, ok := entity.ParseDevicePlatform(input.Platform)
	if !ok {
		return nil, domainerrors.NewValidationError("platform", "must be ios, android or web")
	}

	now := srv.clock.Now()
	device := &entity.Device{
		UserID:         input.UserID,
		InstallationID: installation,
		Token:          token,
		Platform:       platform,
		LastSeenAt:     now,
		CreatedAt:      now,
	}
	if err := srv.deviceRepo.Save(ctx, device); err != nil {
		return nil, errors.Wrap(err, "failed to save device")
	}
	srv.log(ctx).Debug("Push device registered",
		slog.String("device_id", device.ID.String()),
		slog.String("platform", string(platform)),
	)

	return device, nil
}

func (srv *deviceService) List(ctx context.Context, userID uuid.UUID) ([]*entity.Device, error) {
	devices, err := srv.deviceRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list devices")
	}

	return devices, nil
}

func (srv *deviceService) Remove(ctx context.Context, userID, deviceID uuid.UUID) error {
	if err := srv.deviceRepo.Delete(ctx, userID, deviceID); err != nil {
		if errors.Is(err, domainerrors.ErrDeviceNotFound) {
			return domainerrors.ErrDeviceNotFound
		}

		return errors.Wrap(err, "failed to delete device")
	}

	return nil
}
