package postgres

import (
	"context"

	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository returns a gorm backed repository.DeviceRepository.
func NewDeviceRepository(db *gorm.DB) repository.DeviceRepository {
	return &deviceRepository{db: db}
}

func (repo *deviceRepository) Save(ctx context.Context, device *entity.Device) error {
	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	row := &model.DeviceModel{
		ID:             device.ID,
		UserID:         device.UserID,
		InstallationID: device.InstallationID,
		Token:          device.Token,
		Platform:       string(device.Platform),
		LastSeenAt:     device.LastSeenAt,
		CreatedAt:      device.CreatedAt,
	}

	var stored model.DeviceModel
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A token moves with the handset, e.g. after a different user signs in on it.
		if err := tx.
			Where("token = ? AND NOT (user_id = ? AND installation_id = ?)", row.Token, row.UserID, row.InstallationID).
			Delete(&model.DeviceModel{}).Error; err != nil {
			return errors.Wrap(err, "failed to release push token")
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "installation_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token", "platform", "last_seen_at"}),
		}).Create(row).Error; err != nil {
			if isNotNullConstraintViolation(err) {
				return domainerrors.NewValidationError("device", "missing required device information")
			}

			return domainerrors.NewDatabaseExecuteError(err, "failed to save device")
		}

		return tx.
			Where("user_id = ? AND installation_id = ?", row.UserID, row.InstallationID).
			Take(&stored).Error
	})
	if err != nil {
		return errors.WithStack(err)
	}

	device.ID = stored.ID
	device.CreatedAt = stored.CreatedAt

	return nil
}

func (repo *deviceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Device, error) {
	var rows []*model.DeviceModel
	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_seen_at DESC").
		Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list devices")
	}

	devices := make([]*entity.Device, 0, len(rows))
	for _, row := range rows {
		devices = append(devices, &entity.Device{
			ID:             row.ID,
			UserID:         row.UserID,
			InstallationID: row.InstallationID,
			Token:          row.Token,
			Platform:       entity.DevicePlatform(row.Platform),
			LastSeenAt:     row.LastSeenAt,
			CreatedAt:      row.CreatedAt,
		})
	}

	return devices, nil
}

func (repo *deviceRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.DeviceModel{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete device")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrDeviceNotFound
	}

	return nil
}

func (repo *deviceRepository) PruneTokens(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}

	result := repo.db.WithContext(ctx).Where("token IN ?", tokens).Delete(&model.DeviceModel{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to prune push tokens")
	}

	return result.RowsAffected, nil
}
