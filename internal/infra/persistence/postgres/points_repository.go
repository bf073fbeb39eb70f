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
)

// pointsRepository implements the repository.PointsRepository interface.
type pointsRepository struct {
	db *gorm.DB
}

// NewPointsRepository is the constructor for pointsRepository.
func NewPointsRepository(db *gorm.DB) repository.PointsRepository {
	return &pointsRepository{db: db}
}

// Record inserts a points event.
func (repo *pointsRepository) Record(ctx context.Context, event *entity.PointsEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	eventM := &model.PointsEventModel{
		ID:        event.ID,
		UserID:    event.UserID,
		Delta:     event.Delta,
		Reason:    event.Reason,
		CreatedAt: event.CreatedAt,
	}
	if err := repo.db.WithContext(ctx).Create(eventM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to record points event")
	}
	event.CreatedAt = eventM.CreatedAt

	return nil
}

// ListByUser returns a user's points events newest first.
func (repo *pointsRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.PointsEvent, error) {
	var eventModels []*model.PointsEventModel
	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(pageLimit(limit)).
		Find(&eventModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list points events")
	}

	events := make([]*entity.PointsEvent, 0, len(eventModels))
	for _, e := range eventModels {
		events = append(events, &entity.PointsEvent{
			ID:        e.ID,
			UserID:    e.UserID,
			Delta:     e.Delta,
			Reason:    e.Reason,
			CreatedAt: e.CreatedAt,
		})
	}

	return events, nil
}
