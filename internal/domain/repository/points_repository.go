package repository

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// PointsRepository records trading points events.
type PointsRepository interface {
	// Record inserts a points event.
	Record(ctx context.Context, event *entity.PointsEvent) error

	// ListByUser returns a user's points events newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.PointsEvent, error)
}
