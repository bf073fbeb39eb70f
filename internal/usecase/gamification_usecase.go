package usecase

import (
	"context"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
)

// PointsResult reports the effect of a points award.
type PointsResult struct {
	OldLevel int
	NewLevel int
	Points   int64
	Credited int64 // Level-up credits granted.
}

// GamificationUsecase converts activity into points, levels and rewards.
type GamificationUsecase interface {
	// ApplyPoints adds delta to a locked user inside the caller's transaction.
	// Each level crossed grants one credit reward and one notification.
	ApplyPoints(ctx context.Context, repos repository.RepositoryFactory, user *entity.User, delta int64, reason string) (*PointsResult, error)
}
