package usecase

import (
	"context"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"

	"github.com/google/uuid"
)

// ReferralUsecase pays one-time bonuses to referrers.
type ReferralUsecase interface {
	// MaybeAward pays the milestone bonus to the referred user's referrer, once.
	// It runs inside the caller's transaction; awarded is false when there was nothing to pay.
	MaybeAward(ctx context.Context, repos repository.RepositoryFactory, referredID uuid.UUID, milestone entity.ReferralMilestone) (awarded bool, err error)

	// Summary returns the caller's code, signup link and referral count.
	Summary(ctx context.Context, userID uuid.UUID) (*entity.ReferralSummary, error)

	// QRCode renders the caller's signup link as a PNG.
	QRCode(ctx context.Context, userID uuid.UUID) ([]byte, error)
}
