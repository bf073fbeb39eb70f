package repository

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// ReferralRepository persists referral links.
type ReferralRepository interface {
	// Create inserts a referral link. A second link for the same referred user returns domainerrors.ErrConflict.
	Create(ctx context.Context, referral *entity.Referral) error

	// FindByReferredForUpdate loads and locks the link of a referred user, or returns nil when the user was not referred.
	FindByReferredForUpdate(ctx context.Context, referredID uuid.UUID) (*entity.Referral, error)

	// Update writes the bonus flags of a referral.
	Update(ctx context.Context, referral *entity.Referral) error

	// CountByReferrer returns how many users signed up with the referrer's code.
	CountByReferrer(ctx context.Context, referrerID uuid.UUID) (int64, error)
}
