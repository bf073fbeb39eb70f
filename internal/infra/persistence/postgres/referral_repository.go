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

// referralRepository implements the repository.ReferralRepository interface.
type referralRepository struct {
	db *gorm.DB
}

// NewReferralRepository is the constructor for referralRepository.
func NewReferralRepository(db *gorm.DB) repository.ReferralRepository {
	return &referralRepository{db: db}
}

// Create inserts a referral link.
func (repo *referralRepository) Create(ctx context.Context, referral *entity.Referral) error {
	if referral.ID == uuid.Nil {
		referral.ID = uuid.New()
	}
	referralM := fromReferralDomain(referral)
	if err := repo.db.WithContext(ctx).Create(referralM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WithDetails("user already has a referrer")
		}
		if isCheckConstraintViolation(err) {
			return domainerrors.ErrReferralCodeInvalid.WithDetails("self referral")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create referral")
	}
	referral.CreatedAt = referralM.CreatedAt

	return nil
}

// FindByReferredForUpdate loads and locks the referral of a referred user, or nil when there is none.
func (repo *referralRepository) FindByReferredForUpdate(ctx context.Context, referredID uuid.UUID) (*entity.Referral, error) {
	var referralM model.ReferralModel
	if err := repo.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("referred_id = ?", referredID).
		First(&referralM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "failed to find referral")
	}

	return toReferralDomain(&referralM), nil
}

// Update writes the bonus flags of a referral.
func (repo *referralRepository) Update(ctx context.Context, referral *entity.Referral) error {
	if err := repo.db.WithContext(ctx).
		Model(&model.ReferralModel{}).
		Where("id = ?", referral.ID).
		Updates(map[string]any{
			"signup_bonus_awarded":         referral.SignupBonusAwarded,
			"signup_bonus_at":              referral.SignupBonusAt,
			"first_upload_bonus_awarded":   referral.FirstUploadBonusAwarded,
			"first_upload_bonus_at":        referral.FirstUploadBonusAt,
			"first_purchase_bonus_awarded": referral.FirstPurchaseBonusAwarded,
			"first_purchase_bonus_at":      referral.FirstPurchaseBonusAt,
		}).Error; err != nil {
		return errors.Wrap(err, "failed to update referral")
	}

	return nil
}

// CountByReferrer returns how many users signed up with the referrer's code.
func (repo *referralRepository) CountByReferrer(ctx context.Context, referrerID uuid.UUID) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).
		Model(&model.ReferralModel{}).
		Where("referrer_id = ?", referrerID).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count referrals")
	}

	return count, nil
}

// --- Mapper Functions ---

func toReferralDomain(data *model.ReferralModel) *entity.Referral {
	return &entity.Referral{
		ID:                        data.ID,
		ReferrerID:                data.ReferrerID,
		ReferredID:                data.ReferredID,
		SignupBonusAwarded:        data.SignupBonusAwarded,
		SignupBonusAt:             data.SignupBonusAt,
		FirstUploadBonusAwarded:   data.FirstUploadBonusAwarded,
		FirstUploadBonusAt:        data.FirstUploadBonusAt,
		FirstPurchaseBonusAwarded: data.FirstPurchaseBonusAwarded,
		FirstPurchaseBonusAt:      data.FirstPurchaseBonusAt,
		CreatedAt:                 data.CreatedAt,
	}
}

func fromReferralDomain(data *entity.Referral) *model.ReferralModel {
	return &model.ReferralModel{
		ID:                        data.ID,
		ReferrerID:                data.ReferrerID,
		ReferredID:                data.ReferredID,
		SignupBonusAwarded:        data.SignupBonusAwarded,
		SignupBonusAt:             data.SignupBonusAt,
		FirstUploadBonusAwarded:   data.FirstUploadBonusAwarded,
		FirstUploadBonusAt:        data.FirstUploadBonusAt,
		FirstPurchaseBonusAwarded: data.FirstPurchaseBonusAwarded,
		FirstPurchaseBonusAt:      data.FirstPurchaseBonusAt,
		CreatedAt:                 data.CreatedAt,
	}
}
