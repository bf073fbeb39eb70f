package model

import (
	"time"

	"github.com/google/uuid"
)

// ReferralModel mirrors the 'referrals' table. A user is referred at most once.
type ReferralModel struct {
	ID                        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReferrerID                uuid.UUID `gorm:"type:uuid;not null;index;check:referrer_id <> referred_id"`
	ReferredID                uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	SignupBonusAwarded        bool      `gorm:"not null"`
	SignupBonusAt             *time.Time
	FirstUploadBonusAwarded   bool `gorm:"not null"`
	FirstUploadBonusAt        *time.Time
	FirstPurchaseBonusAwarded bool `gorm:"not null"`
	FirstPurchaseBonusAt      *time.Time
	CreatedAt                 time.Time
}

// TableName explicitly sets the table name for GORM.
func (ReferralModel) TableName() string {
	return "referrals"
}
