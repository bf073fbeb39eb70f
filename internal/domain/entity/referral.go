package entity

import (
	"time"

	"github.com/google/uuid"
)

// ReferralBonusCredits is paid to the referrer for each milestone.
const ReferralBonusCredits = 100

// ReferralMilestone is a one-time event of the referred user that pays the referrer.
type ReferralMilestone string

const (
	ReferralMilestoneSignup        ReferralMilestone = "signup"
	ReferralMilestoneFirstUpload   ReferralMilestone = "first_upload"
	ReferralMilestoneFirstPurchase ReferralMilestone = "first_purchase"
)

// LedgerKind returns the ledger kind used to pay the milestone.
func (m ReferralMilestone) LedgerKind() LedgerKind {
	switch m {
	case ReferralMilestoneSignup:
		return LedgerKindReferralSignupBonus
	case ReferralMilestoneFirstUpload:
		return LedgerKindReferralFirstUploadBonus
	default:
		return LedgerKindReferralFirstPurchaseBonus
	}
}

// Referral links a referred user to the user whose code they signed up with.
type Referral struct {
	ID                        uuid.UUID
	ReferrerID                uuid.UUID
	ReferredID                uuid.UUID // Unique: a user is referred at most once.
	SignupBonusAwarded        bool
	SignupBonusAt             *time.Time
	FirstUploadBonusAwarded   bool
	FirstUploadBonusAt        *time.Time
	FirstPurchaseBonusAwarded bool
	FirstPurchaseBonusAt      *time.Time
	CreatedAt                 time.Time
}

// Awarded reports whether the milestone was already paid.
func (r *Referral) Awarded(m ReferralMilestone) bool {
	switch m {
	case ReferralMilestoneSignup:
		return r.SignupBonusAwarded
	case ReferralMilestoneFirstUpload:
		return r.FirstUploadBonusAwarded
	default:
		return r.FirstPurchaseBonusAwarded
	}
}

// MarkAwarded flags the milestone as paid.
func (r *Referral) MarkAwarded(m ReferralMilestone, now time.Time) {
	switch m {
	case ReferralMilestoneSignup:
		r.SignupBonusAwarded = true
		r.SignupBonusAt = &now
	case ReferralMilestoneFirstUpload:
		r.FirstUploadBonusAwarded = true
		r.FirstUploadBonusAt = &now
	default:
		r.FirstPurchaseBonusAwarded = true
		r.FirstPurchaseBonusAt = &now
	}
}

// ReferralSummary is what a user sees about their own referrals.
type ReferralSummary struct {
	Code          string `json:"code"`
	Link          string `json:"link"`
	ReferredCount int64  `json:"referred_count"`
}
