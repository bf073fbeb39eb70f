package entity

import (
	"time"

	"github.com/google/uuid"
)

// LedgerKind classifies a credit ledger entry.
type LedgerKind string

const (
	LedgerKindPurchaseDebit              LedgerKind = "purchase_debit"
	LedgerKindAdminGrant                 LedgerKind = "admin_grant"
	LedgerKindRefund                     LedgerKind = "refund"
	LedgerKindReferralSignupBonus        LedgerKind = "referral_signup_bonus"
	LedgerKindReferralFirstPurchaseBonus LedgerKind = "referral_first_purchase_bonus"
	LedgerKindReferralFirstUploadBonus   LedgerKind = "referral_first_upload_bonus"
	LedgerKindGamificationLevelUp        LedgerKind = "gamification_levelup"
	LedgerKindApprovalReward             LedgerKind = "approval_reward"
)

// LedgerEntry is an append-only change to a user's credit balance.
// Amount is signed: debits are negative.
type LedgerEntry struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Amount        int64
	Kind          LedgerKind
	Reason        string
	BalanceBefore int64
	BalanceAfter  int64
	OrderID       *uuid.UUID
	ItemID        *uuid.UUID
	CreatedAt     time.Time
}

// LedgerLinks optionally ties an entry to the order or item that caused it.
type LedgerLinks struct {
	OrderID *uuid.UUID
	ItemID  *uuid.UUID
}

// BalanceDiscrepancy is a user whose materialised balance disagrees with the ledger.
type BalanceDiscrepancy struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"`
	LedgerSum int64     `json:"ledger_sum"`
}
