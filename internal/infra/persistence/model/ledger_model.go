package model

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEntryModel mirrors the append-only 'credit_ledger_entries' table.
type LedgerEntryModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null;index:idx_ledger_user_created,priority:1"`
	Amount        int64      `gorm:"not null"`
	Kind          string     `gorm:"type:varchar(40);not null"`
	Reason        string     `gorm:"type:varchar(255);not null"`
	BalanceBefore int64      `gorm:"not null"`
	BalanceAfter  int64      `gorm:"not null;check:balance_after >= 0"`
	OrderID       *uuid.UUID `gorm:"type:uuid;index"`
	ItemID        *uuid.UUID `gorm:"type:uuid"`
	CreatedAt     time.Time  `gorm:"index:idx_ledger_user_created,priority:2"`
}

// TableName explicitly sets the table name for GORM.
func (LedgerEntryModel) TableName() string {
	return "credit_ledger_entries"
}
