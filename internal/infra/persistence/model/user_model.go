// Package model holds the GORM persistence structs, one per table.
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. IDs are generated by the application.
// Email is NULL once the account is anonymised, which keeps the unique index satisfiable.
type UserModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name                string    `gorm:"type:varchar(100);not null"`
	Email               *string   `gorm:"type:varchar(255);uniqueIndex"`
	PasswordHash        string    `gorm:"type:varchar(255)"`
	Roles               string    `gorm:"type:varchar(100);not null"`
	CreditBalance       int64     `gorm:"not null;check:credit_balance >= 0"`
	TradingPoints       int64     `gorm:"not null;check:trading_points >= 0"`
	Level               int       `gorm:"not null"`
	Phone               string    `gorm:"type:varchar(32)"`
	Address             string    `gorm:"type:varchar(300)"`
	City                string    `gorm:"type:varchar(100)"`
	State               string    `gorm:"type:varchar(100)"`
	ReferralCode        string    `gorm:"type:varchar(16);not null;uniqueIndex"`
	Banned              bool      `gorm:"not null"`
	BanReason           string    `gorm:"type:text"`
	Appeal              string    `gorm:"type:text"`
	HasApprovedUpload   bool      `gorm:"not null"`
	HasPurchased        bool      `gorm:"not null"`
	LastCheckoutToken   string    `gorm:"type:varchar(64)"`
	LastCheckoutAt      *time.Time
	LastCheckoutOrderID *uuid.UUID `gorm:"type:uuid"`
	AnonymisedAt        *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
