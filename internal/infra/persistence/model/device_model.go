package model

import (
	"time"

	"github.com/google/uuid"
)

// DeviceModel is a push registration. Rows are hard deleted when the provider rejects the token.
type DeviceModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_devices_user_installation,priority:1"`
	InstallationID string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_devices_user_installation,priority:2"`
	Token          string    `gorm:"type:varchar(512);not null;index"`
	Platform       string    `gorm:"type:varchar(16);not null"`
	LastSeenAt     time.Time `gorm:"not null"`
	CreatedAt      time.Time
}

func (DeviceModel) TableName() string {
	return "devices"
}
