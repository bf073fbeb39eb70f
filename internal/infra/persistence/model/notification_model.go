package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationModel mirrors the 'notifications' table.
type NotificationModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_notifications_user_read_created,priority:1"`
	Kind      string         `gorm:"type:varchar(32);not null"`
	Category  string         `gorm:"type:varchar(32);not null"`
	Priority  string         `gorm:"type:varchar(16);not null"`
	Message   string         `gorm:"type:text;not null"`
	Payload   datatypes.JSON `gorm:"type:json"`
	IsRead    bool           `gorm:"not null;index:idx_notifications_user_read_created,priority:2"`
	EmailSent bool           `gorm:"not null"`
	ReadAt    *time.Time
	CreatedAt time.Time `gorm:"index:idx_notifications_user_read_created,priority:3"`
}

// TableName explicitly sets the table name for GORM.
func (NotificationModel) TableName() string {
	return "notifications"
}

// NotificationPreferenceModel mirrors the 'notification_preferences' table.
type NotificationPreferenceModel struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind         string    `gorm:"type:varchar(32);primaryKey"`
	EmailEnabled bool      `gorm:"not null"`
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (NotificationPreferenceModel) TableName() string {
	return "notification_preferences"
}
