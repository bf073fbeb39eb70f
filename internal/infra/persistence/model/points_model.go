package model

import (
	"time"

	"github.com/google/uuid"
)

// PointsEventModel mirrors the 'trading_points_events' table.
type PointsEventModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Delta     int64     `gorm:"not null;check:delta >= 0"`
	Reason    string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (PointsEventModel) TableName() string {
	return "trading_points_events"
}
