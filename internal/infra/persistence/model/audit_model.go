package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLogModel mirrors the append-only 'admin_audit_logs' table.
type AuditLogModel struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	AdminID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_audit_admin_created,priority:1"`
	Action     string         `gorm:"type:varchar(32);not null"`
	TargetType string         `gorm:"type:varchar(16);not null;index:idx_audit_target,priority:1"`
	TargetID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_audit_target,priority:2"`
	Before     datatypes.JSON `gorm:"type:json"`
	After      datatypes.JSON `gorm:"type:json"`
	Reason     string         `gorm:"type:text"`
	IP         string         `gorm:"type:varchar(64)"`
	CreatedAt  time.Time      `gorm:"index:idx_audit_admin_created,priority:2"`
}

// TableName explicitly sets the table name for GORM.
func (AuditLogModel) TableName() string {
	return "admin_audit_logs"
}
