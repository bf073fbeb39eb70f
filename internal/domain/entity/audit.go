package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction names an administrative action.
type AuditAction string

const (
	AuditActionApproveItem  AuditAction = "approve_item"
	AuditActionRejectItem   AuditAction = "reject_item"
	AuditActionOrderStatus  AuditAction = "order_status"
	AuditActionCancelOrder  AuditAction = "cancel_order"
	AuditActionGrantCredits AuditAction = "grant_credits"
	AuditActionBanUser      AuditAction = "ban_user"
	AuditActionUnbanUser    AuditAction = "unban_user"
)

// Audit target types.
const (
	AuditTargetItem  = "item"
	AuditTargetOrder = "order"
	AuditTargetUser  = "user"
)

// AuditEntry is an append-only record of an administrative action.
type AuditEntry struct {
	ID         uuid.UUID      `json:"id"`
	AdminID    uuid.UUID      `json:"admin_id"`
	Action     AuditAction    `json:"action"`
	TargetType string         `json:"target_type"`
	TargetID   uuid.UUID      `json:"target_id"`
	Before     map[string]any `json:"before,omitempty"`
	After      map[string]any `json:"after,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	IP         string         `json:"ip,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
