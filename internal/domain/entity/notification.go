// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind identifies what happened. Email preferences are per kind.
type NotificationKind string

const (
	NotificationOrderPlaced   NotificationKind = "order_placed"
	NotificationOrderStatus   NotificationKind = "order_status"
	NotificationItemApproved  NotificationKind = "item_approved"
	NotificationItemRejected  NotificationKind = "item_rejected"
	NotificationLevelUp       NotificationKind = "level_up"
	NotificationWishlistMatch NotificationKind = "wishlist_match"
	NotificationReferralBonus NotificationKind = "referral_bonus"
	NotificationCreditGrant   NotificationKind = "credit_grant"
)

// IsValid checks if the NotificationKind is a valid value.
func (k NotificationKind) IsValid() bool {
	switch k {
	case NotificationOrderPlaced, NotificationOrderStatus, NotificationItemApproved,
		NotificationItemRejected, NotificationLevelUp, NotificationWishlistMatch,
		NotificationReferralBonus, NotificationCreditGrant:
		return true
	default:
		return false
	}
}

// NotificationCategory groups kinds for display.
type NotificationCategory string

const (
	NotificationCategoryOrder        NotificationCategory = "order"
	NotificationCategoryItem         NotificationCategory = "item"
	NotificationCategoryAccount      NotificationCategory = "account"
	NotificationCategoryWishlist     NotificationCategory = "wishlist"
	NotificationCategoryGamification NotificationCategory = "gamification"
)

// NotificationPriority orders notifications in clients.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
)

// Notification is an in-app message for a user.
type Notification struct {
	ID        uuid.UUID            `json:"id"`
	UserID    uuid.UUID            `json:"user_id"`
	Kind      NotificationKind     `json:"kind"`
	Category  NotificationCategory `json:"category"`
	Priority  NotificationPriority `json:"priority"`
	Message   string               `json:"message"`
	Payload   map[string]any       `json:"payload,omitempty"`
	Read      bool                 `json:"read"`
	EmailSent bool                 `json:"email_sent"`
	ReadAt    *time.Time           `json:"read_at,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// NotificationPreference overrides the default email opt-in for one kind.
type NotificationPreference struct {
	UserID       uuid.UUID        `json:"user_id"`
	Kind         NotificationKind `json:"kind"`
	EmailEnabled bool             `json:"email_enabled"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
