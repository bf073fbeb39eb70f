package entity

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionKind selects how a wishlist entry is matched.
type SubscriptionKind string

const (
	SubscriptionKindItemName SubscriptionKind = "item_name"
	SubscriptionKindCategory SubscriptionKind = "category"
)

// ItemNameMatchThreshold is the minimum similarity ratio for an item_name match.
const ItemNameMatchThreshold = 0.70

// WishlistSubscription is a user's standing interest in an item name or category.
type WishlistSubscription struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Kind              SubscriptionKind
	Target            string // Item name or category.
	Active            bool
	NotifyEmail       bool
	NotifyApp         bool
	NotificationCount int
	LastNotifiedAt    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// WishlistMatch links a subscription to an item at most once.
type WishlistMatch struct {
	ID             uuid.UUID
	SubscriptionID uuid.UUID
	ItemID         uuid.UUID
	AppSent        bool
	EmailSent      bool
	NotificationID *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PendingApp reports whether the in-app channel is wanted but not yet delivered.
func (m *WishlistMatch) PendingApp(sub *WishlistSubscription) bool {
	return sub.NotifyApp && !m.AppSent
}

// PendingEmail reports whether the email channel is wanted but not yet scheduled.
func (m *WishlistMatch) PendingEmail(sub *WishlistSubscription) bool {
	return sub.NotifyEmail && !m.EmailSent
}
