package entity

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one item in a user's cart. A user's cart is the set of their cart items.
type CartItem struct {
	UserID  uuid.UUID
	ItemID  uuid.UUID
	AddedAt time.Time
	Item    *Item
}

// Cart is the read model returned to buyers. Unavailable lists rows whose item
// was sold or withdrawn after it was added; checkout fails until they are removed.
type Cart struct {
	UserID      uuid.UUID
	Items       []*CartItem
	Total       int64
	Unavailable []uuid.UUID
}
