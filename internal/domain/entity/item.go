package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domainerrors "tradepost/internal/domain/errors"
)

// ItemState is the moderation and sale state of an item.
type ItemState string

const (
	ItemStatePending   ItemState = "pending"
	ItemStateApproved  ItemState = "approved"
	ItemStateRejected  ItemState = "rejected"
	ItemStateSold      ItemState = "sold"
	ItemStateWithdrawn ItemState = "withdrawn"
)

// Condition is the uploader's declared wear of an item.
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

// IsValid checks if the Condition is a valid value.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	default:
		return false
	}
}

// Category groups items for browsing and wishlist matching.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryBooks       Category = "books"
	CategoryHome        Category = "home"
	CategoryToys        Category = "toys"
	CategorySports      Category = "sports"
	CategoryBeauty      Category = "beauty"
	CategoryOther       Category = "other"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryElectronics, CategoryClothing, CategoryBooks, CategoryHome,
	CategoryToys, CategorySports, CategoryBeauty, CategoryOther,
}

// ParseCategory resolves a category case-insensitively.
func ParseCategory(s string) (Category, bool) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, c := range AllCategories {
		if string(c) == needle {
			return c, true
		}
	}

	return "", false
}

// Field limits for item submission.
const (
	MinItemImages      = 1
	MaxItemImages      = 6
	MinItemNameLen     = 3
	MaxItemNameLen     = 100
	MinItemDescLen     = 20
	MaxItemDescLen     = 2000
	MaxRejectReasonLen = 500
)

// Item is a listing submitted by its uploader. OwnerID changes on sale.
type Item struct {
	ID              uuid.UUID
	ItemNumber      string // Human readable, e.g. TP-20260101-ABC123.
	UploaderID      uuid.UUID
	OwnerID         uuid.UUID
	Name            string
	Description     string
	Condition       Condition
	Category        Category
	AppraisedValue  int64 // Credits, set once on approval.
	State           ItemState
	RejectionReason string
	IsVisible       bool
	Images          []*ItemImage
	ApprovedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ItemImage is a stored, validated picture of an item.
type ItemImage struct {
	ID          uuid.UUID
	ItemID      uuid.UUID
	StorageKey  string // Key inside the blob bucket.
	URL         string // Public URL served to clients.
	ContentType string
	Width       int
	Height      int
	ByteSize    int64
	Checksum    string // Hex sha256 of the stored bytes.
	Ordinal     int
	CreatedAt   time.Time
}

// Listed reports whether buyers can see and buy the item.
func (i *Item) Listed() bool {
	return i.State == ItemStateApproved && i.OwnerID == i.UploaderID
}

func (i *Item) syncVisibility() {
	i.IsVisible = i.Listed()
}

func (i *Item) transitionError(action string) error {
	return domainerrors.ErrInvalidStateTransition.WithDetails(
		fmt.Sprintf("cannot %s item %s in state %s", action, i.ID, i.State),
	)
}

// Approve sets the appraised value and lists the item.
func (i *Item) Approve(value int64, now time.Time) error {
	if i.State != ItemStatePending {
		return i.transitionError("approve")
	}
	if value <= 0 {
		return domainerrors.ErrInvalidAppraisal
	}

	i.State = ItemStateApproved
	i.AppraisedValue = value
	i.OwnerID = i.UploaderID
	i.ApprovedAt = &now
	i.syncVisibility()

	return nil
}

// Reject closes a pending item for good.
func (i *Item) Reject(reason string) error {
	if i.State != ItemStatePending {
		return i.transitionError("reject")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" || len(reason) > MaxRejectReasonLen {
		return domainerrors.NewValidationError("reason", "must be 1..500 characters")
	}

	i.State = ItemStateRejected
	i.RejectionReason = reason
	i.syncVisibility()

	return nil
}

// TransferTo hands a listed item to its buyer.
func (i *Item) TransferTo(buyerID uuid.UUID) error {
	if !i.Listed() {
		return domainerrors.NewItemNotAvailableError(i.ID)
	}
	if buyerID == i.UploaderID {
		return domainerrors.ErrOwnItem
	}

	i.State = ItemStateSold
	i.OwnerID = buyerID
	i.syncVisibility()

	return nil
}

// Withdraw removes a listed item from the marketplace at the uploader's request.
func (i *Item) Withdraw() error {
	if !i.Listed() {
		return i.transitionError("withdraw")
	}

	i.State = ItemStateWithdrawn
	i.syncVisibility()

	return nil
}

// Relist returns a sold item to its uploader after the order was cancelled.
// The appraised value is kept.
func (i *Item) Relist() error {
	if i.State != ItemStateSold {
		return i.transitionError("relist")
	}

	i.State = ItemStateApproved
	i.OwnerID = i.UploaderID
	i.syncVisibility()

	return nil
}

// Snapshot captures the moderation relevant fields for the audit log.
func (i *Item) Snapshot() map[string]any {
	return map[string]any{
		"state":            string(i.State),
		"owner_id":         i.OwnerID.String(),
		"appraised_value":  i.AppraisedValue,
		"rejection_reason": i.RejectionReason,
		"is_visible":       i.IsVisible,
	}
}
