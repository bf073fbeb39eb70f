package handler

import (
	"time"

	"tradepost/internal/domain/entity"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
)

// UserView is the public shape of an account. Verifiers and checkout state stay server side.
type UserView struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email,omitempty"`
	Roles         []string    `json:"roles"`
	CreditBalance int64       `json:"credit_balance"`
	TradingPoints int64       `json:"trading_points"`
	Level         int         `json:"level"`
	Tier          entity.Tier `json:"tier"`
	Phone         string      `json:"phone,omitempty"`
	Address       string      `json:"address,omitempty"`
	City          string      `json:"city,omitempty"`
	State         string      `json:"state,omitempty"`
	ReferralCode  string      `json:"referral_code"`
	Banned        bool        `json:"banned"`
	BanReason     string      `json:"ban_reason,omitempty"`
}

func newUserView(u *entity.User) *UserView {
	return &UserView{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Roles:         u.Roles.ToStrings(),
		CreditBalance: u.CreditBalance,
		TradingPoints: u.TradingPoints,
		Level:         u.Level,
		Tier:          u.Tier(),
		Phone:         u.Phone,
		Address:       u.Address,
		City:          u.City,
		State:         u.State,
		ReferralCode:  u.ReferralCode,
		Banned:        u.Banned,
		BanReason:     u.BanReason,
	}
}

// ProfileView adds the progression fields to the account.
type ProfileView struct {
	*UserView
	NextLevelAt     *int64 `json:"next_level_at,omitempty"`
	ProfileComplete bool   `json:"profile_complete"`
	ReferredCount   int64  `json:"referred_count"`
}

func newProfileView(p *usecase.Profile) *ProfileView {
	return &ProfileView{
		UserView:        newUserView(p.User),
		NextLevelAt:     p.NextLevelAt,
		ProfileComplete: p.User.ProfileComplete(),
		ReferredCount:   p.ReferredCount,
	}
}

// ImageView is one stored item photo.
type ImageView struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ByteSize    int64  `json:"byte_size"`
}

// ItemView is the marketplace shape of an item.
type ItemView struct {
	ID              uuid.UUID        `json:"id"`
	ItemNumber      string           `json:"item_number"`
	UploaderID      uuid.UUID        `json:"uploader_id"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Condition       entity.Condition `json:"condition"`
	Category        entity.Category  `json:"category"`
	AppraisedValue  int64            `json:"appraised_value,omitempty"`
	State           entity.ItemState `json:"state"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	Images          []*ImageView     `json:"images"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

func newItemView(it *entity.Item) *ItemView {
	view := &ItemView{
		ID:              it.ID,
		ItemNumber:      it.ItemNumber,
		UploaderID:      it.UploaderID,
		Name:            it.Name,
		Description:     it.Description,
		Condition:       it.Condition,
		Category:        it.Category,
		AppraisedValue:  it.AppraisedValue,
		State:           it.State,
		RejectionReason: it.RejectionReason,
		Images:          make([]*ImageView, 0, len(it.Images)),
		ApprovedAt:      it.ApprovedAt,
		CreatedAt:       it.CreatedAt,
	}
	for _, img := range it.Images {
		view.Images = append(view.Images, &ImageView{
			URL:         img.URL,
			ContentType: img.ContentType,
			Width:       img.Width,
			Height:      img.Height,
			ByteSize:    img.ByteSize,
		})
	}

	return view
}

func newItemViews(items []*entity.Item) []*ItemView {
	views := make([]*ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, newItemView(it))
	}

	return views
}

// CartView lists the cart rows with their current value.
type CartView struct {
	Items       []*ItemView `json:"items"`
	Total       int64       `json:"total"`
	Unavailable []uuid.UUID `json:"unavailable_item_ids"`
}

func newCartView(cart *entity.Cart) *CartView {
	view := &CartView{
		Items:       make([]*ItemView, 0, len(cart.Items)),
		Total:       cart.Total,
		Unavailable: make([]uuid.UUID, 0, len(cart.Unavailable)),
	}
	view.Unavailable = append(view.Unavailable, cart.Unavailable...)
	for _, row := range cart.Items {
		if row.Item != nil {
			view.Items = append(view.Items, newItemView(row.Item))
		}
	}

	return view
}

// OrderItemView is a priced line of an order.
type OrderItemView struct {
	ItemID     uuid.UUID        `json:"item_id"`
	ItemNumber string           `json:"item_number"`
	Name       string           `json:"name"`
	Value      int64            `json:"value"`
	Condition  entity.Condition `json:"condition"`
	Category   entity.Category  `json:"category"`
}

// OrderView is the buyer's view of an order.
type OrderView struct {
	ID                 uuid.UUID             `json:"id"`
	Total              int64                 `json:"total"`
	Status             entity.OrderStatus    `json:"status"`
	DeliveryMethod     entity.DeliveryMethod `json:"delivery_method"`
	Address            string                `json:"address,omitempty"`
	Station            string                `json:"station,omitempty"`
	CancellationReason string                `json:"cancellation_reason,omitempty"`
	Items              []*OrderItemView      `json:"items"`
	CreatedAt          time.Time             `json:"created_at"`
	ShippedAt          *time.Time            `json:"shipped_at,omitempty"`
	DeliveredAt        *time.Time            `json:"delivered_at,omitempty"`
	CompletedAt        *time.Time            `json:"completed_at,omitempty"`
	CancelledAt        *time.Time            `json:"cancelled_at,omitempty"`
}

func newOrderView(o *entity.Order) *OrderView {
	view := &OrderView{
		ID:                 o.ID,
		Total:              o.Total,
		Status:             o.Status,
		DeliveryMethod:     o.Delivery.Method,
		Address:            o.Delivery.Address,
		Station:            o.Delivery.Station,
		CancellationReason: o.CancellationReason,
		Items:              make([]*OrderItemView, 0, len(o.Items)),
		CreatedAt:          o.CreatedAt,
		ShippedAt:          o.ShippedAt,
		DeliveredAt:        o.DeliveredAt,
		CompletedAt:        o.CompletedAt,
		CancelledAt:        o.CancelledAt,
	}
	for _, line := range o.Items {
		view.Items = append(view.Items, &OrderItemView{
			ItemID:     line.ItemID,
			ItemNumber: line.ItemNumber,
			Name:       line.Name,
			Value:      line.Value,
			Condition:  line.Condition,
			Category:   line.Category,
		})
	}

	return view
}

// LedgerEntryView is one balance change.
type LedgerEntryView struct {
	ID            uuid.UUID         `json:"id"`
	Amount        int64             `json:"amount"`
	Kind          entity.LedgerKind `json:"kind"`
	Reason        string            `json:"reason,omitempty"`
	BalanceBefore int64             `json:"balance_before"`
	BalanceAfter  int64             `json:"balance_after"`
	OrderID       *uuid.UUID        `json:"order_id,omitempty"`
	ItemID        *uuid.UUID        `json:"item_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

func newLedgerEntryView(e *entity.LedgerEntry) *LedgerEntryView {
	return &LedgerEntryView{
		ID:            e.ID,
		Amount:        e.Amount,
		Kind:          e.Kind,
		Reason:        e.Reason,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		OrderID:       e.OrderID,
		ItemID:        e.ItemID,
		CreatedAt:     e.CreatedAt,
	}
}

// WishlistView is one wishlist entry.
type WishlistView struct {
	ID                uuid.UUID               `json:"id"`
	Kind              entity.SubscriptionKind `json:"kind"`
	Target            string                  `json:"target"`
	Active            bool                    `json:"active"`
	NotifyViaEmail    bool                    `json:"notify_via_email"`
	NotifyViaApp      bool                    `json:"notify_via_app"`
	NotificationCount int                     `json:"notification_count"`
	LastNotifiedAt    *time.Time              `json:"last_notified_at,omitempty"`
	CreatedAt         time.Time               `json:"created_at"`
}

func newWishlistView(s *entity.WishlistSubscription) *WishlistView {
	return &WishlistView{
		ID:                s.ID,
		Kind:              s.Kind,
		Target:            s.Target,
		Active:            s.Active,
		NotifyViaEmail:    s.NotifyEmail,
		NotifyViaApp:      s.NotifyApp,
		NotificationCount: s.NotificationCount,
		LastNotifiedAt:    s.LastNotifiedAt,
		CreatedAt:         s.CreatedAt,
	}
}
