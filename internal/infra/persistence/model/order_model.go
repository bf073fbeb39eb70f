package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderModel mirrors the 'orders' table.
type OrderModel struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	BuyerID            uuid.UUID `gorm:"type:uuid;not null;index"`
	Total              int64     `gorm:"not null;check:total >= 0"`
	DeliveryMethod     string    `gorm:"type:varchar(16);not null"`
	DeliveryAddress    string    `gorm:"type:varchar(300)"`
	PickupStation      string    `gorm:"type:varchar(16)"`
	Status             string    `gorm:"type:varchar(16);not null;index"`
	CancellationReason string    `gorm:"type:text"`
	CheckoutToken      string    `gorm:"type:varchar(64)"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ShippedAt          *time.Time
	DeliveredAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time

	Items []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel mirrors the 'order_items' table: a snapshot of the item at purchase time.
type OrderItemModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemNumber string    `gorm:"type:varchar(32);not null"`
	Name       string    `gorm:"type:varchar(100);not null"`
	Value      int64     `gorm:"not null"`
	Condition  string    `gorm:"type:varchar(16);not null"`
	Category   string    `gorm:"type:varchar(32);not null"`
	Quantity   int       `gorm:"not null;check:quantity > 0"`
}

// TableName explicitly sets the table name for GORM.
func (OrderItemModel) TableName() string {
	return "order_items"
}
