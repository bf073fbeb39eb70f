package model

import (
	"time"

	"github.com/google/uuid"
)

// CartItemModel mirrors the 'cart_items' table. The composite key makes adding idempotent.
type CartItemModel struct {
	UserID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	ItemID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	AddedAt time.Time `gorm:"not null"`

	Item *ItemModel `gorm:"foreignKey:ItemID;references:ID"`
}

// TableName explicitly sets the table name for GORM.
func (CartItemModel) TableName() string {
	return "cart_items"
}
