package model

import (
	"time"

	"github.com/google/uuid"
)

// ItemModel mirrors the 'items' table.
// The check constraints keep visibility, appraisal and sale ownership consistent with the state column.
type ItemModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	ItemNumber      string    `gorm:"type:varchar(32);not null;uniqueIndex"`
	UploaderID      uuid.UUID `gorm:"type:uuid;not null;index"`
	OwnerID         uuid.UUID `gorm:"type:uuid;not null;index:idx_items_owner_state,priority:1;check:state <> 'sold' OR owner_id <> uploader_id"`
	Name            string    `gorm:"type:varchar(100);not null"`
	Description     string    `gorm:"type:text;not null"`
	Condition       string    `gorm:"type:varchar(16);not null"`
	Category        string    `gorm:"type:varchar(32);not null;index:idx_items_category_state,priority:1"`
	AppraisedValue  int64     `gorm:"not null;check:state <> 'approved' OR appraised_value > 0"`
	State           string    `gorm:"type:varchar(16);not null;index:idx_items_owner_state,priority:2;index:idx_items_category_state,priority:2"`
	RejectionReason string    `gorm:"type:text"`
	IsVisible       bool      `gorm:"not null;check:is_visible = (state = 'approved' AND owner_id = uploader_id)"`
	ApprovedAt      *time.Time
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time

	Images []ItemImageModel `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (ItemModel) TableName() string {
	return "items"
}

// ItemImageModel mirrors the 'item_images' table. Rows are deleted with their item.
type ItemImageModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ItemID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_item_images_item_ordinal,priority:1"`
	Ordinal     int       `gorm:"not null;uniqueIndex:idx_item_images_item_ordinal,priority:2"`
	StorageKey  string    `gorm:"type:varchar(512);not null"`
	URL         string    `gorm:"type:varchar(1024);not null"`
	ContentType string    `gorm:"type:varchar(32);not null"`
	Width       int       `gorm:"not null"`
	Height      int       `gorm:"not null"`
	ByteSize    int64     `gorm:"not null"`
	Checksum    string    `gorm:"type:varchar(64);not null"`
	CreatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (ItemImageModel) TableName() string {
	return "item_images"
}
