package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemType string

const (
	ItemProduct ItemType = "product"
	ItemBundle  ItemType = "bundle"
)

type Cart struct {
	ID        uuid.UUID  `gorm:"primaryKey"                  json:"id"`
	UserID    uuid.UUID  `gorm:"uniqueIndex;not null"        json:"user_id"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CartItem references exactly one of ProductID or BundleID, chosen by ItemType.
type CartItem struct {
	ID        uuid.UUID `gorm:"primaryKey"                                json:"id"`
	CartID    uuid.UUID `gorm:"uniqueIndex:idx_cart_product;uniqueIndex:idx_cart_bundle;not null" json:"cart_id"`
	ItemType  ItemType  `gorm:"size:16;not null"                          json:"item_type"`
	ProductID *uint     `gorm:"uniqueIndex:idx_cart_product"              json:"product_id,omitempty"`
	BundleID  *uint     `gorm:"uniqueIndex:idx_cart_bundle"               json:"bundle_id,omitempty"`
	Quantity  int       `gorm:"not null;check:quantity > 0"               json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}
