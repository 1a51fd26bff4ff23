package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StockStatus string

const (
	StockPreOrder            StockStatus = "pre_order"
	StockDiscontinued        StockStatus = "discontinued"
	StockCallForAvailability StockStatus = "call_for_availability"
	StockInStock             StockStatus = "in_stock"
	StockLow                 StockStatus = "low_stock"
	StockOut                 StockStatus = "out_of_stock"
)

const LowStockThreshold = 5

// StockLabel returns the override when set, otherwise a label derived from quantity.
func StockLabel(override *StockStatus, quantity int) StockStatus {
	if override != nil && *override != "" {
		return *override
	}
	switch {
	case quantity <= 0:
		return StockOut
	case quantity <= LowStockThreshold:
		return StockLow
	default:
		return StockInStock
	}
}

type AttributeKind string

const (
	AttrString AttributeKind = "string"
	AttrNumber AttributeKind = "number"
	AttrBool   AttributeKind = "bool"
)

type AttributeDef struct {
	Name     string        `json:"name"`
	Kind     AttributeKind `json:"kind"`
	Required bool          `json:"required"`
}

type ProductType struct {
	ID         uint         `gorm:"primaryKey"                  json:"id"`
	Name       string       `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Attributes AttributeSet `gorm:"type:text"                   json:"attributes"`
}

var ErrInvalidSpecs = errors.New("invalid product specs")

// ValidateSpecs checks that specs only use declared attributes of the right
// kind and that every required attribute is present.
func (pt *ProductType) ValidateSpecs(specs Specs) error {
	declared := make(map[string]AttributeDef, len(pt.Attributes))
	for _, a := range pt.Attributes {
		declared[a.Name] = a
	}
	for name, v := range specs {
		def, ok := declared[name]
		if !ok {
			return fmt.Errorf("%w: attribute %q not declared by type %q", ErrInvalidSpecs, name, pt.Name)
		}
		if !kindMatches(def.Kind, v) {
			return fmt.Errorf("%w: attribute %q must be %s", ErrInvalidSpecs, name, def.Kind)
		}
	}
	for _, a := range pt.Attributes {
		if _, ok := specs[a.Name]; a.Required && !ok {
			return fmt.Errorf("%w: attribute %q is required", ErrInvalidSpecs, a.Name)
		}
	}
	return nil
}

func kindMatches(kind AttributeKind, v any) bool {
	switch kind {
	case AttrString:
		_, ok := v.(string)
		return ok
	case AttrBool:
		_, ok := v.(bool)
		return ok
	case AttrNumber:
		switch v.(type) {
		case float64, float32, int, int32, int64, uint, uint32, uint64:
			return true
		}
	}
	return false
}

type Product struct {
	ID                  uint             `gorm:"primaryKey"                    json:"id"`
	Name                string           `gorm:"size:255;not null"             json:"name"`
	SKU                 string           `gorm:"uniqueIndex;size:64;not null"  json:"sku"`
	Price               decimal.Decimal  `gorm:"type:decimal(12,2);not null"   json:"price"`
	DiscountPercent     *decimal.Decimal `gorm:"type:decimal(5,2)"             json:"discount_percent,omitempty"`
	StockStatusOverride *StockStatus     `gorm:"size:32"                       json:"stock_status_override,omitempty"`
	Active              bool             `gorm:"not null"                      json:"active"`
	ProductTypeID       *uint            `gorm:"index"                         json:"product_type_id,omitempty"`
	ManufacturerID      *uint            `gorm:"index"                         json:"manufacturer_id,omitempty"`
	CategoryID          *uint            `gorm:"index"                         json:"category_id,omitempty"`
	Specs               Specs            `gorm:"type:text"                     json:"specs,omitempty"`
	ProductType         *ProductType     `gorm:"constraint:OnDelete:SET NULL"  json:"-"`
	Inventory           *Inventory       `gorm:"foreignKey:ProductID"          json:"inventory,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", ErrInvalidSpecs)
	}
	if p.DiscountPercent != nil && (p.DiscountPercent.IsNegative() || p.DiscountPercent.GreaterThan(decimal.NewFromInt(100))) {
		return fmt.Errorf("%w: discount_percent must be within [0,100]", ErrInvalidSpecs)
	}
	if p.ProductTypeID == nil {
		if len(p.Specs) > 0 {
			return fmt.Errorf("%w: specs require a product type", ErrInvalidSpecs)
		}
		return nil
	}
	pt := p.ProductType
	if pt == nil || pt.ID != *p.ProductTypeID {
		pt = &ProductType{}
		if err := tx.Session(&gorm.Session{NewDB: true}).First(pt, *p.ProductTypeID).Error; err != nil {
			return fmt.Errorf("load product type %d: %w", *p.ProductTypeID, err)
		}
	}
	return pt.ValidateSpecs(p.Specs)
}

type Inventory struct {
	ProductID uint      `gorm:"primaryKey;autoIncrement:false"      json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity >= 0"        json:"quantity"`
	Reserved  int       `gorm:"not null;check:reserved >= 0"        json:"reserved"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Bundle struct {
	ID        uint            `gorm:"primaryKey"                  json:"id"`
	Name      string          `gorm:"size:255;not null"           json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Active    bool            `gorm:"not null"                    json:"active"`
	Products  []BundleProduct `gorm:"foreignKey:BundleID"         json:"products"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type BundleProduct struct {
	BundleID  uint `gorm:"primaryKey;autoIncrement:false"         json:"bundle_id"`
	ProductID uint `gorm:"primaryKey;autoIncrement:false"         json:"product_id"`
	Quantity  int  `gorm:"not null;check:quantity > 0"           json:"quantity"`
}

// BundleComponent is a bundle constituent frozen onto an order line.
type BundleComponent struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}
