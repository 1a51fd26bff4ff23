package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type DiscountCode struct {
	ID          uint             `gorm:"primaryKey"                   json:"id"`
	Code        string           `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Type        DiscountType     `gorm:"size:16;not null"             json:"type"`
	Value       decimal.Decimal  `gorm:"type:decimal(12,2);not null"  json:"value"`
	MinPurchase *decimal.Decimal `gorm:"type:decimal(12,2)"           json:"min_purchase,omitempty"`
	MaxUses     *int             `json:"max_uses,omitempty"`
	UsedCount   int              `gorm:"not null"                     json:"used_count"`
	ValidFrom   time.Time        `gorm:"not null"                     json:"valid_from"`
	ValidTo     time.Time        `gorm:"not null"                     json:"valid_to"`
	Active      bool             `gorm:"not null"                     json:"active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

var ErrInvalidDiscount = errors.New("invalid discount code")

var hundred = decimal.NewFromInt(100)

func (d *DiscountCode) BeforeSave(tx *gorm.DB) error {
	if d.Code != "" {
		d.Code = NormalizeCode(d.Code)
	}
	if d.Value.IsNegative() {
		return fmt.Errorf("%w: value must be >= 0", ErrInvalidDiscount)
	}
	if d.Type == DiscountPercentage && d.Value.GreaterThan(hundred) {
		return fmt.Errorf("%w: percentage value must be within [0,100]", ErrInvalidDiscount)
	}
	if d.MinPurchase != nil && d.MinPurchase.IsNegative() {
		return fmt.Errorf("%w: min_purchase must be >= 0", ErrInvalidDiscount)
	}
	if d.MaxUses != nil && *d.MaxUses < 0 {
		return fmt.Errorf("%w: max_uses must be >= 0", ErrInvalidDiscount)
	}
	if !d.ValidFrom.IsZero() && !d.ValidTo.IsZero() && d.ValidTo.Before(d.ValidFrom) {
		return fmt.Errorf("%w: valid_to is before valid_from", ErrInvalidDiscount)
	}
	return nil
}
