package models

import "github.com/shopspring/decimal"

// Location rates are fractions: 0.15 is fifteen percent.
type Location struct {
	ID           uint            `gorm:"primaryKey"                 json:"id"`
	Name         string          `gorm:"size:128;not null"          json:"name"`
	City         string          `gorm:"size:128"                   json:"city"`
	TaxRate      decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"tax_rate"`
	ShippingRate decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"shipping_rate"`
	Active       bool            `gorm:"not null"                   json:"active"`
}
