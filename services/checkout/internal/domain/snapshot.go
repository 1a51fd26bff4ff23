package domain

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
)

// ProductSnapshot is a point-in-time read of a product. UnitPrice already has
// the product discount applied.
type ProductSnapshot struct {
	ID         uint               `json:"id"`
	Name       string             `json:"name"`
	SKU        string             `json:"sku"`
	Price      decimal.Decimal    `json:"price"`
	UnitPrice  decimal.Decimal    `json:"unit_price"`
	Active     bool               `json:"active"`
	Stock      int                `json:"stock"`
	StockLabel models.StockStatus `json:"stock_label"`
}

type BundleSnapshot struct {
	ID         uint                     `json:"id"`
	Name       string                   `json:"name"`
	Price      decimal.Decimal          `json:"price"`
	Active     bool                     `json:"active"`
	Components []models.BundleComponent `json:"components"`
}

type Rates struct {
	LocationID   uint            `json:"location_id"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	ShippingRate decimal.Decimal `json:"shipping_rate"`
}

type AppliedDiscount struct {
	CodeID uint                `json:"code_id"`
	Code   string              `json:"code"`
	Type   models.DiscountType `json:"type"`
	Value  decimal.Decimal     `json:"value"`
	Amount decimal.Decimal     `json:"amount"`
}
