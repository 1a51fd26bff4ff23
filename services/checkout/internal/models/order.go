package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCanceled   OrderStatus = "canceled"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Metadata keys written by checkout.
const (
	MetaReconciliation = "reconciliation"
	MetaFailureReason  = "failure_reason"
	MetaDiscountUsage  = "discount_usage"
	MetaFailedProduct  = "failed_product_id"

	ReconcileLatePayment       = "late_payment"
	ReconcileInsufficientStock = "insufficient_stock"

	// ReasonSuperseded marks a pending order replaced by a newer checkout.
	ReasonSuperseded = "superseded"
)

type Order struct {
	ID               uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	UserID           uuid.UUID       `gorm:"index;not null"              json:"user_id"`
	Status           OrderStatus     `gorm:"size:16;index;not null"      json:"status"`
	PaymentStatus    PaymentStatus   `gorm:"size:16;not null"            json:"payment_status"`
	Currency         string          `gorm:"size:3;not null"             json:"currency"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	DiscountAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	Tax              decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	Shipping         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping"`
	Total            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	TaxRate          decimal.Decimal `gorm:"type:decimal(6,4);not null"  json:"tax_rate"`
	ShippingRate     decimal.Decimal `gorm:"type:decimal(6,4);not null"  json:"shipping_rate"`
	DiscountCodeID   *uint           `json:"discount_code_id,omitempty"`
	DiscountCode     string          `gorm:"size:64"                     json:"discount_code,omitempty"`
	LocationID       *uint           `json:"location_id,omitempty"`
	PaymentReference string          `gorm:"size:128"                    json:"payment_reference,omitempty"`
	CheckoutURL      string          `gorm:"size:1024"                   json:"checkout_url,omitempty"`
	Metadata         Metadata        `gorm:"type:text"                   json:"metadata"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID"          json:"items"`
	ConfirmedAt      *time.Time      `json:"confirmed_at,omitempty"`
	CreatedAt        time.Time       `gorm:"index"                       json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderItem prices are frozen at checkout. Bundle lines carry their
// composition in Components so fulfillment does not depend on the live bundle.
type OrderItem struct {
	ID              uint            `gorm:"primaryKey"                  json:"id"`
	OrderID         *uuid.UUID      `gorm:"index"                       json:"order_id,omitempty"`
	ItemType        ItemType        `gorm:"size:16;not null"            json:"item_type"`
	ProductID       *uint           `gorm:"index"                       json:"product_id,omitempty"`
	BundleID        *uint           `json:"bundle_id,omitempty"`
	Name            string          `gorm:"size:255;not null"           json:"name"`
	Quantity        int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_at_purchase"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`
	Components      Components      `gorm:"type:text"                   json:"components,omitempty"`
}
