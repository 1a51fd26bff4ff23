package transport

import "github.com/shopspring/decimal"

type AddItemRequest struct {
	ItemType  string `json:"item_type"  validate:"required,oneof=product bundle"`
	ProductID uint   `json:"product_id" validate:"required_if=ItemType product"`
	BundleID  uint   `json:"bundle_id"  validate:"required_if=ItemType bundle"`
	Quantity  int    `json:"quantity"   validate:"required,gte=1,lte=1000"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1,lte=1000"`
}

type CheckoutRequest struct {
	LocationID   *uint  `json:"location_id"   validate:"omitempty,gte=1"`
	DiscountCode string `json:"discount_code" validate:"omitempty,max=64"`
}

// ValidateDiscountRequest checks against Subtotal when given, else the
// caller's live cart subtotal.
type ValidateDiscountRequest struct {
	Code     string           `json:"code"     validate:"required,max=64"`
	Subtotal *decimal.Decimal `json:"subtotal"`
}

type WebhookRequest struct {
	OrderID   string `json:"order_id"  validate:"required,uuid"`
	Outcome   string `json:"outcome"   validate:"required,oneof=paid failed"`
	Reference string `json:"reference" validate:"omitempty,max=255"`
}

type RestockRequest struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing completed canceled"`
}

type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=unpaid paid refunded"`
}

type FailRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}
