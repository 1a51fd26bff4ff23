package service

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/pkg/money"
	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
)

type QuoteLine struct {
	ItemType   models.ItemType          `json:"item_type"`
	ProductID  *uint                    `json:"product_id,omitempty"`
	BundleID   *uint                    `json:"bundle_id,omitempty"`
	Name       string                   `json:"name"`
	Quantity   int                      `json:"quantity"`
	UnitPrice  decimal.Decimal          `json:"unit_price"`
	LineTotal  decimal.Decimal          `json:"line_total"`
	Components []models.BundleComponent `json:"components,omitempty"`
}

type Totals struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	DiscountedSubtotal decimal.Decimal `json:"discounted_subtotal"`
	Tax                decimal.Decimal `json:"tax"`
	Shipping           decimal.Decimal `json:"shipping"`
	Total              decimal.Decimal `json:"total"`
}

func Subtotal(lines []QuoteLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal)
	}
	return money.Round(sum)
}

// CalculateTotals is deterministic for the same inputs. Tax and shipping are
// stored rounded, while total is rounded once from the unrounded parts.
func CalculateTotals(subtotal, discount decimal.Decimal, rates domain.Rates) Totals {
	discount = money.Min(money.ClampZero(discount), subtotal)
	discounted := money.ClampZero(subtotal.Sub(discount))
	tax := discounted.Mul(rates.TaxRate)
	shipping := discounted.Mul(rates.ShippingRate)

	return Totals{
		Subtotal:           money.Round(subtotal),
		DiscountAmount:     money.Round(discount),
		DiscountedSubtotal: money.Round(discounted),
		Tax:                money.Round(tax),
		Shipping:           money.Round(shipping),
		Total:              money.Round(discounted.Add(tax).Add(shipping)),
	}
}

// OrderItems freezes quote lines into order lines.
func OrderItems(lines []QuoteLine) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		item := models.OrderItem{
			ItemType:        l.ItemType,
			ProductID:       l.ProductID,
			BundleID:        l.BundleID,
			Name:            l.Name,
			Quantity:        l.Quantity,
			PriceAtPurchase: money.Round(l.UnitPrice),
			LineTotal:       money.Round(l.LineTotal),
		}
		if len(l.Components) > 0 {
			item.Components = append(models.Components(nil), l.Components...)
		}
		items = append(items, item)
	}
	return items
}

// MatchesQuote reports whether a pending order was built from the same
// lines, prices, rates and discount as q.
func MatchesQuote(o *models.Order, q *Quote) bool {
	if o.Currency != q.Currency || !o.Total.Equal(q.Total) {
		return false
	}
	if o.LocationID == nil || *o.LocationID != q.Rates.LocationID {
		return false
	}
	switch {
	case q.Discount == nil && o.DiscountCodeID != nil:
		return false
	case q.Discount != nil && (o.DiscountCodeID == nil || *o.DiscountCodeID != q.Discount.CodeID):
		return false
	}

	want := lineKeys(OrderItems(q.Lines))
	got := lineKeys(o.Items)
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func lineKeys(items []models.OrderItem) []string {
	keys := make([]string, 0, len(items))
	for _, it := range items {
		var pid, bid uint
		if it.ProductID != nil {
			pid = *it.ProductID
		}
		if it.BundleID != nil {
			bid = *it.BundleID
		}
		keys = append(keys, fmt.Sprintf("%s/%d/%d/%d/%s/%v", it.ItemType, pid, bid, it.Quantity, it.PriceAtPurchase.StringFixed(2), []models.BundleComponent(it.Components)))
	}
	sort.Strings(keys)
	return keys
}
