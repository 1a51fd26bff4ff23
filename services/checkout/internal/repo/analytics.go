package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
)

type StatusCount struct {
	Status models.OrderStatus
	Count  int64
}

type BestSellerRow struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Units     int64  `json:"units"`
}

func (r *GormRepo) CountOrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, err
}

func (r *GormRepo) PaidRevenue(ctx context.Context) (decimal.Decimal, error) {
	var out struct {
		Revenue decimal.NullDecimal
	}
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("SUM(total) AS revenue").
		Where("payment_status = ?", models.PaymentPaid).
		Scan(&out).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !out.Revenue.Valid {
		return decimal.Zero, nil
	}
	return out.Revenue.Decimal.Round(2), nil
}

// BestSellers counts units on direct product lines of fulfilled, paid orders
// confirmed since the given time.
func (r *GormRepo) BestSellers(ctx context.Context, since time.Time, minUnits int) ([]BestSellerRow, error) {
	var rows []BestSellerRow
	err := r.DB.WithContext(ctx).Raw(`
		SELECT oi.product_id AS product_id, p.name AS name, p.sku AS sku, SUM(oi.quantity) AS units
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE oi.item_type = ?
		  AND o.payment_status = ?
		  AND o.status IN ?
		  AND o.confirmed_at >= ?
		GROUP BY oi.product_id, p.name, p.sku
		HAVING SUM(oi.quantity) >= ?
		ORDER BY units DESC, oi.product_id ASC`,
		models.ItemProduct,
		models.PaymentPaid,
		[]models.OrderStatus{models.OrderProcessing, models.OrderCompleted},
		since,
		minUnits,
	).Scan(&rows).Error
	return rows, err
}
