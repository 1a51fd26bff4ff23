package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("order %s", id))
	}
	return &o, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := q.Preload("Items").Order("created_at DESC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListPendingOrders returns the user's orders still waiting for payment.
func (r *GormRepo) ListPendingOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB.WithContext(ctx).Preload("Items").
		Where("user_id = ? AND status = ? AND payment_status = ?", userID, models.OrderPending, models.PaymentUnpaid).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// UpdateOrderWhere applies updates only while the row still matches where.
// It reports whether the row was changed, which is how status transitions
// stay idempotent under duplicate callbacks.
func (r *GormRepo) UpdateOrderWhere(ctx context.Context, id uuid.UUID, where map[string]any, updates map[string]any) (bool, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id)
	if len(where) > 0 {
		q = q.Where(where)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
