package repo

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
)

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Preload("Inventory").First(&p, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("product %d", id))
	}
	return &p, nil
}

func (r *GormRepo) GetBundle(ctx context.Context, id uint) (*models.Bundle, error) {
	var b models.Bundle
	err := r.DB.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("product_id ASC") }).
		First(&b, id).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("bundle %d", id))
	}
	return &b, nil
}

func (r *GormRepo) StockOf(ctx context.Context, productID uint) (int, error) {
	var inv models.Inventory
	if err := r.DB.WithContext(ctx).First(&inv, "product_id = ?", productID).Error; err != nil {
		return 0, notFound(err, fmt.Sprintf("inventory for product %d", productID))
	}
	return inv.Quantity, nil
}

// DecrementStock reports false when the product lacks qty units. The WHERE
// clause is re-evaluated by the write itself, so no row lock is taken.
func (r *GormRepo) DecrementStock(ctx context.Context, productID uint, qty int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Inventory{}).
		Where("product_id = ? AND quantity >= ?", productID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) Restock(ctx context.Context, productID uint, qty int) (int, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("restock quantity must be > 0: %w", domain.ErrValidation)
	}
	var newQty int
	err := r.Transaction(ctx, func(tx *GormRepo) error {
		res := tx.DB.WithContext(ctx).Model(&models.Inventory{}).
			Where("product_id = ?", productID).
			Update("quantity", gorm.Expr("quantity + ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("inventory for product %d: %w", productID, domain.ErrNotFound)
		}
		q, err := tx.StockOf(ctx, productID)
		newQty = q
		return err
	})
	return newQty, err
}
