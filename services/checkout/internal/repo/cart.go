package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
)

func (r *GormRepo) FindCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, notFound(err, "cart")
	}
	return &cart, nil
}

func (r *GormRepo) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindCart(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	cart = &models.Cart{UserID: userID}
	if err := r.DB.WithContext(ctx).Create(cart).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.FindCart(ctx, userID)
		}
		return nil, err
	}
	return cart, nil
}

func lineColumn(t models.ItemType) string {
	if t == models.ItemBundle {
		return "bundle_id"
	}
	return "product_id"
}

// AddLine increments an existing line for the same product or bundle, or
// creates it.
func (r *GormRepo) AddLine(ctx context.Context, cartID uuid.UUID, t models.ItemType, refID uint, qty int) (*models.CartItem, error) {
	col := lineColumn(t)
	var item models.CartItem

	add := func() error {
		return r.Transaction(ctx, func(tx *GormRepo) error {
			res := tx.DB.Model(&models.CartItem{}).
				Where("cart_id = ? AND item_type = ? AND "+col+" = ?", cartID, t, refID).
				Update("quantity", gorm.Expr("quantity + ?", qty))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				return tx.DB.Where("cart_id = ? AND item_type = ? AND "+col+" = ?", cartID, t, refID).First(&item).Error
			}

			ref := refID
			item = models.CartItem{CartID: cartID, ItemType: t, Quantity: qty}
			if t == models.ItemBundle {
				item.BundleID = &ref
			} else {
				item.ProductID = &ref
			}
			return tx.DB.Create(&item).Error
		})
	}

	err := add()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = add()
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) UpdateLineQuantity(ctx context.Context, cartID, itemID uuid.UUID, qty int) (*models.CartItem, error) {
	var item models.CartItem
	err := r.Transaction(ctx, func(tx *GormRepo) error {
		res := tx.DB.Model(&models.CartItem{}).
			Where("id = ? AND cart_id = ?", itemID, cartID).
			Update("quantity", qty)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("cart item %s: %w", itemID, domain.ErrNotFound)
		}
		return tx.DB.First(&item, "id = ?", itemID).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) DeleteLine(ctx context.Context, cartID, itemID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %s: %w", itemID, domain.ErrNotFound)
	}
	return nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) error {
	sub := r.DB.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)
	return r.DB.WithContext(ctx).Where("cart_id IN (?)", sub).Delete(&models.CartItem{}).Error
}
