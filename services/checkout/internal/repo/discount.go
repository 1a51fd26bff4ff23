package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
)

func (r *GormRepo) GetDiscountByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var d models.DiscountCode
	err := r.DB.WithContext(ctx).Where("code = ?", models.NormalizeCode(code)).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("code %q: %w", code, domain.ErrInvalidCode)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// IncrementDiscountUsage reports false when the cap was already reached.
func (r *GormRepo) IncrementDiscountUsage(ctx context.Context, id uint) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.DiscountCode{}).
		Where("id = ? AND (max_uses IS NULL OR used_count < max_uses)", id).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
