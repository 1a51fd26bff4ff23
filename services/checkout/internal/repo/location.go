package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
)

func (r *GormRepo) GetActiveLocation(ctx context.Context, id uint) (*models.Location, error) {
	var l models.Location
	err := r.DB.WithContext(ctx).Where("id = ? AND active = ?", id, true).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("location %d: %w", id, domain.ErrLocationNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}
