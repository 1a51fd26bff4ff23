package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
	"github.com/Skotchmaster/storefront/services/checkout/internal/repo"
)

type RateResolver struct {
	Repo              *repo.GormRepo
	DefaultLocationID uint
}

// Resolve falls back to the configured default location when locationID is nil.
func (r *RateResolver) Resolve(ctx context.Context, locationID *uint) (domain.Rates, error) {
	id := r.DefaultLocationID
	if locationID != nil {
		id = *locationID
	}
	if id == 0 {
		return domain.Rates{}, fmt.Errorf("location_id required, no default location configured: %w", domain.ErrValidation)
	}

	loc, err := r.Repo.GetActiveLocation(ctx, id)
	if err != nil {
		return domain.Rates{}, err
	}
	return domain.Rates{
		LocationID:   loc.ID,
		TaxRate:      loc.TaxRate,
		ShippingRate: loc.ShippingRate,
	}, nil
}
