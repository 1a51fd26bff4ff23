package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/money"
	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
	"github.com/Skotchmaster/storefront/services/checkout/internal/repo"
)

type DiscountValidator struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

func (v *DiscountValidator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now().UTC()
}

// Validate is read-only; usage is consumed at order confirmation.
func (v *DiscountValidator) Validate(ctx context.Context, code string, subtotal decimal.Decimal, userID uuid.UUID) (*domain.AppliedDiscount, error) {
	l := logging.FromContext(ctx).With("component", "discount", "user_id", userID.String())

	d, err := v.Repo.GetDiscountByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !d.Active {
		return nil, fmt.Errorf("code %q inactive: %w", d.Code, domain.ErrInvalidCode)
	}

	now := v.now()
	if now.Before(d.ValidFrom) || now.After(d.ValidTo) {
		return nil, fmt.Errorf("code %q valid %s..%s: %w", d.Code, d.ValidFrom.Format(time.RFC3339), d.ValidTo.Format(time.RFC3339), domain.ErrExpired)
	}
	if d.MaxUses != nil && d.UsedCount >= *d.MaxUses {
		return nil, fmt.Errorf("code %q used %d of %d: %w", d.Code, d.UsedCount, *d.MaxUses, domain.ErrUsageLimitExceeded)
	}
	if d.MinPurchase != nil && subtotal.LessThan(*d.MinPurchase) {
		return nil, fmt.Errorf("code %q requires %s: %w", d.Code, d.MinPurchase.StringFixed(2), domain.ErrMinimumNotMet)
	}

	amount, err := DiscountAmount(d.Type, d.Value, subtotal)
	if err != nil {
		return nil, err
	}
	l.Debug("discount_validated", "code", d.Code, "amount", amount.StringFixed(2))

	return &domain.AppliedDiscount{
		CodeID: d.ID,
		Code:   d.Code,
		Type:   d.Type,
		Value:  d.Value,
		Amount: amount,
	}, nil
}

// DiscountAmount never exceeds subtotal.
func DiscountAmount(t models.DiscountType, value, subtotal decimal.Decimal) (decimal.Decimal, error) {
	switch t {
	case models.DiscountPercentage:
		return money.Min(money.Round(money.Percent(subtotal, money.ClampZero(value))), subtotal), nil
	case models.DiscountFixed:
		return money.Min(money.ClampZero(value), subtotal), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown discount type %q: %w", t, domain.ErrInternal)
	}
}
