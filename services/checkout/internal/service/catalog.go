package service

import (
	"context"

	"github.com/Skotchmaster/storefront/pkg/money"
	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
	"github.com/Skotchmaster/storefront/services/checkout/internal/repo"
)

type Catalog interface {
	Product(ctx context.Context, id uint) (*domain.ProductSnapshot, error)
	Bundle(ctx context.Context, id uint) (*domain.BundleSnapshot, error)
}

// CatalogInvalidator drops cached snapshots after stock changes.
type CatalogInvalidator interface {
	InvalidateProducts(ctx context.Context, ids ...uint)
}

type CatalogReader struct {
	Repo *repo.GormRepo
}

func (c *CatalogReader) Product(ctx context.Context, id uint) (*domain.ProductSnapshot, error) {
	p, err := c.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return ProductSnapshotOf(p), nil
}

func (c *CatalogReader) Bundle(ctx context.Context, id uint) (*domain.BundleSnapshot, error) {
	b, err := c.Repo.GetBundle(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := &domain.BundleSnapshot{
		ID:         b.ID,
		Name:       b.Name,
		Price:      money.Round(b.Price),
		Active:     b.Active,
		Components: make([]models.BundleComponent, 0, len(b.Products)),
	}
	for _, bp := range b.Products {
		snap.Components = append(snap.Components, models.BundleComponent{ProductID: bp.ProductID, Quantity: bp.Quantity})
	}
	return snap, nil
}

func ProductSnapshotOf(p *models.Product) *domain.ProductSnapshot {
	stock := 0
	if p.Inventory != nil {
		stock = p.Inventory.Quantity
	}
	unit := money.Round(p.Price)
	if p.DiscountPercent != nil {
		unit = money.ApplyDiscount(p.Price, *p.DiscountPercent)
	}
	return &domain.ProductSnapshot{
		ID:         p.ID,
		Name:       p.Name,
		SKU:        p.SKU,
		Price:      money.Round(p.Price),
		UnitPrice:  unit,
		Active:     p.Active,
		Stock:      stock,
		StockLabel: models.StockLabel(p.StockStatusOverride, stock),
	}
}
