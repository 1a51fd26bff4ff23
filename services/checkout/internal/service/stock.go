package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/outbox"
	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
	"github.com/Skotchmaster/storefront/services/checkout/internal/repo"
)

// Demand is the consolidated product_id -> units an order needs.
type Demand map[uint]int

// DemandOf merges direct product lines with bundle lines expanded into
// quantity x component quantity.
func DemandOf(items []models.OrderItem) Demand {
	d := Demand{}
	for _, it := range items {
		switch it.ItemType {
		case models.ItemBundle:
			for _, c := range it.Components {
				d[c.ProductID] += it.Quantity * c.Quantity
			}
		default:
			if it.ProductID != nil {
				d[*it.ProductID] += it.Quantity
			}
		}
	}
	return d
}

// ProductIDs is sorted so concurrent decrements touch rows in the same order.
func (d Demand) ProductIDs() []uint {
	ids := make([]uint, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type StockManager struct {
	Repo        *repo.GormRepo
	Outbox      outbox.Repository
	Invalidator CatalogInvalidator
}

// Decrement applies every entry of demand or none of them. tx must be a
// transactional repo; the decrements run in a savepoint so a shortfall can
// be recorded by the caller in the same outer transaction.
func (m *StockManager) Decrement(ctx context.Context, tx *repo.GormRepo, demand Demand) error {
	return tx.Transaction(ctx, func(sp *repo.GormRepo) error {
		for _, pid := range demand.ProductIDs() {
			need := demand[pid]
			ok, err := sp.DecrementStock(ctx, pid, need)
			if err != nil {
				return fmt.Errorf("decrement product %d: %w", pid, err)
			}
			if ok {
				continue
			}
			available, err := sp.StockOf(ctx, pid)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			return &domain.InsufficientStockError{ProductID: pid, Requested: need, Available: available}
		}
		return nil
	})
}

type StockRestocked struct {
	ProductID uint `json:"product_id"`
	Added     int  `json:"added"`
	Quantity  int  `json:"quantity"`
}

// Restock adds units to on-hand quantity. Reserved is left untouched.
func (m *StockManager) Restock(ctx context.Context, productID uint, qty int) (int, error) {
	var newQty int
	err := m.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		q, err := tx.Restock(ctx, productID, qty)
		if err != nil {
			return err
		}
		newQty = q
		return emit(ctx, tx, m.Outbox, aggregateProduct, fmt.Sprint(productID), EventStockRestocked, TopicInventoryEvents,
			StockRestocked{ProductID: productID, Added: qty, Quantity: q})
	})
	if err != nil {
		return 0, err
	}
	if m.Invalidator != nil {
		m.Invalidator.InvalidateProducts(ctx, productID)
	}
	logging.FromContext(ctx).Info("stock_restocked", "product_id", productID, "added", qty, "quantity", newQty)
	return newQty, nil
}
