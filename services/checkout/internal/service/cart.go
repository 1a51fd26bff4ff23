package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/pkg/money"
	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
	"github.com/Skotchmaster/storefront/services/checkout/internal/repo"
)

type CartLine struct {
	ItemID      uuid.UUID                `json:"item_id"`
	ItemType    models.ItemType          `json:"item_type"`
	ProductID   *uint                    `json:"product_id,omitempty"`
	BundleID    *uint                    `json:"bundle_id,omitempty"`
	Name        string                   `json:"name"`
	Quantity    int                      `json:"quantity"`
	UnitPrice   decimal.Decimal          `json:"unit_price"`
	LineTotal   decimal.Decimal          `json:"line_total"`
	StockLabel  models.StockStatus       `json:"stock_label,omitempty"`
	Components  []models.BundleComponent `json:"components,omitempty"`
	Inactive    bool                     `json:"inactive"`
	Unavailable bool                     `json:"unavailable"`
}

type CartView struct {
	CartID      uuid.UUID       `json:"cart_id"`
	UserID      uuid.UUID       `json:"user_id"`
	Lines       []CartLine      `json:"lines"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	HasInactive bool            `json:"has_inactive"`
}

type AddItemInput struct {
	ItemType  models.ItemType
	ProductID uint
	BundleID  uint
	Quantity  int
}

// CartService reads the catalog through Catalog, which may be a cache. Paths
// that validate or freeze prices go through live instead.
type CartService struct {
	Repo    *repo.GormRepo
	Catalog Catalog
}

func (s *CartService) live() Catalog {
	return &CatalogReader{Repo: s.Repo}
}

// View is the display view of the cart and may serve cached snapshots.
func (s *CartService) View(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	return s.view(ctx, userID, s.Catalog)
}

// LiveView prices every line from the database.
func (s *CartService) LiveView(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	return s.view(ctx, userID, s.live())
}

func (s *CartService) view(ctx context.Context, userID uuid.UUID, catalog Catalog) (*CartView, error) {
	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &CartView{CartID: cart.ID, UserID: userID, Lines: make([]CartLine, 0, len(cart.Items)), Subtotal: decimal.Zero}
	for _, item := range cart.Items {
		line, err := priceLine(ctx, catalog, item)
		if err != nil {
			return nil, err
		}
		if line.Inactive || line.Unavailable {
			view.HasInactive = true
		}
		if !line.Unavailable {
			view.Subtotal = view.Subtotal.Add(line.LineTotal)
		}
		view.Lines = append(view.Lines, line)
	}
	view.Subtotal = money.Round(view.Subtotal)
	return view, nil
}

// priceLine prices one item through catalog. Lines whose product or bundle vanished
// are flagged unavailable rather than dropped.
func priceLine(ctx context.Context, catalog Catalog, item models.CartItem) (CartLine, error) {
	line := CartLine{
		ItemID:    item.ID,
		ItemType:  item.ItemType,
		ProductID: item.ProductID,
		BundleID:  item.BundleID,
		Quantity:  item.Quantity,
		UnitPrice: decimal.Zero,
		LineTotal: decimal.Zero,
	}
	qty := decimal.NewFromInt(int64(item.Quantity))

	switch item.ItemType {
	case models.ItemBundle:
		if item.BundleID == nil {
			line.Unavailable = true
			return line, nil
		}
		b, err := catalog.Bundle(ctx, *item.BundleID)
		if errors.Is(err, domain.ErrNotFound) {
			line.Unavailable = true
			return line, nil
		}
		if err != nil {
			return line, err
		}
		line.Name = b.Name
		line.UnitPrice = b.Price
		line.LineTotal = money.Round(b.Price.Mul(qty))
		line.Components = b.Components
		line.Inactive = !b.Active
	default:
		if item.ProductID == nil {
			line.Unavailable = true
			return line, nil
		}
		p, err := catalog.Product(ctx, *item.ProductID)
		if errors.Is(err, domain.ErrNotFound) {
			line.Unavailable = true
			return line, nil
		}
		if err != nil {
			return line, err
		}
		line.Name = p.Name
		line.UnitPrice = p.UnitPrice
		line.LineTotal = money.Round(p.UnitPrice.Mul(qty))
		line.StockLabel = p.StockLabel
		line.Inactive = !p.Active
	}
	return line, nil
}

func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, in AddItemInput) (*models.CartItem, error) {
	if in.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be a positive integer: %w", domain.ErrValidation)
	}

	var refID uint
	switch in.ItemType {
	case models.ItemProduct:
		if in.ProductID == 0 || in.BundleID != 0 {
			return nil, fmt.Errorf("product line needs product_id only: %w", domain.ErrValidation)
		}
		p, err := s.live().Product(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.Active {
			return nil, fmt.Errorf("product %d: %w", p.ID, domain.ErrInactive)
		}
		refID = p.ID
	case models.ItemBundle:
		if in.BundleID == 0 || in.ProductID != 0 {
			return nil, fmt.Errorf("bundle line needs bundle_id only: %w", domain.ErrValidation)
		}
		b, err := s.live().Bundle(ctx, in.BundleID)
		if err != nil {
			return nil, err
		}
		if !b.Active {
			return nil, fmt.Errorf("bundle %d: %w", b.ID, domain.ErrInactive)
		}
		refID = b.ID
	default:
		return nil, fmt.Errorf("item_type must be product or bundle: %w", domain.ErrValidation)
	}

	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Repo.AddLine(ctx, cart.ID, in.ItemType, refID, in.Quantity)
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*models.CartItem, error) {
	if qty < 1 {
		return nil, fmt.Errorf("quantity must be a positive integer, remove the item instead: %w", domain.ErrValidation)
	}
	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Repo.UpdateLineQuantity(ctx, cart.ID, itemID, qty)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	return s.Repo.DeleteLine(ctx, cart.ID, itemID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.Repo.ClearCart(ctx, userID)
}
