package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"

	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
	"github.com/Skotchmaster/storefront/services/checkout/internal/repo"
)

const (
	BestSellerWindow   = 30 * 24 * time.Hour
	BestSellerMinUnits = 10
)

type Summary struct {
	OrdersByStatus map[models.OrderStatus]int64 `json:"orders_by_status"`
	PaidRevenue    decimal.Decimal              `json:"paid_revenue"`
	BestSellers    []repo.BestSellerRow         `json:"best_sellers"`
	GeneratedAt    time.Time                    `json:"generated_at"`
}

type Analytics struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

func (a *Analytics) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

// BestSellers lists products with at least BestSellerMinUnits units sold
// over the trailing BestSellerWindow.
func (a *Analytics) BestSellers(ctx context.Context) ([]repo.BestSellerRow, error) {
	rows, err := a.Repo.BestSellers(ctx, a.now().Add(-BestSellerWindow), BestSellerMinUnits)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repo.BestSellerRow{}
	}
	return rows, nil
}

func (a *Analytics) Summary(ctx context.Context) (*Summary, error) {
	counts, err := a.Repo.CountOrdersByStatus(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := a.Repo.PaidRevenue(ctx)
	if err != nil {
		return nil, err
	}
	best, err := a.BestSellers(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := map[models.OrderStatus]int64{
		models.OrderPending:    0,
		models.OrderProcessing: 0,
		models.OrderCompleted:  0,
		models.OrderCanceled:   0,
	}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	return &Summary{
		OrdersByStatus: byStatus,
		PaidRevenue:    revenue,
		BestSellers:    best,
		GeneratedAt:    a.now(),
	}, nil
}

func (a *Analytics) WriteBestSellersXLSX(ctx context.Context, w io.Writer) error {
	rows, err := a.BestSellers(ctx)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Best sellers")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range []string{"ProductID", "SKU", "Name", "Units"} {
		header.AddCell().SetValue(h)
	}
	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetValue(r.ProductID)
		row.AddCell().SetValue(r.SKU)
		row.AddCell().SetValue(r.Name)
		row.AddCell().SetValue(r.Units)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
