// Package testdb builds isolated in-memory databases and fixtures for tests.
package testdb

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
)

func New(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:checkout_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func Product(t *testing.T, db *gorm.DB, sku, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:   "Product " + sku,
		SKU:    sku,
		Price:  Dec(price),
		Active: true,
	}
	require.NoError(t, db.Create(p).Error)
	require.NoError(t, db.Create(&models.Inventory{ProductID: p.ID, Quantity: stock}).Error)
	return p
}

func Bundle(t *testing.T, db *gorm.DB, name, price string, parts map[uint]int) *models.Bundle {
	t.Helper()
	b := &models.Bundle{Name: name, Price: Dec(price), Active: true}
	require.NoError(t, db.Create(b).Error)
	for pid, qty := range parts {
		require.NoError(t, db.Create(&models.BundleProduct{BundleID: b.ID, ProductID: pid, Quantity: qty}).Error)
	}
	return b
}

func Location(t *testing.T, db *gorm.DB, name, tax, shipping string) *models.Location {
	t.Helper()
	l := &models.Location{Name: name, TaxRate: Dec(tax), ShippingRate: Dec(shipping), Active: true}
	require.NoError(t, db.Create(l).Error)
	return l
}

func Discount(t *testing.T, db *gorm.DB, code string, typ models.DiscountType, value string, maxUses *int) *models.DiscountCode {
	t.Helper()
	d := &models.DiscountCode{
		Code:      code,
		Type:      typ,
		Value:     Dec(value),
		MaxUses:   maxUses,
		ValidFrom: time.Now().Add(-24 * time.Hour).UTC(),
		ValidTo:   time.Now().Add(24 * time.Hour).UTC(),
		Active:    true,
	}
	require.NoError(t, db.Create(d).Error)
	return d
}

func Stock(t *testing.T, db *gorm.DB, productID uint) int {
	t.Helper()
	var inv models.Inventory
	require.NoError(t, db.First(&inv, "product_id = ?", productID).Error)
	return inv.Quantity
}
