package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
	"github.com/Skotchmaster/storefront/services/checkout/internal/testdb"
)

func TestAddLine_IncrementsExistingProductLine(t *testing.T) {
	db := testdb.New(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()
	p := testdb.Product(t, db, "A", "10", 5)

	cart, err := r.GetOrCreateCart(ctx, uuid.New())
	require.NoError(t, err)

	first, err := r.AddLine(ctx, cart.ID, models.ItemProduct, p.ID, 2)
	require.NoError(t, err)
	second, err := r.AddLine(ctx, cart.ID, models.ItemProduct, p.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	reloaded, err := r.FindCart(ctx, cart.UserID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Items, 1)
}

func TestAddLine_BundleAndProductLinesAreSeparate(t *testing.T) {
	db := testdb.New(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()
	p := testdb.Product(t, db, "A", "10", 5)
	b := testdb.Bundle(t, db, "B", "15", map[uint]int{p.ID: 2})

	cart, err := r.GetOrCreateCart(ctx, uuid.New())
	require.NoError(t, err)
	_, err = r.AddLine(ctx, cart.ID, models.ItemProduct, p.ID, 1)
	require.NoError(t, err)
	_, err = r.AddLine(ctx, cart.ID, models.ItemBundle, b.ID, 1)
	require.NoError(t, err)
	_, err = r.AddLine(ctx, cart.ID, models.ItemBundle, b.ID, 1)
	require.NoError(t, err)

	reloaded, err := r.FindCart(ctx, cart.UserID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 2)
	assert.Equal(t, 2, reloaded.Items[1].Quantity)
}

func TestGetOrCreateCart_IsStablePerUser(t *testing.T) {
	db := testdb.New(t)
	r := &GormRepo{DB: db}
	user := uuid.New()

	c1, err := r.GetOrCreateCart(context.Background(), user)
	require.NoError(t, err)
	c2, err := r.GetOrCreateCart(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)
}

func TestUpdateAndDeleteLine_ScopedToCart(t *testing.T) {
	db := testdb.New(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()
	p := testdb.Product(t, db, "A", "10", 5)

	mine, err := r.GetOrCreateCart(ctx, uuid.New())
	require.NoError(t, err)
	other, err := r.GetOrCreateCart(ctx, uuid.New())
	require.NoError(t, err)
	item, err := r.AddLine(ctx, mine.ID, models.ItemProduct, p.ID, 1)
	require.NoError(t, err)

	_, err = r.UpdateLineQuantity(ctx, other.ID, item.ID, 4)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, r.DeleteLine(ctx, other.ID, item.ID), domain.ErrNotFound)

	updated, err := r.UpdateLineQuantity(ctx, mine.ID, item.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	require.NoError(t, r.DeleteLine(ctx, mine.ID, item.ID))
}

func TestClearCart(t *testing.T) {
	db := testdb.New(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()
	p := testdb.Product(t, db, "A", "10", 5)
	user := uuid.New()
	cart, err := r.GetOrCreateCart(ctx, user)
	require.NoError(t, err)
	_, err = r.AddLine(ctx, cart.ID, models.ItemProduct, p.ID, 1)
	require.NoError(t, err)

	require.NoError(t, r.ClearCart(ctx, user))
	reloaded, err := r.FindCart(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Items)
}

func TestDecrementStock_Conditional(t *testing.T) {
	db := testdb.New(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()
	p := testdb.Product(t, db, "A", "10", 3)

	ok, err := r.DecrementStock(ctx, p.ID, 4)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, testdb.Stock(t, db, p.ID))

	ok, err = r.DecrementStock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, testdb.Stock(t, db, p.ID))
}

func TestRestock(t *testing.T) {
	db := testdb.New(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()
	p := testdb.Product(t, db, "A", "10", 3)

	q, err := r.Restock(ctx, p.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 10, q)

	_, err = r.Restock(ctx, p.ID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = r.Restock(ctx, 9999, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIncrementDiscountUsage_RespectsCap(t *testing.T) {
	db := testdb.New(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()
	one := 1
	d := testdb.Discount(t, db, "ONCE", models.DiscountFixed, "5", &one)

	ok, err := r.IncrementDiscountUsage(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.IncrementDiscountUsage(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.GetDiscountByCode(ctx, "once")
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsedCount)

	_, err = r.GetDiscountByCode(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestGetActiveLocation(t *testing.T) {
	db := testdb.New(t)
	r := &GormRepo{DB: db}
	l := testdb.Location(t, db, "Main", "0.15", "0.10")
	require.NoError(t, db.Model(&models.Location{}).Create(&models.Location{Name: "Closed", TaxRate: testdb.Dec("0"), ShippingRate: testdb.Dec("0")}).Error)

	got, err := r.GetActiveLocation(context.Background(), l.ID)
	require.NoError(t, err)
	assert.True(t, got.TaxRate.Equal(testdb.Dec("0.15")))

	_, err = r.GetActiveLocation(context.Background(), l.ID+1)
	assert.ErrorIs(t, err, domain.ErrLocationNotFound)
}

func newOrder(user uuid.UUID) *models.Order {
	return &models.Order{
		ID:            uuid.New(),
		UserID:        user,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentUnpaid,
		Currency:      "USD",
		Subtotal:      testdb.Dec("10"),
		Total:         testdb.Dec("10"),
		Items: []models.OrderItem{
			{ItemType: models.ItemProduct, Name: "A", Quantity: 1, PriceAtPurchase: testdb.Dec("10"), LineTotal: testdb.Dec("10")},
		},
	}
}

func TestOrders_CreateGetListAndConditionalUpdate(t *testing.T) {
	db := testdb.New(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()
	user := uuid.New()

	o := newOrder(user)
	require.NoError(t, r.CreateOrder(ctx, o))
	require.NoError(t, r.CreateOrder(ctx, newOrder(user)))
	require.NoError(t, r.CreateOrder(ctx, newOrder(uuid.New())))

	got, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].OrderID)
	assert.Equal(t, o.ID, *got.Items[0].OrderID)

	list, total, err := r.ListOrders(ctx, user, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 1)

	pending := map[string]any{"status": models.OrderPending}
	changed, err := r.UpdateOrderWhere(ctx, o.ID, pending, map[string]any{"status": models.OrderProcessing})
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = r.UpdateOrderWhere(ctx, o.ID, pending, map[string]any{"status": models.OrderProcessing})
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = r.GetOrder(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	db := testdb.New(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()
	p := testdb.Product(t, db, "A", "10", 3)

	err := r.Transaction(ctx, func(tx *GormRepo) error {
		ok, err := tx.DecrementStock(ctx, p.ID, 2)
		require.NoError(t, err)
		require.True(t, ok)
		return domain.ErrConflict
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 3, testdb.Stock(t, db, p.ID))
}

func TestBestSellersAndRevenue(t *testing.T) {
	db := testdb.New(t)
	r := &GormRepo{DB: db}
	ctx := context.Background()
	hot := testdb.Product(t, db, "HOT", "5", 100)
	cold := testdb.Product(t, db, "COLD", "5", 100)

	mk := func(pid uint, qty int, status models.OrderStatus, pay models.PaymentStatus, confirmed time.Time) {
		id := uuid.New()
		o := &models.Order{
			ID: id, UserID: uuid.New(), Status: status, PaymentStatus: pay, Currency: "USD",
			Subtotal: testdb.Dec("50"), Total: testdb.Dec("50"), ConfirmedAt: &confirmed,
			Items: []models.OrderItem{{ItemType: models.ItemProduct, ProductID: &pid, Name: "x", Quantity: qty,
				PriceAtPurchase: testdb.Dec("5"), LineTotal: testdb.Dec("50")}},
		}
		require.NoError(t, r.CreateOrder(ctx, o))
	}
	now := time.Now().UTC()
	mk(hot.ID, 6, models.OrderProcessing, models.PaymentPaid, now.Add(-time.Hour))
	mk(hot.ID, 6, models.OrderCompleted, models.PaymentPaid, now.Add(-48*time.Hour))
	mk(hot.ID, 50, models.OrderCompleted, models.PaymentPaid, now.Add(-40*24*time.Hour))
	mk(cold.ID, 9, models.OrderProcessing, models.PaymentPaid, now)
	mk(cold.ID, 20, models.OrderCanceled, models.PaymentPaid, now)

	rows, err := r.BestSellers(ctx, now.Add(-30*24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, hot.ID, rows[0].ProductID)
	assert.Equal(t, int64(12), rows[0].Units)

	rev, err := r.PaidRevenue(ctx)
	require.NoError(t, err)
	assert.True(t, rev.Equal(testdb.Dec("250")), rev.String())

	counts, err := r.CountOrdersByStatus(ctx)
	require.NoError(t, err)
	assert.Len(t, counts, 3)
}
