package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/outbox"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
	"github.com/Skotchmaster/storefront/services/checkout/internal/payment"
	"github.com/Skotchmaster/storefront/services/checkout/internal/repo"
	"github.com/Skotchmaster/storefront/services/checkout/internal/testdb"
)

type fakeGateway struct {
	calls int
	err   error
}

func (g *fakeGateway) CreateIntention(_ context.Context, req payment.IntentionRequest) (*payment.Intention, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &payment.Intention{
		Reference:   "pi_" + req.OrderID.String(),
		CheckoutURL: "https://pay.example/c/" + req.OrderID.String(),
	}, nil
}

type recordingInvalidator struct {
	mu  sync.Mutex
	ids []uint
}

func (r *recordingInvalidator) InvalidateProducts(_ context.Context, ids ...uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, ids...)
}

type env struct {
	db       *gorm.DB
	repo     *repo.GormRepo
	cart     *CartService
	checkout *Checkout
	orders   *OrderService
	gateway  *fakeGateway
	inval    *recordingInvalidator
	location *models.Location
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, testdb.New(t), "Default")
}

func newEnvWith(t *testing.T, db *gorm.DB, locationName string) *env {
	t.Helper()
	r := &repo.GormRepo{DB: db}
	ob := outbox.NewGormRepository()
	inval := &recordingInvalidator{}
	loc := testdb.Location(t, db, locationName, "0.15", "0.10")

	cart := &CartService{Repo: r, Catalog: &CatalogReader{Repo: r}}
	gw := &fakeGateway{}
	return &env{
		db:   db,
		repo: r,
		cart: cart,
		checkout: &Checkout{
			Repo:        r,
			Cart:        cart,
			Rates:       &RateResolver{Repo: r, DefaultLocationID: loc.ID},
			Discounts:   &DiscountValidator{Repo: r},
			Stock:       &StockManager{Repo: r, Outbox: ob, Invalidator: inval},
			Gateway:     gw,
			Outbox:      ob,
			Invalidator: inval,
			Currency:    "USD",
		},
		orders:   &OrderService{Repo: r, Outbox: ob},
		gateway:  gw,
		inval:    inval,
		location: loc,
	}
}

func (e *env) add(t *testing.T, user uuid.UUID, typ models.ItemType, id uint, qty int) {
	t.Helper()
	in := AddItemInput{ItemType: typ, Quantity: qty}
	if typ == models.ItemBundle {
		in.BundleID = id
	} else {
		in.ProductID = id
	}
	_, err := e.cart.AddItem(context.Background(), user, in)
	require.NoError(t, err)
}

func (e *env) begin(t *testing.T, user uuid.UUID, in CheckoutInput) *models.Order {
	t.Helper()
	started, err := e.checkout.Begin(context.Background(), user, in)
	require.NoError(t, err)
	return started.Order
}

func (e *env) events(t *testing.T, eventType string) []outbox.Event {
	t.Helper()
	var evs []outbox.Event
	require.NoError(t, e.db.Where("event_type = ?", eventType).Order("id").Find(&evs).Error)
	return evs
}

func (e *env) eventsFor(t *testing.T, eventType string, orderID uuid.UUID) []outbox.Event {
	t.Helper()
	var evs []outbox.Event
	require.NoError(t, e.db.Where("event_type = ? AND aggregate_id = ?", eventType, orderID.String()).Find(&evs).Error)
	return evs
}

func (e *env) usedCount(t *testing.T, id uint) int {
	t.Helper()
	var d models.DiscountCode
	require.NoError(t, e.db.First(&d, id).Error)
	return d.UsedCount
}

func (e *env) cartSize(t *testing.T, user uuid.UUID) int {
	t.Helper()
	view, err := e.cart.View(context.Background(), user)
	require.NoError(t, err)
	return len(view.Lines)
}

var errGatewayDown = errors.New("dial tcp: connection refused")

func fixedNow(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}
