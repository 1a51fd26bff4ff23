package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/outbox"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
	"github.com/Skotchmaster/storefront/services/checkout/internal/payment"
	"github.com/Skotchmaster/storefront/services/checkout/internal/repo"
	"github.com/Skotchmaster/storefront/services/checkout/internal/service"
	"github.com/Skotchmaster/storefront/services/checkout/internal/testdb"
)

var (
	jwtSecret     = []byte("test-access-secret")
	webhookSecret = []byte("test-webhook-secret")
)

type stubGateway struct {
	calls int
	err   error
}

func (g *stubGateway) CreateIntention(_ context.Context, req payment.IntentionRequest) (*payment.Intention, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &payment.Intention{Reference: "pi_" + req.OrderID.String(), CheckoutURL: "https://pay.example/c"}, nil
}

type testServer struct {
	e       *echo.Echo
	db      *gorm.DB
	gateway *stubGateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testdb.New(t)
	r := &repo.GormRepo{DB: db}
	ob := outbox.NewGormRepository()
	loc := testdb.Location(t, db, "Default", "0.15", "0.10")

	cart := &service.CartService{Repo: r, Catalog: &service.CatalogReader{Repo: r}}
	stock := &service.StockManager{Repo: r, Outbox: ob}
	gw := &stubGateway{}
	co := &service.Checkout{
		Repo:      r,
		Cart:      cart,
		Rates:     &service.RateResolver{Repo: r, DefaultLocationID: loc.ID},
		Discounts: &service.DiscountValidator{Repo: r},
		Stock:     stock,
		Gateway:   gw,
		Outbox:    ob,
		Currency:  "USD",
	}

	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(e)
	Register(e, &Deps{
		CartHandler:     &CartHTTP{Svc: cart},
		CheckoutHandler: &CheckoutHTTP{Svc: co, WebhookSecret: webhookSecret},
		OrderHandler:    &OrderHTTP{Svc: &service.OrderService{Repo: r, Outbox: ob}, Checkout: co},
		AdminHandler:    &AdminHTTP{Stock: stock, Analytics: &service.Analytics{Repo: r}},
		DB:              db,
		JWTSecret:       jwtSecret,
	})
	return &testServer{e: e, db: db, gateway: gw}
}

func bearer(t *testing.T, subject, role string) string {
	t.Helper()
	tok, err := tokens.SignAccessToken(jwtSecret, subject, role, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return "Bearer " + tok
}

func (s *testServer) do(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) webhook(t *testing.T, payload map[string]string, signature string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	if signature == "" {
		signature = payment.Sign(webhookSecret, raw)
	}
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(raw))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(payment.SignatureHeader, signature)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", "", nil).Code)
}

func TestCart_RequiresAuth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "error", body["status"])
}

func TestCart_ValidationDetails(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, uuid.NewString(), "user")

	rec := s.do(t, http.MethodPost, "/cart/items", auth, map[string]any{"item_type": "gift", "quantity": 0})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, "error", body.Status)
	assert.Contains(t, body.Details, "item_type")
	assert.Contains(t, body.Details, "quantity")
}

func TestCheckoutFlow(t *testing.T) {
	s := newTestServer(t)
	user := uuid.NewString()
	auth := bearer(t, user, "user")
	p := testdb.Product(t, s.db, "A", "50", 5)
	testdb.Discount(t, s.db, "SAVE10", models.DiscountPercentage, "10", nil)

	rec := s.do(t, http.MethodPost, "/cart/items", auth, map[string]any{"item_type": "product", "product_id": p.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/checkout/discounts/validate", auth, map[string]any{"code": "save10"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/checkout/quote", auth, map[string]any{"discount_code": "SAVE10"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decode[map[string]any](t, rec)
	assert.Equal(t, "112.5", quote["total"])

	rec = s.do(t, http.MethodPost, "/checkout", auth, map[string]any{"discount_code": "SAVE10"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	started := decode[service.Started](t, rec)
	orderID := started.Order.ID.String()

	rec = s.webhook(t, map[string]string{"order_id": orderID, "outcome": "paid"}, "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.webhook(t, map[string]string{"order_id": orderID, "outcome": "paid", "reference": started.Order.PaymentReference}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, service.OutcomeConfirmed, decode[service.TransitionResult](t, rec).Outcome)

	rec = s.webhook(t, map[string]string{"order_id": orderID, "outcome": "paid"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.OutcomeDuplicate, decode[service.TransitionResult](t, rec).Outcome)

	rec = s.do(t, http.MethodGet, "/orders", auth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[service.OrderPage](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, models.OrderProcessing, page.Data[0].Status)

	rec = s.do(t, http.MethodGet, "/orders/"+orderID, bearer(t, uuid.NewString(), "user"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckout_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, uuid.NewString(), "user")

	rec := s.do(t, http.MethodPost, "/checkout", auth, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "empty cart")

	p := testdb.Product(t, s.db, "A", "10", 5)
	rec = s.do(t, http.MethodPost, "/cart/items", auth, map[string]any{"item_type": "product", "product_id": p.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/checkout", auth, map[string]any{"discount_code": "NOPE"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.gateway.err = errors.New("connection refused")
	rec = s.do(t, http.MethodPost, "/checkout", auth, map[string]any{})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode[errorBody](t, rec)
	assert.NotContains(t, body.Message, "connection refused")

	rec = s.do(t, http.MethodGet, "/orders/not-a-uuid", auth, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := bearer(t, uuid.NewString(), "admin")
	user := bearer(t, uuid.NewString(), "user")
	p := testdb.Product(t, s.db, "A", "10", 2)

	rec := s.do(t, http.MethodPost, "/admin/products/1/restock", user, map[string]any{"quantity": 3})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/products/"+uintPath(p.ID)+"/restock", admin, map[string]any{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 5, decode[map[string]any](t, rec)["quantity"])

	rec = s.do(t, http.MethodPost, "/admin/products/999/restock", admin, map[string]any{"quantity": 3})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPatch, "/admin/orders/"+uuid.NewString()+"/status", admin, map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/admin/analytics/summary", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[map[string]any](t, rec), "orders_by_status")

	rec = s.do(t, http.MethodGet, "/admin/analytics/best-sellers.xlsx", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxMIME, rec.Header().Get(echo.HeaderContentType))
	assert.NotZero(t, rec.Body.Len())
}

func TestAdmin_StatusTransitionConflict(t *testing.T) {
	s := newTestServer(t)
	user := uuid.NewString()
	auth := bearer(t, user, "user")
	admin := bearer(t, uuid.NewString(), "admin")
	p := testdb.Product(t, s.db, "A", "10", 5)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/cart/items", auth, map[string]any{"item_type": "product", "product_id": p.ID, "quantity": 1}).Code)
	rec := s.do(t, http.MethodPost, "/checkout", auth, map[string]any{})
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := decode[service.Started](t, rec).Order.ID.String()

	rec = s.do(t, http.MethodPatch, "/admin/orders/"+orderID+"/status", admin, map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/admin/orders/"+orderID+"/fail", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, service.OutcomeFailed, decode[service.TransitionResult](t, rec).Outcome)

	rec = s.do(t, http.MethodGet, "/orders/"+orderID, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.OrderCanceled, decode[models.Order](t, rec).Status)
}

func TestValidateDiscount_ExplicitSubtotal(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, uuid.NewString(), "user")
	testdb.Discount(t, s.db, "FIFTY", models.DiscountFixed, "50", nil)

	rec := s.do(t, http.MethodPost, "/checkout/discounts/validate", auth, map[string]any{"code": "FIFTY", "subtotal": "30"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	discount := body["discount"].(map[string]any)
	assert.Equal(t, "30", discount["amount"])

	rec = s.do(t, http.MethodPost, "/checkout/discounts/validate", auth, map[string]any{"code": "FIFTY", "subtotal": "-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_RepeatSubmitReturnsSameOrder(t *testing.T) {
	s := newTestServer(t)
	auth := bearer(t, uuid.NewString(), "user")
	p := testdb.Product(t, s.db, "A", "10", 5)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/cart/items", auth, map[string]any{"item_type": "product", "product_id": p.ID, "quantity": 1}).Code)

	rec := s.do(t, http.MethodPost, "/checkout", auth, map[string]any{})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[service.Started](t, rec)

	rec = s.do(t, http.MethodPost, "/checkout", auth, map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	again := decode[service.Started](t, rec)
	assert.True(t, again.Reused)
	assert.Equal(t, first.Order.ID, again.Order.ID)
	assert.Equal(t, 1, s.gateway.calls)
}
