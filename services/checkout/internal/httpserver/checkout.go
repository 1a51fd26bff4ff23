package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/checkout/internal/domain"
	"github.com/Skotchmaster/storefront/services/checkout/internal/payment"
	"github.com/Skotchmaster/storefront/services/checkout/internal/service"
	"github.com/Skotchmaster/storefront/services/checkout/internal/transport"
)

type CheckoutHTTP struct {
	Svc           *service.Checkout
	WebhookSecret []byte
}

func checkoutInput(req transport.CheckoutRequest) service.CheckoutInput {
	return service.CheckoutInput{LocationID: req.LocationID, DiscountCode: req.DiscountCode}
}

func (h *CheckoutHTTP) Quote(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.quote")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "quote_failed", err)
	}
	var req transport.CheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(l, "quote_failed", err)
	}

	q, err := h.Svc.Quote(ctx, uid, checkoutInput(req))
	if err != nil {
		return fail(l, "quote_failed", err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *CheckoutHTTP) Begin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.begin")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "checkout_failed", err)
	}
	var req transport.CheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(l, "checkout_failed", err)
	}

	started, err := h.Svc.Begin(ctx, uid, checkoutInput(req))
	if err != nil {
		return fail(l, "checkout_failed", err)
	}

	l.Info("checkout_success", "order_id", started.Order.ID.String(), "reused", started.Reused)
	if started.Reused {
		return c.JSON(http.StatusOK, started)
	}
	return c.JSON(http.StatusCreated, started)
}

// ValidateDiscount checks a code against the caller's current cart subtotal.
func (h *CheckoutHTTP) ValidateDiscount(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.validate_discount")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "validate_discount_failed", err)
	}
	var req transport.ValidateDiscountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(l, "validate_discount_failed", err)
	}

	var subtotal decimal.Decimal
	if req.Subtotal != nil {
		if req.Subtotal.IsNegative() {
			return fail(l, "validate_discount_failed", fmt.Errorf("subtotal must be >= 0: %w", domain.ErrValidation))
		}
		subtotal = *req.Subtotal
	} else {
		view, err := h.Svc.Cart.LiveView(ctx, uid)
		if err != nil {
			return fail(l, "validate_discount_failed", err)
		}
		subtotal = view.Subtotal
	}

	applied, err := h.Svc.Discounts.Validate(ctx, req.Code, subtotal, uid)
	if err != nil {
		return fail(l, "validate_discount_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"valid":    true,
		"discount": applied,
		"subtotal": subtotal,
	})
}

// PaymentWebhook receives gateway outcomes. The raw body must carry a valid
// HMAC signature before it is decoded.
func (h *CheckoutHTTP) PaymentWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.payment_webhook")

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return badRequest(l, "payment_webhook_failed", "cannot read body", err)
	}
	if !payment.Verify(h.WebhookSecret, body, c.Request().Header.Get(payment.SignatureHeader)) {
		l.Warn("payment_webhook_failed", "status", http.StatusUnauthorized, "reason", "bad signature")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	var req transport.WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return badRequest(l, "payment_webhook_failed", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return fail(l, "payment_webhook_failed", err)
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return fail(l, "payment_webhook_failed", fmt.Errorf("order_id is not a uuid: %w", domain.ErrValidation))
	}

	res, err := h.Svc.HandlePaymentCallback(ctx, orderID, service.PaymentOutcome(req.Outcome), req.Reference)
	if err != nil {
		return fail(l, "payment_webhook_failed", err)
	}

	l.Info("payment_webhook_success", "order_id", req.OrderID, "outcome", res.Outcome)
	return c.JSON(http.StatusOK, res)
}
