package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
	"github.com/Skotchmaster/storefront/services/checkout/internal/service"
	"github.com/Skotchmaster/storefront/services/checkout/internal/transport"
	"github.com/Skotchmaster/storefront/services/checkout/internal/util"
)

type OrderHTTP struct {
	Svc      *service.OrderService
	Checkout *service.Checkout
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Svc.List(ctx, uid, page, size)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "get_order_failed", err)
	}

	o, err := h.Svc.Get(ctx, id, uid, isAdmin(c))
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "update_status_failed", err)
	}
	var req transport.StatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(l, "update_status_failed", err)
	}

	o, err := h.Svc.UpdateStatus(ctx, id, models.OrderStatus(req.Status))
	if err != nil {
		return fail(l, "update_status_failed", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHTTP) UpdatePaymentStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_payment_status")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "update_payment_status_failed", err)
	}
	var req transport.PaymentStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(l, "update_payment_status_failed", err)
	}

	o, err := h.Svc.UpdatePaymentStatus(ctx, id, models.PaymentStatus(req.PaymentStatus))
	if err != nil {
		return fail(l, "update_payment_status_failed", err)
	}
	return c.JSON(http.StatusOK, o)
}

// FailOrder lets an operator cancel a pending order whose payment never
// resolved.
func (h *OrderHTTP) FailOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.fail")

	id, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "fail_order_failed", err)
	}
	var req transport.FailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(l, "fail_order_failed", err)
	}
	reason := req.Reason
	if reason == "" {
		reason = "operator_canceled"
	}

	res, err := h.Checkout.Fail(ctx, id, reason)
	if err != nil {
		return fail(l, "fail_order_failed", err)
	}
	return c.JSON(http.StatusOK, res)
}
