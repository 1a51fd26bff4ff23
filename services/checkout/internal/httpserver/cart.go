package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/checkout/internal/models"
	"github.com/Skotchmaster/storefront/services/checkout/internal/service"
	"github.com/Skotchmaster/storefront/services/checkout/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "get_cart_failed", err)
	}
	view, err := h.Svc.View(ctx, uid)
	if err != nil {
		return fail(l, "get_cart_failed", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "add_item_failed", err)
	}
	var req transport.AddItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(l, "add_item_failed", err)
	}

	item, err := h.Svc.AddItem(ctx, uid, service.AddItemInput{
		ItemType:  models.ItemType(req.ItemType),
		ProductID: req.ProductID,
		BundleID:  req.BundleID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return fail(l, "add_item_failed", err)
	}

	l.Info("add_item_success", "item_id", item.ID.String(), "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "update_item_failed", err)
	}
	itemID, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "update_item_failed", err)
	}
	var req transport.UpdateItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(l, "update_item_failed", err)
	}

	item, err := h.Svc.UpdateQuantity(ctx, uid, itemID, req.Quantity)
	if err != nil {
		return fail(l, "update_item_failed", err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "remove_item_failed", err)
	}
	itemID, err := uuidParam(c, "id")
	if err != nil {
		return fail(l, "remove_item_failed", err)
	}
	if err := h.Svc.RemoveItem(ctx, uid, itemID); err != nil {
		return fail(l, "remove_item_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	uid, err := userID(c)
	if err != nil {
		return fail(l, "clear_cart_failed", err)
	}
	if err := h.Svc.Clear(ctx, uid); err != nil {
		return fail(l, "clear_cart_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
