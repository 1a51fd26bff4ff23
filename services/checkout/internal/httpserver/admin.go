package httpserver

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/services/checkout/internal/service"
	"github.com/Skotchmaster/storefront/services/checkout/internal/transport"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHTTP struct {
	Stock     *service.StockManager
	Analytics *service.Analytics
}

func (h *AdminHTTP) Restock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.restock")

	pid, err := uintParam(c, "id")
	if err != nil {
		return fail(l, "restock_failed", err)
	}
	var req transport.RestockRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(l, "restock_failed", err)
	}

	qty, err := h.Stock.Restock(ctx, pid, req.Quantity)
	if err != nil {
		return fail(l, "restock_failed", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"product_id": pid, "quantity": qty})
}

func (h *AdminHTTP) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.summary")

	s, err := h.Analytics.Summary(ctx)
	if err != nil {
		return fail(l, "summary_failed", err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *AdminHTTP) BestSellersXLSX(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.best_sellers_xlsx")

	var buf bytes.Buffer
	if err := h.Analytics.WriteBestSellersXLSX(ctx, &buf); err != nil {
		return fail(l, "best_sellers_export_failed", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "best-sellers.xlsx"))
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}
