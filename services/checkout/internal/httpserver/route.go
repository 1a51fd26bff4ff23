package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/authclient"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Deps struct {
	CartHandler     *CartHTTP
	CheckoutHandler *CheckoutHTTP
	OrderHandler    *OrderHTTP
	AdminHandler    *AdminHTTP
	DB              *gorm.DB
	JWTSecret       []byte
	AuthClient      *authclient.Client
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := pkgdb.Ping(c.Request().Context(), d.DB); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "database unavailable"})
		}
		return c.NoContent(http.StatusOK)
	})

	e.POST("/webhooks/payment", d.CheckoutHandler.PaymentWebhook)

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)

	cart := e.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("/items", d.CartHandler.AddItem)
	cart.PATCH("/items/:id", d.CartHandler.UpdateItem)
	cart.DELETE("/items/:id", d.CartHandler.RemoveItem)
	cart.DELETE("", d.CartHandler.ClearCart)

	checkout := e.Group("/checkout", authMW.RequireAuth)
	checkout.POST("", d.CheckoutHandler.Begin)
	checkout.POST("/quote", d.CheckoutHandler.Quote)
	checkout.POST("/discounts/validate", d.CheckoutHandler.ValidateDiscount)

	orders := e.Group("/orders", authMW.RequireAuth)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)

	admin := e.Group("/admin", authMW.RequireAdmin)
	admin.POST("/products/:id/restock", d.AdminHandler.Restock)
	admin.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus)
	admin.PATCH("/orders/:id/payment-status", d.OrderHandler.UpdatePaymentStatus)
	admin.POST("/orders/:id/fail", d.OrderHandler.FailOrder)
	admin.GET("/analytics/summary", d.AdminHandler.Summary)
	admin.GET("/analytics/best-sellers.xlsx", d.AdminHandler.BestSellersXLSX)
}
