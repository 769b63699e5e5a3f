package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Deps struct {
	ProductHandler  *ProductHTTP
	UserHandler     *UserHTTP
	OrderHandler    *OrderHTTP
	SessionHandler  *SessionHTTP
	CheckoutHandler *CheckoutHTTP
	KeysHandler     *KeysHTTP

	Sessions *Sessions
	Gate     *middleware.Gate

	// Ready backs /health/ready. Nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api")

	products := api.Group("/products")
	products.GET("", d.ProductHandler.ListProducts)
	products.GET("/slug/:slug", d.ProductHandler.GetProductBySlug)
	products.GET("/:id", d.ProductHandler.GetProduct)

	users := api.Group("/users")
	users.POST("/register", d.UserHandler.Register)
	users.POST("/login", d.UserHandler.Login)
	users.PUT("/profile", d.UserHandler.UpdateProfile, d.Gate.RequireAuth)

	api.GET("/keys/paypal", d.KeysHandler.PayPal, d.Gate.RequireAuth)

	orders := api.Group("/orders", d.Gate.RequireAuth)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PUT("/:id/pay", d.OrderHandler.PayOrder)
	orders.PUT("/:id/deliver", d.OrderHandler.DeliverOrder, d.Gate.RequireAdmin)

	sess := api.Group("/session", d.Sessions.Middleware)
	sess.GET("", d.SessionHandler.GetSession)
	sess.POST("/actions", d.SessionHandler.Dispatch)
	sess.POST("/cart", d.SessionHandler.AddToCart)
	sess.PATCH("/cart/:productId", d.SessionHandler.UpdateQuantity)
	sess.DELETE("/cart/:productId", d.SessionHandler.RemoveFromCart)
	sess.PUT("/shipping", d.SessionHandler.SaveShipping)
	sess.PUT("/payment", d.SessionHandler.SavePayment)
	sess.PUT("/dark-mode", d.SessionHandler.SetDarkMode)
	sess.POST("/login", d.SessionHandler.Login)
	sess.POST("/logout", d.SessionHandler.Logout)
	sess.GET("/pricing", d.SessionHandler.Pricing)

	co := api.Group("/checkout", d.Sessions.Middleware)
	co.GET("/:step", d.CheckoutHandler.Step, d.Gate.Optional)
	co.POST("/shipping/toggle-saved", d.CheckoutHandler.ToggleSavedAddress)
	co.POST("/place-order", d.CheckoutHandler.PlaceOrder, d.Gate.RequireAuth)
}
