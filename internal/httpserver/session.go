package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	MsgAddressSaved = "Shipping address saved"
	MsgPaymentSaved = "Payment method saved"
	MsgLoggedIn     = "Logged in"
	MsgLoggedOut    = "Logged out"

	MsgInvalidAction = "Invalid action"
)

type SessionHTTP struct {
	Cart   *service.CartService
	Auth   *service.AuthService
	Secure bool
}

func reply(c echo.Context, snap session.Snapshot, notice *transport.Notice) error {
	return c.JSON(http.StatusOK, transport.SessionResponse{Session: snap, Notice: notice})
}

func productID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	return id, nil
}

func (h *SessionHTTP) GetSession(c echo.Context) error {
	return reply(c, storeOf(c).Snapshot(), nil)
}

// Dispatch applies a raw tagged action. Unknown tags and malformed payloads
// leave the session as it is.
func (h *SessionHTTP) Dispatch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.dispatch")

	var req transport.ActionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "dispatch_error", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "dispatch_error", err)
	}

	a, err := session.DecodeAction(req.Type, req.Payload)
	if err != nil {
		l.Warn("dispatch_ignored", "type", req.Type, "error", err)
		return reply(c, storeOf(c).Snapshot(), transport.Failure(MsgInvalidAction))
	}
	if _, unknown := a.(session.Unknown); unknown {
		l.Info("unknown_action", "type", req.Type)
	}
	return reply(c, storeOf(c).Dispatch(ctx, a), nil)
}

func (h *SessionHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.add_to_cart")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart_error", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "add_to_cart_error", err)
	}

	snap, err := h.Cart.AddToCart(ctx, storeOf(c), req.ProductID)
	if err != nil {
		return fail(l, "add_to_cart_error", err, "")
	}
	return reply(c, snap, transport.Success(service.MsgAddedToCart))
}

func (h *SessionHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.update_quantity")

	id, err := productID(c)
	if err != nil {
		return err
	}
	var req transport.QuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_quantity_error", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "update_quantity_error", err)
	}

	snap, err := h.Cart.UpdateQuantity(ctx, storeOf(c), id, req.Quantity)
	if err != nil {
		return fail(l, "update_quantity_error", err, "")
	}
	return reply(c, snap, transport.Success(service.MsgQuantityUpdated))
}

func (h *SessionHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := productID(c)
	if err != nil {
		return err
	}
	snap := h.Cart.Remove(ctx, storeOf(c), id)
	return reply(c, snap, transport.Success(service.MsgRemovedFromCart))
}

func (h *SessionHTTP) SaveShipping(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.save_shipping")

	var addr models.Address
	if err := c.Bind(&addr); err != nil {
		return badRequest(l, "save_shipping_error", err)
	}
	if err := c.Validate(&addr); err != nil {
		return badRequest(l, "save_shipping_error", err)
	}

	snap := storeOf(c).Dispatch(ctx, session.SaveShippingAddress{Address: addr})
	return reply(c, snap, transport.Success(MsgAddressSaved))
}

func (h *SessionHTTP) SavePayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.save_payment")

	var req transport.PaymentMethodRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "save_payment_error", err)
	}
	if !req.PaymentMethod.Valid() {
		l.Warn("save_payment_error", "status", 400, "method", string(req.PaymentMethod))
		return echo.NewHTTPError(http.StatusBadRequest, transport.ErrorResponse{
			Message: "invalid payment method",
			Notice:  transport.Failure(checkout.MsgSelectPaymentSubmit),
		})
	}

	snap := storeOf(c).Dispatch(ctx, session.SavePaymentMethod{Method: req.PaymentMethod})
	return reply(c, snap, transport.Success(MsgPaymentSaved))
}

func (h *SessionHTTP) SetDarkMode(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.dark_mode")

	var req transport.DarkModeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "dark_mode_error", err)
	}

	var a session.Action = session.DarkModeOff{}
	if req.On {
		a = session.DarkModeOn{}
	}
	return reply(c, storeOf(c).Dispatch(ctx, a), nil)
}

// Login checks the credentials and records the user in the session.
func (h *SessionHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "session.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "login_error", err)
	}

	us, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_error", err, "")
	}
	setAccessCookie(c, us.Token, us.ExpiresAt, h.Secure)

	snap := storeOf(c).Dispatch(ctx, session.UserLogin{User: session.UserInfo{
		ID:      us.ID,
		Name:    us.Name,
		Email:   us.Email,
		IsAdmin: us.IsAdmin,
		Token:   us.Token,
	}})
	return reply(c, snap, transport.Success(MsgLoggedIn))
}

func (h *SessionHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	clearAccessCookie(c, h.Secure)
	return reply(c, storeOf(c).Dispatch(ctx, session.UserLogout{}), transport.Success(MsgLoggedOut))
}

func (h *SessionHTTP) Pricing(c echo.Context) error {
	return c.JSON(http.StatusOK, pricing.Price(storeOf(c).Snapshot().Cart.Items))
}
