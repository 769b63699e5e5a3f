package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

const MsgOrderPlaced = "Order is placed"

type CheckoutHTTP struct {
	Orders   *service.OrderService
	Checkout *service.CheckoutService
}

// Step reports whether the shopper may enter a checkout step and where to go
// if not. It never changes the session.
func (h *CheckoutHTTP) Step(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.step")

	step, err := checkout.ParseStep(c.Param("step"))
	if err != nil {
		l.Warn("checkout_step_error", "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "unknown step")
	}

	snap := storeOf(c).Snapshot()
	in := checkout.Input{Session: snap, Redirect: c.QueryParam("redirect")}
	if step == checkout.StepOrderDetail {
		if err := h.loadOrder(c, &in); err != nil {
			return fail(l, "checkout_step_error", err, "")
		}
	}

	d := checkout.Evaluate(step, in)
	res := transport.StepResponse{Decision: d}
	if !d.Allowed {
		if d.Message != "" {
			res.Notice = transport.Failure(d.Message)
		}
		return c.JSON(http.StatusOK, res)
	}

	switch step {
	case checkout.StepShipping:
		res.CanUseSaved = checkout.CanUseSaved(snap)
	case checkout.StepPlaceOrder:
		p := pricing.Price(snap.Cart.Items)
		res.Pricing = &p
	case checkout.StepOrderDetail:
		p := pricing.Of(in.Order)
		res.Order = in.Order
		res.Pricing = &p
	}
	return c.JSON(http.StatusOK, res)
}

// loadOrder fetches the order named by the orderId query on behalf of the
// gate-verified caller. Orders the caller may not see are reported as absent.
func (h *CheckoutHTTP) loadOrder(c echo.Context, in *checkout.Input) error {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return nil
	}
	in.Caller = &who

	id, err := uuid.Parse(c.QueryParam("orderId"))
	if err != nil {
		in.OrderErr = service.ErrNotFound
		return nil
	}

	o, err := h.Orders.Get(c.Request().Context(), who, id)
	switch {
	case errors.Is(err, service.ErrForbidden):
	case errors.Is(err, service.ErrNotFound):
		in.OrderErr = err
	case err != nil:
		return err
	default:
		in.Order = o
	}
	return nil
}

func (h *CheckoutHTTP) ToggleSavedAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.toggle_saved")

	var form checkout.AddressForm
	if err := c.Bind(&form); err != nil {
		return badRequest(l, "toggle_saved_error", err)
	}

	next, err := form.ToggleSaved(storeOf(c).Snapshot())
	if errors.Is(err, checkout.ErrNoSavedAddress) {
		l.Warn("toggle_saved_error", "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, transport.ErrorResponse{
			Message: err.Error(),
			Notice:  transport.Failure(checkout.MsgSavedAddressNotFound),
		})
	}
	return c.JSON(http.StatusOK, next)
}

func (h *CheckoutHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.place_order")

	who, err := identity(c)
	if err != nil {
		return err
	}

	var req transport.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "place_order_error", err)
	}

	order, err := h.Checkout.PlaceOrder(ctx, storeOf(c), who, req.Prices)
	if err != nil {
		return fail(l, "place_order_error", err, "")
	}

	l.Info("place_order_success", "order_id", order.ID.String())
	return c.JSON(http.StatusCreated, transport.OrderResponse{Order: order, Notice: transport.Success(MsgOrderPlaced)})
}
