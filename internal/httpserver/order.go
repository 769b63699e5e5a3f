package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

const MsgOrderPaid = "Order is paid"

type OrderHTTP struct {
	Svc *service.OrderService
}

func identity(c echo.Context) (middleware.Identity, error) {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return middleware.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return who, nil
}

func orderID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	return id, nil
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	who, err := identity(c)
	if err != nil {
		return err
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_error", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(l, "create_order_error", err)
	}

	in := service.CreateOrderInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	}
	for _, it := range req.OrderItems {
		in.Items = append(in.Items, models.CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if req.HasPrices() {
		prices := req.Breakdown
		in.Prices = &prices
	}

	order, err := h.Svc.Create(ctx, who, in)
	if err != nil {
		return fail(l, "create_order_error", err, "")
	}

	l.Info("create_order_success", "order_id", order.ID.String())
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	who, err := identity(c)
	if err != nil {
		return err
	}

	orders, err := h.Svc.ListForUser(ctx, who)
	if err != nil {
		return fail(l, "list_orders_error", err, "")
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	who, err := identity(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.Get(ctx, who, id)
	if err != nil {
		return fail(l, "get_order_error", err, "")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) PayOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.pay_order")

	who, err := identity(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req transport.PayRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "pay_order_error", err)
	}

	order, err := h.Svc.Pay(ctx, who, id, models.PaymentResult{
		ID:           req.ID,
		Status:       req.Status,
		UpdateTime:   req.UpdateTime,
		EmailAddress: req.EmailAddress,
	})
	if err != nil {
		return fail(l, "pay_order_error", err, "")
	}

	l.Info("pay_order_success", "order_id", id.String())
	return c.JSON(http.StatusOK, transport.OrderResponse{Order: order, Notice: transport.Success(MsgOrderPaid)})
}

func (h *OrderHTTP) DeliverOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.deliver_order")

	who, err := identity(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.Deliver(ctx, who, id)
	if err != nil {
		return fail(l, "deliver_order_error", err, "")
	}

	l.Info("deliver_order_success", "order_id", id.String())
	return c.JSON(http.StatusOK, order)
}
