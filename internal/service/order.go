package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

const OrderEventsTopic = "order_events"

type OrderService struct {
	Orders   OrderStore
	Products ProductReader
	Events   events.Publisher
	Validate *validator.Validate
	Now      func() time.Time
}

type CreateOrderInput struct {
	Items           []models.CartLine
	ShippingAddress models.Address
	PaymentMethod   models.PaymentMethod

	// Prices, when set, are the totals the client showed the shopper. They
	// must match what the server computes.
	Prices *pricing.Breakdown
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *OrderService) publish(ctx context.Context, kind string, o *models.Order) {
	err := s.Events.Publish(ctx, OrderEventsTopic, o.ID.String(), map[string]any{
		"type":       kind,
		"orderID":    o.ID,
		"userID":     o.UserID,
		"totalPrice": o.TotalPrice,
		"state":      o.State(),
	})
	if err != nil {
		logging.FromContext(ctx).Warn("publish_error", "event", kind, "order_id", o.ID.String(), "error", err)
	}
}

// Create snapshots the requested lines from the live catalog and stores a new
// order in the Created state.
func (s *OrderService) Create(ctx context.Context, who authmw.Identity, in CreateOrderInput) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.create")

	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrValidation)
	}
	if err := s.Validate.Struct(in.ShippingAddress); err != nil {
		return nil, fmt.Errorf("%w: shipping address: %w", ErrValidation, err)
	}
	if !in.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: payment method %q", ErrValidation, in.PaymentMethod)
	}

	seen := make(map[uuid.UUID]struct{}, len(in.Items))
	lines := make([]models.CartLine, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}
		if _, dup := seen[it.ProductID]; dup {
			return nil, fmt.Errorf("%w: product %s listed twice", ErrValidation, it.ProductID)
		}
		seen[it.ProductID] = struct{}{}

		p, err := s.Products.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, fmt.Errorf("product %s: %w", it.ProductID, ErrNotFound)
			}
			return nil, err
		}
		if it.Quantity > p.CountInStock {
			l.Info("out_of_stock", "product_id", p.ID.String(), "requested", it.Quantity, "in_stock", p.CountInStock)
			return nil, fmt.Errorf("%w: %s", ErrOutOfStock, p.Slug)
		}
		lines = append(lines, p.Line(it.Quantity))
	}

	prices := pricing.Price(lines)
	if in.Prices != nil && *in.Prices != prices {
		l.Warn("price_mismatch", "client_total", in.Prices.TotalPrice.String(), "server_total", prices.TotalPrice.String())
		return nil, fmt.Errorf("%w: prices changed, review the cart", ErrValidation)
	}

	order := &models.Order{
		UserID:          who.ID,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPrice:      prices.ItemsPrice,
		ShippingPrice:   prices.ShippingPrice,
		TaxPrice:        prices.TaxPrice,
		TotalPrice:      prices.TotalPrice,
		CreatedAt:       s.now(),
	}
	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{CartLine: line})
	}

	if err := s.Orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	l.Info("order_created", "order_id", order.ID.String(), "total", order.TotalPrice.String())
	s.publish(ctx, "order_created", order)
	return order, nil
}

func (s *OrderService) load(ctx context.Context, who authmw.Identity, id uuid.UUID) (*models.Order, error) {
	o, err := s.Orders.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if o.UserID != who.ID && !who.IsAdmin {
		return nil, fmt.Errorf("order %s: %w", id, ErrForbidden)
	}
	return o, nil
}

func (s *OrderService) Get(ctx context.Context, who authmw.Identity, id uuid.UUID) (*models.Order, error) {
	return s.load(ctx, who, id)
}

// ListForUser returns the caller's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, who authmw.Identity) ([]models.Order, error) {
	orders, err := s.Orders.ListOrdersByUser(ctx, who.ID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// Pay marks an order paid. Of any number of concurrent calls for the same
// order exactly one succeeds; the rest get ErrAlreadyPaid.
func (s *OrderService) Pay(ctx context.Context, who authmw.Identity, id uuid.UUID, result models.PaymentResult) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.pay", "order_id", id.String())

	o, err := s.load(ctx, who, id)
	if err != nil {
		return nil, err
	}
	if o.IsPaid {
		return nil, fmt.Errorf("order %s: %w", id, ErrAlreadyPaid)
	}

	paid, err := s.Orders.MarkPaid(ctx, id, s.now(), result)
	switch {
	case errors.Is(err, repo.ErrStatusMismatch):
		l.Info("pay_race_lost")
		return nil, fmt.Errorf("order %s: %w", id, ErrAlreadyPaid)
	case errors.Is(err, repo.ErrNotFound):
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	case err != nil:
		return nil, err
	}

	l.Info("order_paid")
	s.publish(ctx, "order_paid", paid)
	return paid, nil
}

// Deliver marks an order delivered. Admin only.
func (s *OrderService) Deliver(ctx context.Context, who authmw.Identity, id uuid.UUID) (*models.Order, error) {
	if !who.IsAdmin {
		return nil, ErrForbidden
	}

	delivered, err := s.Orders.MarkDelivered(ctx, id, s.now())
	switch {
	case errors.Is(err, repo.ErrStatusMismatch):
		return nil, fmt.Errorf("order %s: %w", id, ErrAlreadyDelivered)
	case errors.Is(err, repo.ErrNotFound):
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	case err != nil:
		return nil, err
	}

	s.publish(ctx, "order_delivered", delivered)
	return delivered, nil
}
