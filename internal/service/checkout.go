package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/session"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

// RedirectError is returned when the session does not meet a step's
// prerequisites. The client navigates to Decision.Redirect.
type RedirectError struct {
	Decision checkout.Decision
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("checkout %s blocked: %s", e.Decision.Step, e.Decision.Message)
}

type CheckoutService struct {
	Orders *OrderService
}

// PlaceOrder turns the session's cart into an order and clears the cart. The
// session is only changed when the order was stored.
func (s *CheckoutService) PlaceOrder(ctx context.Context, st *session.Store, who authmw.Identity, prices *pricing.Breakdown) (*models.Order, error) {
	var order *models.Order
	err := st.Exclusive(ctx, func(ctx context.Context) error {
		snap := st.Snapshot()
		if d := checkout.Evaluate(checkout.StepPlaceOrder, checkout.Input{Session: snap}); !d.Allowed {
			return &RedirectError{Decision: d}
		}

		o, err := s.Orders.Create(ctx, who, CreateOrderInput{
			Items:           snap.Cart.Items,
			ShippingAddress: *snap.Cart.ShippingAddress,
			PaymentMethod:   snap.Cart.PaymentMethod,
			Prices:          prices,
		})
		if err != nil {
			return err
		}
		st.Dispatch(ctx, session.ClearCart{})
		order = o
		return nil
	})
	return order, err
}
