package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	MsgOutOfStock      = "Sorry, product is out of stock"
	MsgAddedToCart     = "Product added to cart"
	MsgQuantityUpdated = "Product quantity updated"
	MsgRemovedFromCart = "Product removed from cart"
)

// CartService runs the cart flows that need a live stock check before the
// session changes.
type CartService struct {
	Products ProductReader
}

// AddToCart adds one more unit of the product, or the first one.
func (s *CartService) AddToCart(ctx context.Context, st *session.Store, productID uuid.UUID) (session.Snapshot, error) {
	var out session.Snapshot
	err := st.Exclusive(ctx, func(ctx context.Context) error {
		qty := 1
		if line, ok := st.Snapshot().Line(productID); ok {
			qty = line.Quantity + 1
		}
		snap, err := s.put(ctx, st, productID, qty)
		out = snap
		return err
	})
	return out, err
}

// UpdateQuantity sets the quantity of a cart line.
func (s *CartService) UpdateQuantity(ctx context.Context, st *session.Store, productID uuid.UUID, qty int) (session.Snapshot, error) {
	if qty < 1 {
		return session.Snapshot{}, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}
	var out session.Snapshot
	err := st.Exclusive(ctx, func(ctx context.Context) error {
		snap, err := s.put(ctx, st, productID, qty)
		out = snap
		return err
	})
	return out, err
}

func (s *CartService) Remove(ctx context.Context, st *session.Store, productID uuid.UUID) session.Snapshot {
	var out session.Snapshot
	_ = st.Exclusive(ctx, func(ctx context.Context) error {
		out = st.Dispatch(ctx, session.DeleteCartItem{ProductID: productID})
		return nil
	})
	return out
}

func (s *CartService) put(ctx context.Context, st *session.Store, productID uuid.UUID, qty int) (session.Snapshot, error) {
	l := logging.FromContext(ctx).With("svc", "cart.put")

	p, err := s.Products.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return session.Snapshot{}, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return session.Snapshot{}, err
	}
	if p.CountInStock < qty {
		l.Info("out_of_stock", "product_id", productID.String(), "requested", qty, "in_stock", p.CountInStock)
		return session.Snapshot{}, fmt.Errorf("%w: %s", ErrOutOfStock, p.Slug)
	}
	return st.Dispatch(ctx, session.AddCartItem{Line: p.Line(qty)}), nil
}

