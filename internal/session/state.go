// Package session holds the shopper's cart and checkout choices. State only
// changes through Store.Dispatch, and every change is written back to the
// session's durable storage.
package session

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

type UserInfo struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	IsAdmin bool      `json:"isAdmin"`
	Token   string    `json:"token"`
}

type Cart struct {
	Items           []models.CartLine    `json:"cartItems"`
	ShippingAddress *models.Address      `json:"shippingAddress"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod"`
}

// Snapshot is a value copy of the session. Mutating a snapshot never affects
// the store it came from.
type Snapshot struct {
	DarkMode bool      `json:"darkMode"`
	Cart     Cart      `json:"cart"`
	UserInfo *UserInfo `json:"userInfo"`
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Cart.Items = make([]models.CartLine, len(s.Cart.Items))
	copy(out.Cart.Items, s.Cart.Items)
	if s.Cart.ShippingAddress != nil {
		a := *s.Cart.ShippingAddress
		out.Cart.ShippingAddress = &a
	}
	if s.UserInfo != nil {
		u := *s.UserInfo
		out.UserInfo = &u
	}
	return out
}

func (s Snapshot) LoggedIn() bool { return s.UserInfo != nil }

func (s Snapshot) HasSavedAddress() bool {
	return s.Cart.ShippingAddress != nil && s.Cart.ShippingAddress.Address != ""
}

// Line returns the cart line for a product, if any.
func (s Snapshot) Line(productID uuid.UUID) (models.CartLine, bool) {
	for _, l := range s.Cart.Items {
		if l.ProductID == productID {
			return l, true
		}
	}
	return models.CartLine{}, false
}
