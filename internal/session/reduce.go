package session

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

// Reduce returns the state after applying a. It never mutates s and never
// fails; preconditions such as stock checks belong to the caller.
func Reduce(s Snapshot, a Action) Snapshot {
	next := s.clone()

	switch a := a.(type) {
	case DarkModeOn:
		next.DarkMode = true
	case DarkModeOff:
		next.DarkMode = false
	case AddCartItem:
		next.Cart.Items = upsert(next.Cart.Items, a.Line)
	case DeleteCartItem:
		next.Cart.Items = remove(next.Cart.Items, a.ProductID)
	case ClearCart:
		next.Cart.Items = []models.CartLine{}
	case SaveShippingAddress:
		addr := a.Address
		next.Cart.ShippingAddress = &addr
	case SavePaymentMethod:
		next.Cart.PaymentMethod = a.Method
	case UserLogin:
		u := a.User
		next.UserInfo = &u
	case UserLogout:
		next.UserInfo = nil
		next.Cart.Items = []models.CartLine{}
	case Unknown:
	}

	return next
}

// upsert replaces the line for the same product in place, or appends.
func upsert(items []models.CartLine, line models.CartLine) []models.CartLine {
	for i := range items {
		if items[i].ProductID == line.ProductID {
			items[i] = line
			return items
		}
	}
	return append(items, line)
}

func remove(items []models.CartLine, productID uuid.UUID) []models.CartLine {
	out := items[:0]
	for _, l := range items {
		if l.ProductID != productID {
			out = append(out, l)
		}
	}
	return out
}
