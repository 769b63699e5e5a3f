package checkout

import (
	"errors"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
)

var ErrNoSavedAddress = errors.New("saved address not found")

// AddressForm is the shipping step's form. The "use saved address" toggle
// swaps the saved address in and puts the shopper's draft back when it is
// switched off.
type AddressForm struct {
	Fields   models.Address `json:"fields"`
	UseSaved bool           `json:"useSaved"`
	Draft    models.Address `json:"draft"`
}

// CanUseSaved reports whether the toggle should be offered.
func CanUseSaved(s session.Snapshot) bool {
	return s.HasSavedAddress()
}

func (f AddressForm) ToggleSaved(s session.Snapshot) (AddressForm, error) {
	if f.UseSaved {
		return AddressForm{Fields: f.Draft}, nil
	}
	if !CanUseSaved(s) {
		return f, ErrNoSavedAddress
	}
	return AddressForm{
		Fields:   *s.Cart.ShippingAddress,
		UseSaved: true,
		Draft:    f.Fields,
	}, nil
}
