package session

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	TagDarkModeOn          = "DARK_MODE_ON"
	TagDarkModeOff         = "DARK_MODE_OFF"
	TagAddCartItem         = "ADD_CART_ITEM"
	TagDeleteCartItem      = "DELETE_CART_ITEM"
	TagClearCart           = "CLEAR_CART"
	TagSaveShippingAddress = "SAVE_SHIPPING_ADDRESS"
	TagSavePaymentMethod   = "SAVE_PAYMENT_METHOD"
	TagUserLogin           = "USER_LOGIN"
	TagUserLogout          = "USER_LOGOUT"
)

// Action is the closed set of session mutations. Only types in this package
// implement it.
type Action interface {
	Tag() string
	action()
}

type (
	DarkModeOn  struct{}
	DarkModeOff struct{}

	AddCartItem struct {
		Line models.CartLine
	}

	DeleteCartItem struct {
		ProductID uuid.UUID
	}

	ClearCart struct{}

	SaveShippingAddress struct {
		Address models.Address
	}

	SavePaymentMethod struct {
		Method models.PaymentMethod
	}

	UserLogin struct {
		User UserInfo
	}

	UserLogout struct{}

	// Unknown carries an unrecognised tag, e.g. from an older client. It
	// reduces to the unchanged state.
	Unknown struct {
		Name string
	}
)

func (DarkModeOn) Tag() string          { return TagDarkModeOn }
func (DarkModeOff) Tag() string         { return TagDarkModeOff }
func (AddCartItem) Tag() string         { return TagAddCartItem }
func (DeleteCartItem) Tag() string      { return TagDeleteCartItem }
func (ClearCart) Tag() string           { return TagClearCart }
func (SaveShippingAddress) Tag() string { return TagSaveShippingAddress }
func (SavePaymentMethod) Tag() string   { return TagSavePaymentMethod }
func (UserLogin) Tag() string           { return TagUserLogin }
func (UserLogout) Tag() string          { return TagUserLogout }
func (u Unknown) Tag() string           { return u.Name }

func (DarkModeOn) action()          {}
func (DarkModeOff) action()         {}
func (AddCartItem) action()         {}
func (DeleteCartItem) action()      {}
func (ClearCart) action()           {}
func (SaveShippingAddress) action() {}
func (SavePaymentMethod) action()   {}
func (UserLogin) action()           {}
func (UserLogout) action()          {}
func (Unknown) action()             {}

// DecodeAction turns a wire action {type, payload} into an Action. Unknown
// tags decode to Unknown; a known tag with an unreadable payload is an error.
func DecodeAction(tag string, payload json.RawMessage) (Action, error) {
	switch tag {
	case TagDarkModeOn:
		return DarkModeOn{}, nil
	case TagDarkModeOff:
		return DarkModeOff{}, nil
	case TagClearCart:
		return ClearCart{}, nil
	case TagUserLogout:
		return UserLogout{}, nil
	case TagAddCartItem:
		var a AddCartItem
		if err := decodeInto(tag, payload, &a.Line); err != nil {
			return nil, err
		}
		return a, nil
	case TagDeleteCartItem:
		var p struct {
			ProductID uuid.UUID `json:"productId"`
		}
		if err := decodeInto(tag, payload, &p); err != nil {
			return nil, err
		}
		return DeleteCartItem{ProductID: p.ProductID}, nil
	case TagSaveShippingAddress:
		var a SaveShippingAddress
		if err := decodeInto(tag, payload, &a.Address); err != nil {
			return nil, err
		}
		return a, nil
	case TagSavePaymentMethod:
		var m models.PaymentMethod
		if err := decodeInto(tag, payload, &m); err != nil {
			return nil, err
		}
		if !m.Valid() {
			return nil, fmt.Errorf("%s: unsupported payment method %q", tag, m)
		}
		return SavePaymentMethod{Method: m}, nil
	case TagUserLogin:
		var a UserLogin
		if err := decodeInto(tag, payload, &a.User); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return Unknown{Name: tag}, nil
	}
}

func decodeInto(tag string, payload json.RawMessage, dst any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%s: payload required", tag)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%s: %w", tag, err)
	}
	return nil
}
