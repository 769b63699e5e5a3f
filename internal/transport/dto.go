package transport

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/session"
)

const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Notice is the message a client shows after a flow step.
type Notice struct {
	Variant string `json:"variant"`
	Message string `json:"message"`
}

func Success(msg string) *Notice { return &Notice{Variant: NoticeSuccess, Message: msg} }
func Failure(msg string) *Notice { return &Notice{Variant: NoticeError, Message: msg} }

type ErrorResponse struct {
	Message     string            `json:"message"`
	Notice      *Notice           `json:"notice,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
	AlreadyPaid bool              `json:"already_paid,omitempty"`
	Redirect    string            `json:"redirect,omitempty"`
}

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity"  validate:"min=1"`
}

type CreateOrderRequest struct {
	OrderItems      []OrderItemRequest   `json:"orderItems"      validate:"required,min=1,dive"`
	ShippingAddress models.Address       `json:"shippingAddress"`
	PaymentMethod   models.PaymentMethod `json:"paymentMethod"   validate:"required"`

	pricing.Breakdown
}

// HasPrices reports whether the client sent the totals it displayed.
func (r CreateOrderRequest) HasPrices() bool {
	return r.TotalPrice != 0
}

type PayRequest struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

type ActionRequest struct {
	Type    string          `json:"type"    validate:"required"`
	Payload json.RawMessage `json:"payload"`
}

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
}

type QuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=1"`
}

type PaymentMethodRequest struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

type DarkModeRequest struct {
	On bool `json:"on"`
}

type PlaceOrderRequest struct {
	Prices *pricing.Breakdown `json:"prices"`
}

// SessionResponse is returned by every session flow.
type SessionResponse struct {
	Session session.Snapshot `json:"session"`
	Notice  *Notice          `json:"notice,omitempty"`
}

type StepResponse struct {
	Decision    checkout.Decision  `json:"decision"`
	Notice      *Notice            `json:"notice,omitempty"`
	CanUseSaved bool               `json:"canUseSaved"`
	Pricing     *pricing.Breakdown `json:"pricing,omitempty"`
	Order       *models.Order      `json:"order,omitempty"`
}

type OrderResponse struct {
	Order  *models.Order `json:"order"`
	Notice *Notice       `json:"notice,omitempty"`
}
