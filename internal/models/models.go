package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/pkg/money"
)

type PaymentMethod string

const (
	PaymentPayPal PaymentMethod = "PayPal"
	PaymentStripe PaymentMethod = "Stripe"
	PaymentCash   PaymentMethod = "Cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentPayPal, PaymentStripe, PaymentCash:
		return true
	}
	return false
}

type Address struct {
	FullName   string `json:"fullName"   validate:"required,min=4,hasalpha"`
	Address    string `json:"address"    validate:"required,min=4"`
	City       string `json:"city"       validate:"required,min=3,hasalpha"`
	PostalCode string `json:"postalCode" validate:"required,min=6,hasdigit"`
	Country    string `json:"country"    validate:"required,min=3,hasalpha"`
}

// CartLine is one product in a cart. Orders keep a copy of the lines as they
// were at placement time.
type CartLine struct {
	ProductID    uuid.UUID   `gorm:"not null"  json:"productId"    validate:"required"`
	Slug         string      `                 json:"slug"`
	Name         string      `gorm:"not null"  json:"name"         validate:"required"`
	Image        string      `                 json:"image"`
	Price        money.Money `gorm:"not null"  json:"price"        validate:"gte=0"`
	Quantity     int         `gorm:"not null"  json:"quantity"     validate:"min=1"`
	CountInStock int         `                 json:"countInStock" validate:"gte=0"`
}

type Product struct {
	ID           uuid.UUID   `gorm:"primaryKey"             json:"id"`
	Name         string      `gorm:"not null"               json:"name"`
	Slug         string      `gorm:"uniqueIndex;not null"   json:"slug"`
	Category     string      `gorm:"index"                  json:"category"`
	Image        string      `                              json:"image"`
	Brand        string      `                              json:"brand"`
	Description  string      `                              json:"description"`
	Price        money.Money `gorm:"not null"               json:"price"`
	Rating       float64     `                              json:"rating"`
	NumReviews   int         `                              json:"numReviews"`
	CountInStock int         `gorm:"not null;default:0"     json:"countInStock"`
	CreatedAt    time.Time   `                              json:"createdAt"`
	UpdatedAt    time.Time   `                              json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Line builds a cart line for the product with the given quantity.
func (p Product) Line(quantity int) CartLine {
	return CartLine{
		ProductID:    p.ID,
		Slug:         p.Slug,
		Name:         p.Name,
		Image:        p.Image,
		Price:        p.Price,
		Quantity:     quantity,
		CountInStock: p.CountInStock,
	}
}

type User struct {
	ID           uuid.UUID `gorm:"primaryKey"             json:"id"`
	Name         string    `gorm:"not null"               json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"   json:"email"`
	PasswordHash string    `gorm:"not null"               json:"-"`
	IsAdmin      bool      `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt    time.Time `                              json:"createdAt"`
	UpdatedAt    time.Time `                              json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type PaymentResult struct {
	ID           string `json:"id,omitempty"`
	Status       string `json:"status,omitempty"`
	UpdateTime   string `json:"updateTime,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

type OrderState string

const (
	OrderCreated   OrderState = "created"
	OrderPaid      OrderState = "paid"
	OrderDelivered OrderState = "delivered"
)

type Order struct {
	ID              uuid.UUID     `gorm:"primaryKey"                                    json:"id"`
	UserID          uuid.UUID     `gorm:"index;not null"                                json:"userId"`
	Items           []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"orderItems"`
	ShippingAddress Address       `gorm:"embedded;embeddedPrefix:shipping_"             json:"shippingAddress"`
	PaymentMethod   PaymentMethod `gorm:"not null"                                      json:"paymentMethod"`
	PaymentResult   PaymentResult `gorm:"embedded;embeddedPrefix:payment_"              json:"paymentResult"`
	ItemsPrice      money.Money   `gorm:"not null"                                      json:"itemsPrice"`
	ShippingPrice   money.Money   `gorm:"not null"                                      json:"shippingPrice"`
	TaxPrice        money.Money   `gorm:"not null"                                      json:"taxPrice"`
	TotalPrice      money.Money   `gorm:"not null"                                      json:"totalPrice"`
	IsPaid          bool          `gorm:"not null;default:false"                        json:"isPaid"`
	PaidAt          *time.Time    `                                                     json:"paidAt,omitempty"`
	IsDelivered     bool          `gorm:"not null;default:false"                        json:"isDelivered"`
	DeliveredAt     *time.Time    `                                                     json:"deliveredAt,omitempty"`
	CreatedAt       time.Time     `gorm:"index"                                         json:"createdAt"`
	UpdatedAt       time.Time     `                                                     json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (o *Order) State() OrderState {
	switch {
	case o.IsDelivered:
		return OrderDelivered
	case o.IsPaid:
		return OrderPaid
	default:
		return OrderCreated
	}
}

type OrderItem struct {
	ID       uuid.UUID `gorm:"primaryKey"      json:"-"`
	OrderID  uuid.UUID `gorm:"index;not null"  json:"-"`
	Position int       `gorm:"not null"        json:"-"`
	CartLine
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// SessionEntry is one durable key of a server-side shopper session.
type SessionEntry struct {
	SessionID string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"primaryKey;size:32"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (SessionEntry) TableName() string {
	return "session_entries"
}

// All lists the tables created by AutoMigrate.
func All() []any {
	return []any{&Product{}, &User{}, &Order{}, &OrderItem{}, &SessionEntry{}}
}
