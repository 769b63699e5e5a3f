// Package checkout decides, for each checkout step, whether the shopper may
// enter it or must be sent back. Each evaluation looks only at the current
// session, never at how the shopper got there.
package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Step int

const (
	StepLogin Step = iota
	StepShipping
	StepPayment
	StepPlaceOrder
	StepOrderDetail
)

var stepNames = [...]string{"login", "shipping", "payment", "placeorder", "order"}

func (s Step) String() string {
	if s < StepLogin || s > StepOrderDetail {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// Path is the page a step lives on.
func (s Step) Path() string {
	switch s {
	case StepLogin:
		return "/login"
	case StepShipping:
		return "/shipping"
	case StepPayment:
		return "/payment"
	case StepPlaceOrder:
		return "/order"
	default:
		return "/order/"
	}
}

var ErrUnknownStep = errors.New("unknown checkout step")

func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if strings.EqualFold(n, name) {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStep, name)
}

const (
	MsgLoginToProceed       = "Login to proceed"
	MsgNoItemsInCart        = "No items in cart"
	MsgAddressNotFound      = "Shipping address not found"
	MsgSelectPayment        = "Select a payment method"
	MsgSelectPaymentSubmit  = "Select a payment method to proceed"
	MsgSavedAddressNotFound = "Saved address not found"
	MsgOrderNotFound        = "Order not found"
	MsgOrderDetailNotFound  = "Order details not found"
)

// Input is what a step is evaluated against.
type Input struct {
	Session session.Snapshot

	// Redirect is the login page's return target.
	Redirect string

	// Caller is the identity the auth gate established, nil when the request
	// carried no valid credential. OrderDetail trusts only this, never the
	// session's user info.
	Caller *authmw.Identity

	// Order and OrderErr carry the OrderDetail fetch result. A lookup the
	// caller may not see leaves both nil.
	Order    *models.Order
	OrderErr error
}

type Decision struct {
	Step     Step   `json:"step"`
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Prerequisite is one entry condition of a step.
type Prerequisite struct {
	Name     string
	Holds    func(Input) bool
	Redirect func(Input) string
	Message  string
}

func to(path string) func(Input) string {
	return func(Input) string { return path }
}

func loggedIn(in Input) bool  { return in.Session.LoggedIn() }
func cartFilled(in Input) bool { return len(in.Session.Cart.Items) > 0 }

func requireLogin(s Step) Prerequisite {
	return Prerequisite{
		Name:     "logged_in",
		Holds:    loggedIn,
		Redirect: to("/login?redirect=" + s.Path()),
		Message:  MsgLoginToProceed,
	}
}

var requireCart = Prerequisite{
	Name:     "cart_not_empty",
	Holds:    cartFilled,
	Redirect: to("/"),
	Message:  MsgNoItemsInCart,
}

var requireAddress = Prerequisite{
	Name:     "shipping_address",
	Holds:    func(in Input) bool { return in.Session.HasSavedAddress() },
	Redirect: to("/shipping"),
	Message:  MsgAddressNotFound,
}

var requirePayment = Prerequisite{
	Name:     "payment_method",
	Holds:    func(in Input) bool { return in.Session.Cart.PaymentMethod.Valid() },
	Redirect: to("/payment"),
	Message:  MsgSelectPayment,
}

// Prerequisites returns a step's conditions in evaluation order.
func Prerequisites(s Step) []Prerequisite {
	switch s {
	case StepLogin:
		return []Prerequisite{{
			Name:     "not_logged_in",
			Holds:    func(in Input) bool { return !loggedIn(in) },
			Redirect: func(in Input) string { return SafeRedirect(in.Redirect) },
		}}
	case StepShipping:
		return []Prerequisite{requireLogin(s), requireCart}
	case StepPayment:
		return []Prerequisite{requireLogin(s), requireCart, requireAddress}
	case StepPlaceOrder:
		return []Prerequisite{requireLogin(s), requireCart, requirePayment, requireAddress}
	case StepOrderDetail:
		return []Prerequisite{
			{Name: "authenticated", Holds: func(in Input) bool { return in.Caller != nil }, Redirect: to("/login"), Message: MsgLoginToProceed},
			{
				Name:     "order_found",
				Holds:    func(in Input) bool { return in.OrderErr == nil },
				Redirect: to("/"),
				Message:  MsgOrderNotFound,
			},
			{Name: "order_owner", Holds: ownsOrder, Redirect: to("/"), Message: MsgOrderDetailNotFound},
		}
	}
	return nil
}

func ownsOrder(in Input) bool {
	who := in.Caller
	return who != nil && in.Order != nil && (who.IsAdmin || in.Order.UserID == who.ID)
}

// Evaluate checks a step's prerequisites in order. The first one that does
// not hold decides where the shopper goes.
func Evaluate(s Step, in Input) Decision {
	for _, p := range Prerequisites(s) {
		if !p.Holds(in) {
			return Decision{Step: s, Redirect: p.Redirect(in), Message: p.Message}
		}
	}
	return Decision{Step: s, Allowed: true}
}

// SafeRedirect keeps return targets on this site.
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return "/"
	}
	return target
}
