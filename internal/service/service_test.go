package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/pricing"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/validation"
	"github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	authmw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	"github.com/Skotchmaster/storefront/pkg/money"
	"github.com/Skotchmaster/storefront/pkg/tokens"
)

var fixedNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

var testAddress = models.Address{
	FullName:   "Jane Doe",
	Address:    "12 Main St",
	City:       "Paris",
	PostalCode: "750001",
	Country:    "France",
}

type fixture struct {
	repo   *repo.GormRepo
	events *events.Recorder
	orders *OrderService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := db.OpenSQLite(context.Background(), "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	r := &repo.GormRepo{DB: gdb}
	require.NoError(t, r.Migrate(context.Background()))

	rec := &events.Recorder{}
	return &fixture{
		repo:   r,
		events: rec,
		orders: &OrderService{
			Orders:   r,
			Products: r,
			Events:   rec,
			Validate: validation.New(),
			Now:      func() time.Time { return fixedNow },
		},
	}
}

func (f *fixture) product(t *testing.T, slug string, price money.Money, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: "Product " + slug, Slug: slug, Price: price, CountInStock: stock}
	require.NoError(t, f.repo.CreateProduct(context.Background(), p))
	return p
}

func input(lines ...models.CartLine) CreateOrderInput {
	return CreateOrderInput{Items: lines, ShippingAddress: testAddress, PaymentMethod: models.PaymentPayPal}
}

func TestCatalogService(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "shirt", 4500, 3)
	f.product(t, "pants", 5000, 1)

	svc := &CatalogService{Repo: f.repo}

	got, err := svc.GetProductBySlug(ctx, "shirt")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.GetProduct(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	page, err := svc.ListProducts(ctx, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Products, 1)
	assert.Equal(t, 1, page.Page)
}

func TestCartService_AddIncrementsAndChecksStock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "shirt", 4500, 2)
	st := session.Load(ctx, session.NewMemoryStorage())
	svc := &CartService{Products: f.repo}

	snap, err := svc.AddToCart(ctx, st, p.ID)
	require.NoError(t, err)
	require.Len(t, snap.Cart.Items, 1)
	assert.Equal(t, 1, snap.Cart.Items[0].Quantity)

	snap, err = svc.AddToCart(ctx, st, p.ID)
	require.NoError(t, err)
	require.Len(t, snap.Cart.Items, 1)
	assert.Equal(t, 2, snap.Cart.Items[0].Quantity)

	_, err = svc.AddToCart(ctx, st, p.ID)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 2, st.Snapshot().Cart.Items[0].Quantity, "failed add leaves the cart alone")

	_, err = svc.AddToCart(ctx, st, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartService_UpdateAndRemove(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "shirt", 4500, 5)
	st := session.Load(ctx, session.NewMemoryStorage())
	svc := &CartService{Products: f.repo}

	_, err := svc.UpdateQuantity(ctx, st, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Snapshot().Cart.Items[0].Quantity)

	_, err = svc.UpdateQuantity(ctx, st, p.ID, 6)
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = svc.UpdateQuantity(ctx, st, p.ID, 0)
	assert.ErrorIs(t, err, ErrValidation)

	snap := svc.Remove(ctx, st, p.ID)
	assert.Empty(t, snap.Cart.Items)
}

func TestOrderService_Create(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "shirt", 4500, 5)
	who := authmw.Identity{ID: uuid.New()}

	o, err := f.orders.Create(ctx, who, input(models.CartLine{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)

	assert.Equal(t, who.ID, o.UserID)
	assert.Equal(t, models.OrderCreated, o.State())
	assert.Equal(t, money.Money(9000), o.ItemsPrice)
	assert.Equal(t, money.Money(1500), o.ShippingPrice)
	assert.Equal(t, money.Money(1350), o.TaxPrice)
	assert.Equal(t, money.Money(11850), o.TotalPrice)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Product shirt", o.Items[0].Name)

	msgs := f.events.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, OrderEventsTopic, msgs[0].Topic)
	var ev map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Value, &ev))
	assert.Equal(t, "order_created", ev["type"])
}

func TestOrderService_Create_Rejects(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "shirt", 4500, 1)
	who := authmw.Identity{ID: uuid.New()}

	badAddr := input(models.CartLine{ProductID: p.ID, Quantity: 1})
	badAddr.ShippingAddress.PostalCode = "abcdef"

	badMethod := input(models.CartLine{ProductID: p.ID, Quantity: 1})
	badMethod.PaymentMethod = "Bitcoin"

	wrongPrices := input(models.CartLine{ProductID: p.ID, Quantity: 1})
	wrongPrices.Prices = &pricing.Breakdown{ItemsPrice: 100, ShippingPrice: 1500, TaxPrice: 15, TotalPrice: 1615}

	tests := []struct {
		name string
		in   CreateOrderInput
		want error
	}{
		{"empty", input(), ErrValidation},
		{"bad address", badAddr, ErrValidation},
		{"bad method", badMethod, ErrValidation},
		{"zero quantity", input(models.CartLine{ProductID: p.ID, Quantity: 0}), ErrValidation},
		{"duplicate", input(models.CartLine{ProductID: p.ID, Quantity: 1}, models.CartLine{ProductID: p.ID, Quantity: 1}), ErrValidation},
		{"out of stock", input(models.CartLine{ProductID: p.ID, Quantity: 2}), ErrOutOfStock},
		{"unknown product", input(models.CartLine{ProductID: uuid.New(), Quantity: 1}), ErrNotFound},
		{"price mismatch", wrongPrices, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.Create(ctx, who, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	orders, err := f.orders.ListForUser(ctx, who)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.events.Messages())
}

func TestOrderService_Create_MatchingPrices(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.product(t, "shirt", 5000, 1)

	in := input(models.CartLine{ProductID: p.ID, Quantity: 1})
	want := pricing.Price([]models.CartLine{p.Line(1)})
	in.Prices = &want

	o, err := f.orders.Create(context.Background(), authmw.Identity{ID: uuid.New()}, in)
	require.NoError(t, err)
	assert.Equal(t, money.Money(7250), o.TotalPrice)
}

func TestOrderService_SnapshotSurvivesCatalogChange(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "shirt", 4500, 5)
	who := authmw.Identity{ID: uuid.New()}

	o, err := f.orders.Create(ctx, who, input(models.CartLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	require.NoError(t, f.repo.DB.Model(&models.Product{}).Where("id = ?", p.ID).
		Updates(map[string]any{"price": 9900, "name": "Renamed"}).Error)

	got, err := f.orders.Get(ctx, who, o.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(4500), got.Items[0].Price)
	assert.Equal(t, "Product shirt", got.Items[0].Name)
	assert.Equal(t, o.TotalPrice, got.TotalPrice)
}

func TestOrderService_Ownership(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "shirt", 4500, 5)
	owner := authmw.Identity{ID: uuid.New()}
	stranger := authmw.Identity{ID: uuid.New()}
	admin := authmw.Identity{ID: uuid.New(), IsAdmin: true}

	o, err := f.orders.Create(ctx, owner, input(models.CartLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = f.orders.Get(ctx, stranger, o.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.orders.Pay(ctx, stranger, o.ID, models.PaymentResult{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.orders.Get(ctx, admin, o.ID)
	assert.NoError(t, err)

	_, err = f.orders.Get(ctx, owner, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_Pay_AtMostOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "shirt", 4500, 5)
	who := authmw.Identity{ID: uuid.New()}

	o, err := f.orders.Create(ctx, who, input(models.CartLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	paid, err := f.orders.Pay(ctx, who, o.ID, models.PaymentResult{ID: "PAY-1", Status: "COMPLETED"})
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paid.PaidAt.Equal(fixedNow))
	assert.Equal(t, "PAY-1", paid.PaymentResult.ID)

	_, err = f.orders.Pay(ctx, who, o.ID, models.PaymentResult{ID: "PAY-2"})
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	got, err := f.orders.Get(ctx, who, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAY-1", got.PaymentResult.ID)

	_, err = f.orders.Pay(ctx, who, uuid.New(), models.PaymentResult{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_Pay_Concurrent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "shirt", 4500, 5)
	who := authmw.Identity{ID: uuid.New()}

	o, err := f.orders.Create(ctx, who, input(models.CartLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.orders.Pay(ctx, who, o.ID, models.PaymentResult{ID: "PAY"})
		}(i)
	}
	wg.Wait()

	var ok, already int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyPaid):
			already++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, already)
}

func TestOrderService_Deliver(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "shirt", 4500, 5)
	who := authmw.Identity{ID: uuid.New()}
	admin := authmw.Identity{ID: uuid.New(), IsAdmin: true}

	o, err := f.orders.Create(ctx, who, input(models.CartLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = f.orders.Deliver(ctx, who, o.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	d, err := f.orders.Deliver(ctx, admin, o.ID)
	require.NoError(t, err)
	assert.True(t, d.IsDelivered)
	assert.False(t, d.IsPaid)

	_, err = f.orders.Deliver(ctx, admin, o.ID)
	assert.ErrorIs(t, err, ErrAlreadyDelivered)

	_, err = f.orders.Deliver(ctx, admin, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderService_ListForUser_NewestFirst(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "shirt", 4500, 5)
	who := authmw.Identity{ID: uuid.New()}

	now := fixedNow
	f.orders.Now = func() time.Time { return now }
	first, err := f.orders.Create(ctx, who, input(models.CartLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	now = now.Add(time.Hour)
	second, err := f.orders.Create(ctx, who, input(models.CartLine{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)
	_, err = f.orders.Create(ctx, authmw.Identity{ID: uuid.New()}, input(models.CartLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	orders, err := f.orders.ListForUser(ctx, who)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}

func TestCheckoutService_PlaceOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "shirt", 4500, 5)
	who := authmw.Identity{ID: uuid.New()}
	svc := &CheckoutService{Orders: f.orders}

	st := session.Load(ctx, session.NewMemoryStorage())
	st.Dispatch(ctx, session.UserLogin{User: session.UserInfo{ID: who.ID, Name: "Jane"}})
	st.Dispatch(ctx, session.AddCartItem{Line: p.Line(2)})
	st.Dispatch(ctx, session.SaveShippingAddress{Address: testAddress})

	_, err := svc.PlaceOrder(ctx, st, who, nil)
	var redirect *RedirectError
	require.ErrorAs(t, err, &redirect)
	assert.Equal(t, "/payment", redirect.Decision.Redirect)
	assert.Equal(t, checkout.MsgSelectPayment, redirect.Decision.Message)

	st.Dispatch(ctx, session.SavePaymentMethod{Method: models.PaymentStripe})
	o, err := svc.PlaceOrder(ctx, st, who, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStripe, o.PaymentMethod)
	assert.Equal(t, testAddress, o.ShippingAddress)
	assert.Empty(t, st.Snapshot().Cart.Items)
	assert.NotNil(t, st.Snapshot().Cart.ShippingAddress)
}

func TestCheckoutService_PlaceOrder_FailureKeepsCart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "shirt", 4500, 1)
	who := authmw.Identity{ID: uuid.New()}
	svc := &CheckoutService{Orders: f.orders}

	st := session.Load(ctx, session.NewMemoryStorage())
	st.Dispatch(ctx, session.UserLogin{User: session.UserInfo{ID: who.ID}})
	st.Dispatch(ctx, session.AddCartItem{Line: p.Line(3)})
	st.Dispatch(ctx, session.SaveShippingAddress{Address: testAddress})
	st.Dispatch(ctx, session.SavePaymentMethod{Method: models.PaymentCash})

	_, err := svc.PlaceOrder(ctx, st, who, nil)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Len(t, st.Snapshot().Cart.Items, 1)
}

func TestAuthService(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	issuer := tokens.NewIssuer([]byte("secret"), time.Hour)
	svc := &AuthService{Repo: f.repo, Tokens: issuer, Events: f.events}

	reg, err := svc.Register(ctx, "Jane", "Jane@Example.com", "pa55word")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "jane@example.com", reg.Email)

	_, err = svc.Register(ctx, "Jane", "jane@example.com", "other")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Register(ctx, "", "x@example.com", "pw")
	assert.ErrorIs(t, err, ErrValidation)

	login, err := svc.Login(ctx, "jane@example.com", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, login.ID)

	claims, err := tokens.AccessClaimsFromToken(login.Token, []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, reg.ID.String(), claims.Subject)
	assert.Equal(t, tokens.RoleUser, claims.Role)

	_, err = svc.Login(ctx, "jane@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "pa55word")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	upd, err := svc.UpdateProfile(ctx, reg.ID, "Jane Roe", "jane.roe@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", upd.Name)
	_, err = svc.Login(ctx, "jane.roe@example.com", "pa55word")
	assert.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, uuid.New(), "X", "x@example.com", "")
	assert.ErrorIs(t, err, ErrNotFound)

	require.Len(t, f.events.Messages(), 1)
	assert.Equal(t, UserEventsTopic, f.events.Messages()[0].Topic)
}
