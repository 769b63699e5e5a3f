// Package seed loads a sample catalog and two accounts into an empty store.
package seed

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/hash"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/money"
)

type Account struct {
	Name     string
	Email    string
	Password string
	IsAdmin  bool
}

var Accounts = []Account{
	{Name: "Admin", Email: "admin@example.com", Password: "admin123", IsAdmin: true},
	{Name: "Jane", Email: "jane@example.com", Password: "jane1234"},
}

var Products = []models.Product{
	{Name: "Free Shirt", Slug: "free-shirt", Category: "Shirts", Image: "/images/shirt1.jpg", Brand: "Nike", Description: "A popular shirt", Price: money.FromCents(7000), Rating: 4.5, NumReviews: 10, CountInStock: 20},
	{Name: "Fit Shirt", Slug: "fit-shirt", Category: "Shirts", Image: "/images/shirt2.jpg", Brand: "Adidas", Description: "A slim fit shirt", Price: money.FromCents(8000), Rating: 4.2, NumReviews: 10, CountInStock: 20},
	{Name: "Slim Shirt", Slug: "slim-shirt", Category: "Shirts", Image: "/images/shirt3.jpg", Brand: "Raymond", Description: "A slim shirt", Price: money.FromCents(9000), Rating: 4.5, NumReviews: 3, CountInStock: 20},
	{Name: "Golf Pants", Slug: "golf-pants", Category: "Pants", Image: "/images/pants1.jpg", Brand: "Oliver", Description: "Smart looking pants", Price: money.FromCents(9000), Rating: 4.5, NumReviews: 14, CountInStock: 20},
	{Name: "Fit Pants", Slug: "fit-pants", Category: "Pants", Image: "/images/pants2.jpg", Brand: "Zara", Description: "A popular pants", Price: money.FromCents(9500), Rating: 4.5, NumReviews: 10, CountInStock: 0},
	{Name: "Classic Pants", Slug: "classic-pants", Category: "Pants", Image: "/images/pants3.jpg", Brand: "Casely", Description: "A popular pants", Price: money.FromCents(7500), Rating: 4.5, NumReviews: 8, CountInStock: 20},
}

// Run replaces every product and user with the sample data.
func Run(ctx context.Context, r *repo.GormRepo) error {
	l := logging.FromContext(ctx).With("component", "seed")

	users := make([]models.User, 0, len(Accounts))
	for _, a := range Accounts {
		pw, err := hash.HashPassword(a.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", a.Email, err)
		}
		users = append(users, models.User{Name: a.Name, Email: a.Email, PasswordHash: pw, IsAdmin: a.IsAdmin})
	}
	if err := r.ReplaceUsers(ctx, users); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	products := make([]models.Product, len(Products))
	copy(products, Products)
	if err := r.ReplaceProducts(ctx, products); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}

	l.Info("seeded", "users", len(users), "products", len(products))
	return nil
}
