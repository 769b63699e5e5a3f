package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

type ProductReader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type CatalogStore interface {
	ProductReader
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
}

// OrderStore is implemented by repo.GormRepo and repo.DynamoOrderRepo.
// MarkPaid and MarkDelivered must be conditional writes.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time, result models.PaymentResult) (*models.Order, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) (*models.Order, error)
}
