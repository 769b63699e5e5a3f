package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

// CreateOrder stores the order and its line snapshot together.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	for i := range order.Items {
		order.Items[i].Position = i
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := withItems(r.DB.WithContext(ctx)).First(&o, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// ListOrdersByUser returns the user's orders in no particular order.
func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := withItems(r.DB.WithContext(ctx)).Where("user_id = ?", userID).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkPaid flips is_paid with a single conditional UPDATE, so of several
// concurrent callers exactly one sees a row change. The rest get
// ErrStatusMismatch, or ErrNotFound if there is no such order.
func (r *GormRepo) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time, result models.PaymentResult) (*models.Order, error) {
	return r.transition(ctx, id, "is_paid", map[string]any{
		"is_paid":               true,
		"paid_at":               at,
		"payment_id":            result.ID,
		"payment_status":        result.Status,
		"payment_update_time":   result.UpdateTime,
		"payment_email_address": result.EmailAddress,
		"updated_at":            at,
	})
}

// MarkDelivered is guarded the same way on is_delivered and does not look at
// payment state.
func (r *GormRepo) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) (*models.Order, error) {
	return r.transition(ctx, id, "is_delivered", map[string]any{
		"is_delivered": true,
		"delivered_at": at,
		"updated_at":   at,
	})
}

func (r *GormRepo) transition(ctx context.Context, id uuid.UUID, flag string, set map[string]any) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND "+flag+" = ?", id, false).
			Updates(set)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Model(&models.Order{}).Where("id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return ErrNotFound
			}
			return ErrStatusMismatch
		}
		return withItems(tx).First(&order, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
