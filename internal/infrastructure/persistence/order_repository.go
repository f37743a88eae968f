package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderRepository is the gorm implementation of order.Repository
type OrderRepository struct {
	db *gorm.DB
}

var _ order.Repository = (*OrderRepository)(nil)

// NewOrderRepository creates an order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Save inserts a new order with its items
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

// FindByID loads an order with its items
func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByUser returns a page of the user's orders, newest first
func (r *OrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (shared.Paginated[*order.Order], error) {
	filter.Normalize()

	var total int64
	query := r.db.WithContext(ctx).Model(&order.Order{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return shared.Paginated[*order.Order]{}, err
	}

	var orders []*order.Order
	err := query.Preload("Items").
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&orders).Error
	if err != nil {
		return shared.Paginated[*order.Order]{}, err
	}
	return shared.NewPaginated(orders, total, filter), nil
}

// Update persists order changes with optimistic locking on Version
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	currentVersion := o.GetVersion()
	o.IncrementVersion()
	o.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(o).
		Where("id = ? AND version = ?", o.ID, currentVersion).
		Updates(map[string]any{
			"status":              o.Status,
			"payment_status":      o.PaymentStatus,
			"transaction_id":      o.TransactionID,
			"checkout_session_id": o.CheckoutSessionID,
			"version":             o.Version,
			"updated_at":          o.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// UpdatePaymentStatus performs the compare-and-set transition. The
// conditional UPDATE keyed by order id and expected payment status is
// the single ordering guard under concurrent delivery: 0 rows affected
// means another delivery already moved the order on, reported as
// shared.ErrConcurrencyConflict.
func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to order.PaymentStatus, mutate order.Mutation) (*order.Order, error) {
	var result *order.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o order.Order
		if err := tx.Preload("Items").First(&o, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrOrderNotFound
			}
			return err
		}

		if !from.CanTransitionTo(to) {
			return shared.ErrInvalidState
		}

		o.PaymentStatus = to
		if mutate != nil {
			mutate(&o)
		}
		o.IncrementVersion()
		o.UpdatedAt = time.Now()

		update := tx.Model(&order.Order{}).
			Where("id = ? AND payment_status = ?", id, from).
			Updates(map[string]any{
				"status":              o.Status,
				"payment_status":      o.PaymentStatus,
				"transaction_id":      o.TransactionID,
				"checkout_session_id": o.CheckoutSessionID,
				"version":             o.Version,
				"updated_at":          o.UpdatedAt,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		result = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FindStuckBefore returns orders still awaiting a payment outcome whose
// last update is older than the cutoff
func (r *OrderRepository) FindStuckBefore(ctx context.Context, cutoff time.Time, limit int) ([]*order.Order, error) {
	var orders []*order.Order
	err := r.db.WithContext(ctx).
		Where("payment_status IN ? AND updated_at < ?",
			[]order.PaymentStatus{order.PaymentStatusAwaitingIntent, order.PaymentStatusAwaitingConfirmation},
			cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
