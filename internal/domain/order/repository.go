package order

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Mutation applies additional field changes inside a conditional
// status transition (transaction id, session id, order status).
type Mutation func(*Order)

// Repository persists orders
type Repository interface {
	Save(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (shared.Paginated[*Order], error)
	Update(ctx context.Context, o *Order) error

	// UpdatePaymentStatus performs a compare-and-set transition keyed by
	// order id and expected current payment status. It returns
	// shared.ErrConcurrencyConflict when the order is no longer in the
	// expected status, which callers treat as an already-processed
	// delivery. The mutation runs only when the guard matches and is
	// committed atomically with the status change.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to PaymentStatus, mutate Mutation) (*Order, error)

	// FindStuckBefore returns orders still awaiting a payment outcome
	// whose last update is older than the cutoff.
	FindStuckBefore(ctx context.Context, cutoff time.Time, limit int) ([]*Order, error)
}
