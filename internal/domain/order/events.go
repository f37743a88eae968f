package order

import (
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// Event types raised by the order aggregate
const (
	EventOrderCreated   = "order.created"
	EventOrderConfirmed = "order.confirmed"
	EventOrderFailed    = "order.failed"
	EventOrderCancelled = "order.cancelled"
)

// CreatedEvent is raised when a new order enters PENDING
type CreatedEvent struct {
	shared.BaseDomainEvent
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	ItemCount   int             `json:"item_count"`
}

// NewCreatedEvent builds a CreatedEvent from the order
func NewCreatedEvent(o *Order) *CreatedEvent {
	return &CreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCreated, o.ID),
		UserID:          o.UserID.String(),
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency,
		ItemCount:       len(o.Items),
	}
}

// ConfirmedEvent is raised when payment succeeds
type ConfirmedEvent struct {
	shared.BaseDomainEvent
	UserID        string `json:"user_id"`
	TransactionID string `json:"transaction_id"`
}

// NewConfirmedEvent builds a ConfirmedEvent from the order
func NewConfirmedEvent(o *Order) *ConfirmedEvent {
	txn := ""
	if o.TransactionID != nil {
		txn = *o.TransactionID
	}
	return &ConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderConfirmed, o.ID),
		UserID:          o.UserID.String(),
		TransactionID:   txn,
	}
}

// FailedEvent is raised when payment fails
type FailedEvent struct {
	shared.BaseDomainEvent
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// NewFailedEvent builds a FailedEvent from the order
func NewFailedEvent(o *Order, reason string) *FailedEvent {
	return &FailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderFailed, o.ID),
		UserID:          o.UserID.String(),
		Reason:          reason,
	}
}

// CancelledEvent is raised on customer cancellation
type CancelledEvent struct {
	shared.BaseDomainEvent
	UserID string `json:"user_id"`
}

// NewCancelledEvent builds a CancelledEvent from the order
func NewCancelledEvent(o *Order) *CancelledEvent {
	return &CancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCancelled, o.ID),
		UserID:          o.UserID.String(),
	}
}
