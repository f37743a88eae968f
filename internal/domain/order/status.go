package order

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
	OrderStatusFailed     OrderStatus = "FAILED"
)

// IsTerminal reports whether no further transition is expected
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition is legal. Forward
// transitions are one-directional; CANCELLED and REFUNDED are reachable
// from any non-terminal state.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch target {
	case OrderStatusCancelled, OrderStatusRefunded:
		return true
	case OrderStatusFailed:
		return s == OrderStatusPending || s == OrderStatusConfirmed
	case OrderStatusConfirmed:
		return s == OrderStatusPending
	case OrderStatusProcessing:
		return s == OrderStatusConfirmed
	case OrderStatusShipped:
		return s == OrderStatusProcessing
	case OrderStatusDelivered:
		return s == OrderStatusShipped
	}
	return false
}

// PaymentStatus tracks the asynchronous payment orchestration state
type PaymentStatus string

const (
	PaymentStatusAwaitingIntent       PaymentStatus = "AWAITING_PAYMENT_INTENT"
	PaymentStatusAwaitingConfirmation PaymentStatus = "AWAITING_PAYMENT_CONFIRMATION"
	PaymentStatusConfirmed            PaymentStatus = "CONFIRMED"
	PaymentStatusFailed               PaymentStatus = "FAILED"
)

// IsTerminal reports whether re-delivered responses must be absorbed as no-ops
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusConfirmed || s == PaymentStatusFailed
}

// CanTransitionTo enforces the orchestration state machine:
// AWAITING_PAYMENT_INTENT -> AWAITING_PAYMENT_CONFIRMATION -> CONFIRMED | FAILED
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case PaymentStatusAwaitingIntent:
		return target == PaymentStatusAwaitingConfirmation ||
			target == PaymentStatusConfirmed || target == PaymentStatusFailed
	case PaymentStatusAwaitingConfirmation:
		return target == PaymentStatusConfirmed || target == PaymentStatusFailed
	}
	return false
}
