package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ShippingMethod identifies the carrier option chosen at checkout
type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "STANDARD"
	ShippingExpress  ShippingMethod = "EXPRESS"
)

// PaymentMethod identifies how the customer pays
type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodCheckout PaymentMethod = "CHECKOUT_SESSION"
)

// Item is an order line with an immutable price snapshot
type Item struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// TableName returns the database table name
func (Item) TableName() string {
	return "order_items"
}

// Order is the aggregate root for a customer order. It is mutated only
// by the payment orchestration layer after creation, except for
// customer-initiated cancellation.
type Order struct {
	shared.BaseAggregateRoot
	UserID            uuid.UUID           `gorm:"type:uuid;not null;index"`
	Items             []Item              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalAmount       decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Currency          string              `gorm:"type:varchar(3);not null"`
	ShippingAddress   valueobject.Address `gorm:"embedded;embeddedPrefix:ship_"`
	ShippingMethod    ShippingMethod      `gorm:"type:varchar(20);not null"`
	PaymentMethod     PaymentMethod       `gorm:"type:varchar(20);not null"`
	TransactionID     *string             `gorm:"type:varchar(128)"`
	CheckoutSessionID *string             `gorm:"type:varchar(128)"`
	Status            OrderStatus         `gorm:"type:varchar(20);not null;index"`
	PaymentStatus     PaymentStatus       `gorm:"type:varchar(32);not null;index"`
}

// TableName returns the database table name
func (Order) TableName() string {
	return "orders"
}

// ItemSpec describes a line to place on a new order
type ItemSpec struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   valueobject.Money
}

// NewOrder creates a pending order from validated line specs. The total
// is derived from the lines, never accepted from the caller.
func NewOrder(userID uuid.UUID, items []ItemSpec, addr valueobject.Address, shipping ShippingMethod, payment PaymentMethod) (*Order, error) {
	if len(items) == 0 {
		return nil, shared.ErrEmptyCart
	}

	base := shared.NewBaseAggregateRoot()
	currency := items[0].UnitPrice.Currency()
	total := valueobject.Zero(currency)
	lines := make([]Item, 0, len(items))

	for _, spec := range items {
		if spec.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Order item quantity must be positive")
		}
		lineTotal := spec.UnitPrice.Mul(spec.Quantity)
		var err error
		total, err = total.Add(lineTotal)
		if err != nil {
			return nil, shared.NewDomainError("CURRENCY_MISMATCH", "All order items must share one currency")
		}
		lines = append(lines, Item{
			ID:          uuid.New(),
			OrderID:     base.ID,
			ProductID:   spec.ProductID,
			ProductName: spec.ProductName,
			Quantity:    spec.Quantity,
			UnitPrice:   spec.UnitPrice.Amount(),
			LineTotal:   lineTotal.Amount(),
		})
	}

	o := &Order{
		BaseAggregateRoot: base,
		UserID:            userID,
		Items:             lines,
		TotalAmount:       total.Amount(),
		Currency:          currency,
		ShippingAddress:   addr,
		ShippingMethod:    shipping,
		PaymentMethod:     payment,
		Status:            OrderStatusPending,
		PaymentStatus:     PaymentStatusAwaitingIntent,
	}
	o.AddDomainEvent(NewCreatedEvent(o))
	return o, nil
}

// Total returns the order total as a money value
func (o *Order) Total() valueobject.Money {
	m, _ := valueobject.NewMoney(o.TotalAmount, o.Currency)
	return m
}

// Cancel transitions the order to CANCELLED if it is not terminal
func (o *Order) Cancel() error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.ErrInvalidState
	}
	o.Status = OrderStatusCancelled
	o.PaymentStatus = PaymentStatusFailed
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewCancelledEvent(o))
	return nil
}

// ConfirmPayment applies a successful payment outcome
func (o *Order) ConfirmPayment(transactionID string) error {
	if !o.PaymentStatus.CanTransitionTo(PaymentStatusConfirmed) {
		return shared.ErrInvalidState
	}
	if !o.Status.CanTransitionTo(OrderStatusConfirmed) {
		return shared.ErrInvalidState
	}
	o.PaymentStatus = PaymentStatusConfirmed
	o.Status = OrderStatusConfirmed
	o.TransactionID = &transactionID
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewConfirmedEvent(o))
	return nil
}

// FailPayment applies a failed payment outcome
func (o *Order) FailPayment(reason string) error {
	if !o.PaymentStatus.CanTransitionTo(PaymentStatusFailed) {
		return shared.ErrInvalidState
	}
	o.PaymentStatus = PaymentStatusFailed
	o.Status = OrderStatusFailed
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewFailedEvent(o, reason))
	return nil
}
