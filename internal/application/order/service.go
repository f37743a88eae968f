package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/broker"
	"github.com/storefront/backend/internal/messaging/contract"
)

// ErrDispatchFailed is returned when the payment request cannot be
// published; the order is marked FAILED rather than left stuck PENDING.
var ErrDispatchFailed = shared.NewDomainError("DISPATCH_FAILED",
	"Could not dispatch payment request, order was not placed")

// CheckoutInput is the order placement request
type CheckoutInput struct {
	Street         string
	City           string
	Zip            string
	Country        string
	ShippingMethod order.ShippingMethod
	PaymentMethod  order.PaymentMethod
	SuccessURL     string
	CancelURL      string
}

// Service places and manages orders. Checkout converts the user's cart
// into a PENDING order and synchronously dispatches the payment
// request; after that the payment processing service owns all state
// changes, except customer cancellation.
type Service struct {
	orders   order.Repository
	carts    cart.Repository
	products catalog.ProductRepository
	producer broker.Producer
	version  string
	logger   *zap.Logger
}

// NewService creates the order service
func NewService(orders order.Repository, carts cart.Repository, products catalog.ProductRepository, producer broker.Producer, version string, logger *zap.Logger) *Service {
	return &Service{
		orders:   orders,
		carts:    carts,
		products: products,
		producer: producer,
		version:  version,
		logger:   logger,
	}
}

// Checkout places an order from the user's cart
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*order.Order, error) {
	addr, err := valueobject.NewAddress(input.Street, input.City, input.Zip, input.Country)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", err.Error())
	}

	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrEmptyCart
		}
		return nil, err
	}
	if c.IsEmpty() {
		return nil, shared.ErrEmptyCart
	}

	specs, err := s.buildItemSpecs(ctx, c)
	if err != nil {
		return nil, err
	}

	o, err := order.NewOrder(userID, specs, addr, input.ShippingMethod, input.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}

	if err := s.dispatchPaymentRequest(ctx, o, input); err != nil {
		// Surface the failure to the caller instead of leaving the
		// order silently stuck in PENDING.
		s.failDispatch(ctx, o)
		return nil, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	if _, err := s.orders.UpdatePaymentStatus(ctx, o.ID,
		order.PaymentStatusAwaitingIntent, order.PaymentStatusAwaitingConfirmation, nil); err != nil {
		// The response listener may already have moved the order on.
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
	}

	c.Clear()
	if err := s.carts.Update(ctx, c); err != nil {
		s.logger.Warn("failed to clear cart after checkout",
			zap.String("user_id", userID.String()), zap.Error(err))
	}

	return s.orders.FindByID(ctx, o.ID)
}

func (s *Service) buildItemSpecs(ctx context.Context, c *cart.Cart) ([]order.ItemSpec, error) {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	specs := make([]order.ItemSpec, 0, len(c.Items))
	for _, item := range c.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, shared.NewDomainError("PRODUCT_UNAVAILABLE",
				fmt.Sprintf("Product %s is no longer available", item.ProductID))
		}
		if !p.InStock(item.Quantity) {
			return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("Not enough stock for %s", p.Name))
		}
		// Unit price is snapshotted from the live catalog at order
		// time and never changes afterwards.
		price, err := valueobject.NewMoney(p.Price, p.Currency)
		if err != nil {
			return nil, err
		}
		specs = append(specs, order.ItemSpec{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			UnitPrice:   price,
		})
	}
	return specs, nil
}

func (s *Service) dispatchPaymentRequest(ctx context.Context, o *order.Order, input CheckoutInput) error {
	amount := contract.MoneyPayloadFrom(o.Total())

	if o.PaymentMethod == order.PaymentMethodCheckout {
		req := contract.CheckoutSessionRequest{
			Envelope:   contract.NewEnvelope(s.version),
			OrderID:    o.ID.String(),
			UserID:     o.UserID.String(),
			Amount:     amount,
			SuccessURL: input.SuccessURL,
			CancelURL:  input.CancelURL,
		}
		return s.producer.Send(ctx, contract.PaymentExchange,
			contract.RKCheckoutSessionRequest, req, req.MessageID)
	}

	req := contract.PaymentIntentRequest{
		Envelope:      contract.NewEnvelope(s.version),
		OrderID:       o.ID.String(),
		UserID:        o.UserID.String(),
		Amount:        amount,
		PaymentMethod: string(o.PaymentMethod),
	}
	return s.producer.Send(ctx, contract.PaymentExchange,
		contract.RKPaymentIntentRequest, req, req.MessageID)
}

func (s *Service) failDispatch(ctx context.Context, o *order.Order) {
	_, err := s.orders.UpdatePaymentStatus(ctx, o.ID,
		order.PaymentStatusAwaitingIntent, order.PaymentStatusFailed,
		func(ord *order.Order) {
			ord.Status = order.OrderStatusFailed
		})
	if err != nil {
		s.logger.Error("failed to mark undispatched order as failed",
			zap.String("order_id", o.ID.String()), zap.Error(err))
	}
}

// Get returns one of the user's orders
func (s *Service) Get(ctx context.Context, userID, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, shared.ErrForbidden
	}
	return o, nil
}

// List returns a page of the user's orders
func (s *Service) List(ctx context.Context, userID uuid.UUID, filter shared.Filter) (shared.Paginated[*order.Order], error) {
	return s.orders.FindByUser(ctx, userID, filter)
}

// Cancel cancels one of the user's orders if it is not terminal
func (s *Service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.Get(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if err := o.Cancel(); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, err
	}
	s.logger.Info("order cancelled",
		zap.String("order_id", orderID.String()),
		zap.String("user_id", userID.String()))
	return o, nil
}
