package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appnotification "github.com/storefront/backend/internal/application/notification"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/messaging/contract"
)

// VersionPolicy holds the supported message schema version range
type VersionPolicy struct {
	Min     string
	Current string
}

// ProcessingService reconciles asynchronous payment and checkout
// responses against pending orders. All state transitions go through
// the repository's compare-and-set operation, which is the single
// ordering guard under concurrent or repeated delivery: a response for
// an order already in a terminal state is absorbed as a no-op.
type ProcessingService struct {
	orders   order.Repository
	users    identity.Repository
	emails   appnotification.Enqueuer
	versions VersionPolicy
	logger   *zap.Logger
}

// NewProcessingService creates the payment processing service
func NewProcessingService(orders order.Repository, users identity.Repository, emails appnotification.Enqueuer, versions VersionPolicy, logger *zap.Logger) *ProcessingService {
	return &ProcessingService{
		orders:   orders,
		users:    users,
		emails:   emails,
		versions: versions,
		logger:   logger,
	}
}

func (s *ProcessingService) checkVersion(v string) error {
	if !contract.IsVersionSupported(v, s.versions.Min, s.versions.Current) {
		return shared.NewDomainError("UNSUPPORTED_VERSION",
			fmt.Sprintf("Message version %q is outside the supported range [%s, %s]", v, s.versions.Min, s.versions.Current))
	}
	return nil
}

// HandlePaymentIntentResponse applies the asynchronous outcome of a
// payment-intent request
func (s *ProcessingService) HandlePaymentIntentResponse(ctx context.Context, resp contract.PaymentIntentResponse) error {
	if err := s.checkVersion(resp.Version); err != nil {
		return err
	}
	orderID, err := uuid.Parse(resp.OrderID)
	if err != nil {
		return shared.NewDomainError("INVALID_ORDER_ID", "Payment response carries a malformed order id")
	}

	switch resp.Status {
	case contract.PaymentIntentSucceeded:
		return s.applySuccess(ctx, orderID, resp.TransactionID, "")
	case contract.PaymentIntentFailed:
		return s.applyFailure(ctx, orderID, resp.FailureReason)
	default:
		return shared.NewDomainError("UNKNOWN_PAYMENT_STATUS",
			fmt.Sprintf("Unknown payment intent status %q", resp.Status))
	}
}

// HandleCheckoutSessionResponse applies the outcome of a hosted
// checkout session. A completed session proceeds as payment success;
// an expired session fails the order.
func (s *ProcessingService) HandleCheckoutSessionResponse(ctx context.Context, resp contract.CheckoutSessionResponse) error {
	if err := s.checkVersion(resp.Version); err != nil {
		return err
	}
	orderID, err := uuid.Parse(resp.OrderID)
	if err != nil {
		return shared.NewDomainError("INVALID_ORDER_ID", "Checkout response carries a malformed order id")
	}

	switch resp.Status {
	case contract.CheckoutCompleted:
		return s.applySuccess(ctx, orderID, resp.TransactionID, resp.SessionID)
	case contract.CheckoutExpired:
		return s.applyFailure(ctx, orderID, "checkout session expired")
	default:
		return shared.NewDomainError("UNKNOWN_CHECKOUT_STATUS",
			fmt.Sprintf("Unknown checkout session status %q", resp.Status))
	}
}

// HandlePaymentVerificationResponse applies a verification outcome. A
// valid verification confirms what we already know; an invalid one
// fails the order if it is still in flight.
func (s *ProcessingService) HandlePaymentVerificationResponse(ctx context.Context, resp contract.PaymentVerificationResponse) error {
	if err := s.checkVersion(resp.Version); err != nil {
		return err
	}
	orderID, err := uuid.Parse(resp.OrderID)
	if err != nil {
		return shared.NewDomainError("INVALID_ORDER_ID", "Verification response carries a malformed order id")
	}

	if resp.Status == contract.VerificationInvalid {
		return s.applyFailure(ctx, orderID, "payment verification failed")
	}
	s.logger.Debug("payment verification confirmed",
		zap.String("order_id", resp.OrderID),
		zap.String("transaction_id", resp.TransactionID))
	return nil
}

// ApplyExternalOutcome lets the reconciliation sweep reuse the same
// transition paths as broker-delivered responses.
func (s *ProcessingService) ApplyExternalOutcome(ctx context.Context, orderID uuid.UUID, succeeded bool, transactionID, reason string) error {
	if succeeded {
		return s.applySuccess(ctx, orderID, transactionID, "")
	}
	return s.applyFailure(ctx, orderID, reason)
}

func (s *ProcessingService) applySuccess(ctx context.Context, orderID uuid.UUID, transactionID, sessionID string) error {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrOrderNotFound) {
			// Unknown correlation: log and discard, never fabricate state.
			s.logger.Warn("payment response for unknown order discarded",
				zap.String("order_id", orderID.String()))
			return nil
		}
		return err
	}
	if o.PaymentStatus.IsTerminal() {
		s.logger.Debug("payment response for terminal order absorbed",
			zap.String("order_id", orderID.String()),
			zap.String("payment_status", string(o.PaymentStatus)))
		return nil
	}

	updated, err := s.orders.UpdatePaymentStatus(ctx, orderID, o.PaymentStatus, order.PaymentStatusConfirmed,
		func(ord *order.Order) {
			ord.Status = order.OrderStatusConfirmed
			if transactionID != "" {
				ord.TransactionID = &transactionID
			}
			if sessionID != "" {
				ord.CheckoutSessionID = &sessionID
			}
		})
	if err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			s.logger.Debug("lost payment status race, delivery absorbed",
				zap.String("order_id", orderID.String()))
			return nil
		}
		return err
	}

	s.logger.Info("order confirmed",
		zap.String("order_id", orderID.String()),
		zap.String("transaction_id", transactionID))
	s.enqueueEmail(ctx, updated, contract.EmailTemplateOrderConfirmation, map[string]string{
		"order_id": orderID.String(),
		"total":    updated.TotalAmount.StringFixed(2) + " " + updated.Currency,
	})
	return nil
}

func (s *ProcessingService) applyFailure(ctx context.Context, orderID uuid.UUID, reason string) error {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrOrderNotFound) {
			s.logger.Warn("payment response for unknown order discarded",
				zap.String("order_id", orderID.String()))
			return nil
		}
		return err
	}
	if o.PaymentStatus.IsTerminal() {
		s.logger.Debug("payment response for terminal order absorbed",
			zap.String("order_id", orderID.String()),
			zap.String("payment_status", string(o.PaymentStatus)))
		return nil
	}

	updated, err := s.orders.UpdatePaymentStatus(ctx, orderID, o.PaymentStatus, order.PaymentStatusFailed,
		func(ord *order.Order) {
			ord.Status = order.OrderStatusFailed
		})
	if err != nil {
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			s.logger.Debug("lost payment status race, delivery absorbed",
				zap.String("order_id", orderID.String()))
			return nil
		}
		return err
	}

	s.logger.Info("order failed",
		zap.String("order_id", orderID.String()),
		zap.String("reason", reason))
	s.enqueueEmail(ctx, updated, contract.EmailTemplatePaymentFailure, map[string]string{
		"order_id": orderID.String(),
		"reason":   reason,
	})
	return nil
}

// enqueueEmail stages a notification for the order's owner. Email
// problems never fail payment processing.
func (s *ProcessingService) enqueueEmail(ctx context.Context, o *order.Order, template string, variables map[string]string) {
	user, err := s.users.FindByID(ctx, o.UserID)
	if err != nil {
		s.logger.Error("cannot resolve order owner for email",
			zap.String("order_id", o.ID.String()),
			zap.Error(err))
		return
	}
	if _, err := s.emails.Enqueue(ctx, user.Email, template, variables, o.ID); err != nil {
		s.logger.Error("failed to enqueue email",
			zap.String("order_id", o.ID.String()),
			zap.String("template", template),
			zap.Error(err))
	}
}
