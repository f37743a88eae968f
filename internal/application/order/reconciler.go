package order

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/infrastructure/payment"
)

// OutcomeApplier applies an externally observed payment outcome using
// the same idempotent transition as broker-delivered responses.
type OutcomeApplier interface {
	ApplyExternalOutcome(ctx context.Context, orderID uuid.UUID, succeeded bool, transactionID, reason string) error
}

// IntentLookup queries the payment service for the current state of an
// intent; satisfied by the payment REST client.
type IntentLookup interface {
	GetIntent(ctx context.Context, intentID string) (*payment.Intent, error)
}

// ReconcilerConfig holds sweep tuning
type ReconcilerConfig struct {
	PollInterval time.Duration
	OrderExpiry  time.Duration
	BatchSize    int
}

// Reconciler resolves orders stuck awaiting a payment outcome after a
// dropped or lost message. When a transaction id is known it asks the
// payment service for the authoritative state; otherwise the order is
// failed after the expiry window.
type Reconciler struct {
	orders   order.Repository
	payments IntentLookup
	outcomes OutcomeApplier
	cfg      ReconcilerConfig
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReconciler creates a reconciliation sweep
func NewReconciler(orders order.Repository, payments IntentLookup, outcomes OutcomeApplier, cfg ReconcilerConfig, logger *zap.Logger) *Reconciler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Minute
	}
	if cfg.OrderExpiry <= 0 {
		cfg.OrderExpiry = 30 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Reconciler{
		orders:   orders,
		payments: payments,
		outcomes: outcomes,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start launches the periodic sweep
func (r *Reconciler) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep(ctx)
			}
		}
	}()
}

// Stop cancels the sweep and waits for it to finish
func (r *Reconciler) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// Sweep resolves one batch of stuck orders
func (r *Reconciler) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-r.cfg.OrderExpiry)
	stuck, err := r.orders.FindStuckBefore(ctx, cutoff, r.cfg.BatchSize)
	if err != nil {
		r.logger.Error("reconciliation sweep query failed", zap.Error(err))
		return
	}

	for _, o := range stuck {
		r.resolve(ctx, o)
	}
}

func (r *Reconciler) resolve(ctx context.Context, o *order.Order) {
	if o.TransactionID == nil || *o.TransactionID == "" {
		r.logger.Info("expiring order with no payment transaction",
			zap.String("order_id", o.ID.String()))
		if err := r.outcomes.ApplyExternalOutcome(ctx, o.ID, false, "", "payment timed out"); err != nil {
			r.logger.Error("failed to expire order",
				zap.String("order_id", o.ID.String()), zap.Error(err))
		}
		return
	}

	intent, err := r.payments.GetIntent(ctx, *o.TransactionID)
	if err != nil {
		// Leave the order for the next sweep rather than guessing.
		r.logger.Warn("payment service lookup failed during reconciliation",
			zap.String("order_id", o.ID.String()),
			zap.String("transaction_id", *o.TransactionID),
			zap.Error(err))
		return
	}

	switch intent.Status {
	case "succeeded":
		err = r.outcomes.ApplyExternalOutcome(ctx, o.ID, true, intent.ID, "")
	case "failed", "canceled":
		err = r.outcomes.ApplyExternalOutcome(ctx, o.ID, false, "", "payment "+intent.Status)
	default:
		r.logger.Debug("payment intent still in flight",
			zap.String("order_id", o.ID.String()),
			zap.String("intent_status", intent.Status))
		return
	}
	if err != nil {
		r.logger.Error("failed to apply reconciled outcome",
			zap.String("order_id", o.ID.String()), zap.Error(err))
	}
}
