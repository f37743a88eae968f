package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/infrastructure/payment"
)

type intentLookupStub struct {
	intents map[string]*payment.Intent
	err     error
}

func (s *intentLookupStub) GetIntent(_ context.Context, id string) (*payment.Intent, error) {
	if s.err != nil {
		return nil, s.err
	}
	intent, ok := s.intents[id]
	if !ok {
		return nil, &payment.ServiceError{StatusCode: 404, Body: "not found"}
	}
	return intent, nil
}

type outcomeRecorder struct {
	applied []appliedOutcome
}

type appliedOutcome struct {
	orderID       uuid.UUID
	succeeded     bool
	transactionID string
	reason        string
}

func (r *outcomeRecorder) ApplyExternalOutcome(_ context.Context, orderID uuid.UUID, succeeded bool, transactionID, reason string) error {
	r.applied = append(r.applied, appliedOutcome{orderID, succeeded, transactionID, reason})
	return nil
}

func reconcilerFixture(t *testing.T) (*fixture, *intentLookupStub, *outcomeRecorder, *Reconciler) {
	t.Helper()
	f := newFixture(t)
	lookup := &intentLookupStub{intents: map[string]*payment.Intent{}}
	outcomes := &outcomeRecorder{}
	r := NewReconciler(f.orders, lookup, outcomes, ReconcilerConfig{
		PollInterval: time.Minute,
		OrderExpiry:  30 * time.Minute,
		BatchSize:    10,
	}, zap.NewNop())
	return f, lookup, outcomes, r
}

func ageOrder(t *testing.T, f *fixture, o *order.Order, age time.Duration) {
	t.Helper()
	require.NoError(t, f.db.Model(o).Update("updated_at", time.Now().Add(-age)).Error)
}

func TestReconciler_ExpiresOrderWithoutTransaction(t *testing.T) {
	f, _, outcomes, r := reconcilerFixture(t)
	f.fillCart(t, 1)
	o, err := f.svc.Checkout(context.Background(), f.userID, checkoutInput(order.PaymentMethodCard))
	require.NoError(t, err)
	ageOrder(t, f, o, time.Hour)

	r.Sweep(context.Background())

	require.Len(t, outcomes.applied, 1)
	assert.Equal(t, o.ID, outcomes.applied[0].orderID)
	assert.False(t, outcomes.applied[0].succeeded)
	assert.Equal(t, "payment timed out", outcomes.applied[0].reason)
}

func TestReconciler_ConfirmsSucceededIntent(t *testing.T) {
	f, lookup, outcomes, r := reconcilerFixture(t)
	f.fillCart(t, 1)
	o, err := f.svc.Checkout(context.Background(), f.userID, checkoutInput(order.PaymentMethodCard))
	require.NoError(t, err)
	txn := "pi_1"
	o.TransactionID = &txn
	require.NoError(t, f.orders.Update(context.Background(), o))
	ageOrder(t, f, o, time.Hour)
	lookup.intents["pi_1"] = &payment.Intent{ID: "pi_1", Status: "succeeded"}

	r.Sweep(context.Background())

	require.Len(t, outcomes.applied, 1)
	assert.True(t, outcomes.applied[0].succeeded)
	assert.Equal(t, "pi_1", outcomes.applied[0].transactionID)
}

func TestReconciler_SkipsWhenLookupFails(t *testing.T) {
	f, lookup, outcomes, r := reconcilerFixture(t)
	f.fillCart(t, 1)
	o, err := f.svc.Checkout(context.Background(), f.userID, checkoutInput(order.PaymentMethodCard))
	require.NoError(t, err)
	txn := "pi_1"
	o.TransactionID = &txn
	require.NoError(t, f.orders.Update(context.Background(), o))
	ageOrder(t, f, o, time.Hour)
	lookup.err = errors.New("payment service down")

	r.Sweep(context.Background())

	assert.Empty(t, outcomes.applied)
}

func TestReconciler_LeavesFreshOrdersAlone(t *testing.T) {
	f, _, outcomes, r := reconcilerFixture(t)
	f.fillCart(t, 1)
	_, err := f.svc.Checkout(context.Background(), f.userID, checkoutInput(order.PaymentMethodCard))
	require.NoError(t, err)

	r.Sweep(context.Background())

	assert.Empty(t, outcomes.applied)
}
