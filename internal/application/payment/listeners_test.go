package payment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/infrastructure/broker"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/messaging/contract"
)

func TestListener_DeliversToProcessingService(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, order.PaymentStatusAwaitingConfirmation)
	f.emails.On("Enqueue", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything).Return("msg-1", nil)

	registry := broker.NewListenerRegistry()
	registry.Subscribe(contract.QueuePaymentIntentResponses,
		listen(contract.QueuePaymentIntentResponses, cache.NewMemoryIdempotencyStore(), zap.NewNop(),
			func(m contract.PaymentIntentResponse) string { return m.MessageID },
			f.svc.HandlePaymentIntentResponse))
	transport := broker.NewMemoryTransport(registry)

	resp := intentResponse(o.ID, contract.PaymentIntentSucceeded, "txn_1", "")
	body, err := json.Marshal(resp)
	require.NoError(t, err)

	require.NoError(t, transport.Deliver(context.Background(),
		contract.QueuePaymentIntentResponses, body, resp.CorrelationID))

	loaded, err := f.orders.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusConfirmed, loaded.PaymentStatus)
}

func TestListener_DuplicateMessageIDSkipped(t *testing.T) {
	f := newFixture(t)
	o := f.createOrder(t, order.PaymentStatusAwaitingConfirmation)
	f.emails.On("Enqueue", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything).Return("msg-1", nil)

	calls := 0
	handler := listen("q", cache.NewMemoryIdempotencyStore(), zap.NewNop(),
		func(m contract.PaymentIntentResponse) string { return m.MessageID },
		func(ctx context.Context, m contract.PaymentIntentResponse) error {
			calls++
			return f.svc.HandlePaymentIntentResponse(ctx, m)
		})

	resp := intentResponse(o.ID, contract.PaymentIntentSucceeded, "txn_1", "")
	body, err := json.Marshal(resp)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, handler(ctx, broker.Delivery{Queue: "q", Body: body}))
	require.NoError(t, handler(ctx, broker.Delivery{Queue: "q", Body: body}))

	assert.Equal(t, 1, calls)
}

func TestListener_MalformedBodyErrors(t *testing.T) {
	handler := listen("q", cache.NewMemoryIdempotencyStore(), zap.NewNop(),
		func(m contract.PaymentIntentResponse) string { return m.MessageID },
		func(context.Context, contract.PaymentIntentResponse) error { return nil })

	err := handler(context.Background(), broker.Delivery{Queue: "q", Body: []byte("{not json")})
	assert.Error(t, err)
}

func TestRegisterListeners_BindsAllQueues(t *testing.T) {
	f := newFixture(t)
	registry := broker.NewListenerRegistry()
	RegisterListeners(registry, f.svc, nil, cache.NewMemoryIdempotencyStore(), zap.NewNop())

	for _, queue := range []string{
		contract.QueuePaymentIntentResponses,
		contract.QueueCheckoutSessionResponses,
		contract.QueuePaymentVerificationResponses,
		contract.QueueEmailNotifications,
	} {
		_, ok := registry.Handler(queue)
		assert.True(t, ok, queue)
	}
}

// Guards against accidentally shadowing a declared queue name.
func TestQueueNamesAreDistinct(t *testing.T) {
	queues := map[string]struct{}{}
	for _, q := range []string{
		contract.QueuePaymentIntentResponses,
		contract.QueueCheckoutSessionResponses,
		contract.QueuePaymentVerificationResponses,
		contract.QueueEmailNotifications,
	} {
		queues[q] = struct{}{}
	}
	assert.Len(t, queues, 4)
}
