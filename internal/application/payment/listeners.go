package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	appnotification "github.com/storefront/backend/internal/application/notification"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/broker"
	"github.com/storefront/backend/internal/messaging/contract"
)

func listen[T any](queue string, idempotency shared.IdempotencyStore, logger *zap.Logger, getID func(T) string, process func(context.Context, T) error) broker.MessageHandler {
	return func(ctx context.Context, d broker.Delivery) error {
		var msg T
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			return fmt.Errorf("failed to decode message on %s: %w", queue, err)
		}

		key := queue + ":" + getID(msg)
		claimed, err := idempotency.MarkProcessed(ctx, key, shared.DefaultIdempotencyTTL)
		if err != nil {
			// The compare-and-set transition downstream still guards
			// correctness, so process despite a store outage.
			logger.Warn("idempotency store unavailable, processing anyway",
				zap.String("queue", queue), zap.Error(err))
		} else if !claimed {
			logger.Debug("duplicate delivery skipped",
				zap.String("queue", queue),
				zap.String("key", key))
			return nil
		}

		return process(ctx, msg)
	}
}

// RegisterListeners binds each response queue to its handler. Each
// listener owns exactly one queue and one contract type.
func RegisterListeners(registry *broker.ListenerRegistry, svc *ProcessingService, emails *appnotification.EmailService, idempotency shared.IdempotencyStore, logger *zap.Logger) {
	registry.Subscribe(contract.QueuePaymentIntentResponses,
		listen(contract.QueuePaymentIntentResponses, idempotency, logger,
			func(m contract.PaymentIntentResponse) string { return m.MessageID },
			svc.HandlePaymentIntentResponse))

	registry.Subscribe(contract.QueueCheckoutSessionResponses,
		listen(contract.QueueCheckoutSessionResponses, idempotency, logger,
			func(m contract.CheckoutSessionResponse) string { return m.MessageID },
			svc.HandleCheckoutSessionResponse))

	registry.Subscribe(contract.QueuePaymentVerificationResponses,
		listen(contract.QueuePaymentVerificationResponses, idempotency, logger,
			func(m contract.PaymentVerificationResponse) string { return m.MessageID },
			svc.HandlePaymentVerificationResponse))

	registry.Subscribe(contract.QueueEmailNotifications,
		listen(contract.QueueEmailNotifications, idempotency, logger,
			func(m contract.EmailDeliveryNotification) string { return m.MessageID },
			emails.RecordDelivery))
}
