package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/messaging/contract"
)

// EmailRequestEventType routes staged email requests to the broker
// (exchange "email", routing key "send.request").
const EmailRequestEventType = contract.EmailExchange + "." + contract.RKEmailRequest

// emailRequestedEvent stages an email request in the outbox. Its JSON
// form is exactly the wire contract, so the dispatcher can publish the
// stored payload as-is.
type emailRequestedEvent struct {
	request     contract.EmailRequest
	eventID     uuid.UUID
	aggregateID uuid.UUID
	occurredAt  time.Time
}

func (e *emailRequestedEvent) GetEventID() uuid.UUID { return e.eventID }

func (e *emailRequestedEvent) GetEventType() string { return EmailRequestEventType }

func (e *emailRequestedEvent) GetAggregateID() uuid.UUID { return e.aggregateID }

func (e *emailRequestedEvent) GetOccurredAt() time.Time { return e.occurredAt }

func (e *emailRequestedEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.request)
}

// Enqueuer stages outbound email requests for reliable dispatch
type Enqueuer interface {
	Enqueue(ctx context.Context, recipient, template string, variables map[string]string, aggregateID uuid.UUID) (string, error)
}

// EmailService enqueues email requests through the transactional
// outbox and records delivery-status notifications. Delivery failures
// never affect order state.
type EmailService struct {
	outbox     shared.OutboxEventSaver
	deliveries notification.DeliveryRepository
	version    string
	logger     *zap.Logger
}

var _ Enqueuer = (*EmailService)(nil)

// NewEmailService creates an email service
func NewEmailService(outbox shared.OutboxEventSaver, deliveries notification.DeliveryRepository, version string, logger *zap.Logger) *EmailService {
	return &EmailService{
		outbox:     outbox,
		deliveries: deliveries,
		version:    version,
		logger:     logger,
	}
}

// Enqueue stages a templated email request and returns its message id
func (s *EmailService) Enqueue(ctx context.Context, recipient, template string, variables map[string]string, aggregateID uuid.UUID) (string, error) {
	req := contract.EmailRequest{
		Envelope:  contract.NewEnvelope(s.version),
		Recipient: recipient,
		Template:  template,
		Variables: variables,
	}
	eventID, err := uuid.Parse(req.MessageID)
	if err != nil {
		return "", err
	}
	evt := &emailRequestedEvent{
		request:     req,
		eventID:     eventID,
		aggregateID: aggregateID,
		occurredAt:  time.Now(),
	}
	if err := s.outbox.SaveEvents(ctx, evt); err != nil {
		return "", err
	}
	s.logger.Info("email request enqueued",
		zap.String("template", template),
		zap.String("message_id", req.MessageID))
	return req.MessageID, nil
}

// RecordDelivery stores the delivery outcome reported by the email
// service, keyed by the original request's message id. A repeated
// notification for the same request is absorbed silently.
func (s *EmailService) RecordDelivery(ctx context.Context, n contract.EmailDeliveryNotification) error {
	if n.CorrelationID == "" {
		return shared.NewDomainError("MISSING_CORRELATION", "Delivery notification has no correlation id")
	}
	rec := notification.NewDeliveryRecord(n.CorrelationID, notification.DeliveryStatus(n.Status), n.ErrorMessage)
	err := s.deliveries.Save(ctx, rec)
	if errors.Is(err, shared.ErrAlreadyExists) {
		s.logger.Debug("duplicate delivery notification ignored",
			zap.String("correlation_id", n.CorrelationID))
		return nil
	}
	if err != nil {
		return err
	}
	if rec.Status != notification.DeliverySent {
		s.logger.Warn("email delivery failed",
			zap.String("correlation_id", n.CorrelationID),
			zap.String("status", string(rec.Status)),
			zap.String("error", n.ErrorMessage))
	}
	return nil
}
