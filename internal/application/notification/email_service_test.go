package notification

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/messaging/contract"
)

func emailFixture(t *testing.T) (*EmailService, *persistence.OutboxRepository, *persistence.EmailDeliveryRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&shared.OutboxEntry{}, &notification.DeliveryRecord{}))

	outboxRepo := persistence.NewOutboxRepository(db)
	deliveryRepo := persistence.NewEmailDeliveryRepository(db)
	svc := NewEmailService(event.NewOutboxSaver(outboxRepo), deliveryRepo, "1.0", zap.NewNop())
	return svc, outboxRepo, deliveryRepo
}

func TestEmailService_EnqueueStagesWireContract(t *testing.T) {
	svc, outboxRepo, _ := emailFixture(t)
	orderID := uuid.New()

	messageID, err := svc.Enqueue(context.Background(), "buyer@example.com",
		contract.EmailTemplateOrderConfirmation,
		map[string]string{"order_id": orderID.String()}, orderID)
	require.NoError(t, err)

	pending, err := outboxRepo.FindPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, EmailRequestEventType, pending[0].EventType)
	assert.Equal(t, orderID, pending[0].AggregateID)

	var req contract.EmailRequest
	require.NoError(t, json.Unmarshal(pending[0].Payload, &req))
	assert.Equal(t, messageID, req.MessageID)
	assert.Equal(t, "1.0", req.Version)
	assert.Equal(t, "buyer@example.com", req.Recipient)
	assert.Equal(t, contract.EmailTemplateOrderConfirmation, req.Template)
}

func TestEmailService_RecordDelivery(t *testing.T) {
	svc, _, deliveryRepo := emailFixture(t)

	n := contract.EmailDeliveryNotification{
		Envelope:     contract.NewResponseEnvelope("1.0", "req-msg-1"),
		Status:       contract.EmailDeliveryFailed,
		ErrorMessage: "mailbox full",
	}
	require.NoError(t, svc.RecordDelivery(context.Background(), n))

	rec, err := deliveryRepo.FindByRequestMessageID(context.Background(), "req-msg-1")
	require.NoError(t, err)
	assert.Equal(t, notification.DeliveryFailed, rec.Status)
	assert.Equal(t, "mailbox full", rec.ErrorMessage)
}

func TestEmailService_DuplicateDeliveryAbsorbed(t *testing.T) {
	svc, _, _ := emailFixture(t)

	n := contract.EmailDeliveryNotification{
		Envelope: contract.NewResponseEnvelope("1.0", "req-msg-1"),
		Status:   contract.EmailDeliverySent,
	}
	require.NoError(t, svc.RecordDelivery(context.Background(), n))
	require.NoError(t, svc.RecordDelivery(context.Background(), n))
}

func TestEmailService_MissingCorrelationRejected(t *testing.T) {
	svc, _, _ := emailFixture(t)

	err := svc.RecordDelivery(context.Background(), contract.EmailDeliveryNotification{
		Envelope: contract.NewEnvelope("1.0"),
		Status:   contract.EmailDeliverySent,
	})
	assert.Error(t, err)
}
