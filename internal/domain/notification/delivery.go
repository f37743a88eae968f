package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus is the outcome reported by the email service
type DeliveryStatus string

const (
	DeliverySent    DeliveryStatus = "SENT"
	DeliveryFailed  DeliveryStatus = "FAILED"
	DeliveryBounced DeliveryStatus = "BOUNCED"
)

// DeliveryRecord logs the delivery outcome of one email request,
// keyed by the message id of the original request.
type DeliveryRecord struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	RequestMessageID string         `gorm:"not null;uniqueIndex"`
	Status           DeliveryStatus `gorm:"type:varchar(20);not null"`
	ErrorMessage     string
	ReceivedAt       time.Time `gorm:"not null"`
}

// TableName returns the database table name
func (DeliveryRecord) TableName() string {
	return "email_delivery_log"
}

// NewDeliveryRecord creates a delivery log entry
func NewDeliveryRecord(requestMessageID string, status DeliveryStatus, errorMessage string) *DeliveryRecord {
	return &DeliveryRecord{
		ID:               uuid.New(),
		RequestMessageID: requestMessageID,
		Status:           status,
		ErrorMessage:     errorMessage,
		ReceivedAt:       time.Now(),
	}
}

// DeliveryRepository persists delivery records
type DeliveryRepository interface {
	Save(ctx context.Context, rec *DeliveryRecord) error
	FindByRequestMessageID(ctx context.Context, messageID string) (*DeliveryRecord, error)
}
