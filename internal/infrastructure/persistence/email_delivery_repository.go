package persistence

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/shared"
)

// EmailDeliveryRepository is the gorm implementation of notification.DeliveryRepository
type EmailDeliveryRepository struct {
	db *gorm.DB
}

var _ notification.DeliveryRepository = (*EmailDeliveryRepository)(nil)

// NewEmailDeliveryRepository creates an email delivery repository
func NewEmailDeliveryRepository(db *gorm.DB) *EmailDeliveryRepository {
	return &EmailDeliveryRepository{db: db}
}

// Save inserts a delivery record; a repeated notification for the same
// request message id is absorbed as already-recorded
func (r *EmailDeliveryRepository) Save(ctx context.Context, rec *notification.DeliveryRecord) error {
	err := r.db.WithContext(ctx).Create(rec).Error
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "unique") {
		return shared.ErrAlreadyExists
	}
	return err
}

// FindByRequestMessageID loads the delivery record for a request
func (r *EmailDeliveryRepository) FindByRequestMessageID(ctx context.Context, messageID string) (*notification.DeliveryRecord, error) {
	var rec notification.DeliveryRecord
	err := r.db.WithContext(ctx).First(&rec, "request_message_id = ?", messageID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}
