package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/shared"
)

// OutboxRepository is the gorm implementation of shared.OutboxRepository
type OutboxRepository struct {
	db *gorm.DB
}

var _ shared.OutboxRepository = (*OutboxRepository)(nil)

// NewOutboxRepository creates an outbox repository
func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Save inserts outbox entries; callers run it inside the transaction
// that commits the aggregate change
func (r *OutboxRepository) Save(ctx context.Context, entries ...*shared.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(entries).Error
}

// FindPending returns entries ready for dispatch: PENDING, or FAILED
// whose retry time has arrived. DEAD entries are never returned.
func (r *OutboxRepository) FindPending(ctx context.Context, limit int) ([]*shared.OutboxEntry, error) {
	var entries []*shared.OutboxEntry
	err := r.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND next_retry_at <= ?)",
			shared.OutboxStatusPending, shared.OutboxStatusFailed, time.Now()).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Update persists entry status changes
func (r *OutboxRepository) Update(ctx context.Context, entry *shared.OutboxEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// DeleteCompletedBefore removes completed entries older than the cutoff
func (r *OutboxRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND processed_at < ?", shared.OutboxStatusCompleted, cutoff).
		Delete(&shared.OutboxEntry{})
	return result.RowsAffected, result.Error
}

// CountByStatus counts entries in a given status
func (r *OutboxRepository) CountByStatus(ctx context.Context, status shared.OutboxStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&shared.OutboxEntry{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
