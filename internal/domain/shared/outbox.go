package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus represents the processing status of an outbox entry
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusCompleted  OutboxStatus = "COMPLETED"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	// OutboxStatusDead marks entries that exhausted their retries and
	// require manual intervention. They are never retried automatically.
	OutboxStatusDead OutboxStatus = "DEAD"
)

// OutboxEntry represents an event staged in the transactional outbox
type OutboxEntry struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey"`
	EventID       uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex"`
	EventType     string       `gorm:"not null;index"`
	AggregateID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	Payload       []byte       `gorm:"type:jsonb;not null"`
	Status        OutboxStatus `gorm:"not null;default:'PENDING';index"`
	RetryCount    int          `gorm:"not null;default:0"`
	MaxRetries    int          `gorm:"not null;default:5"`
	NextRetryAt   *time.Time   `gorm:"index"`
	LastError     string
	ProcessedAt   *time.Time
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the database table name
func (OutboxEntry) TableName() string {
	return "outbox_entries"
}

// CanRetry reports whether the entry is eligible for another attempt
func (e *OutboxEntry) CanRetry() bool {
	return e.RetryCount < e.MaxRetries
}

// MarkProcessing transitions the entry into the in-flight state
func (e *OutboxEntry) MarkProcessing() {
	e.Status = OutboxStatusProcessing
	e.UpdatedAt = time.Now()
}

// MarkCompleted records a successful dispatch
func (e *OutboxEntry) MarkCompleted() {
	now := time.Now()
	e.Status = OutboxStatusCompleted
	e.ProcessedAt = &now
	e.UpdatedAt = now
}

// MarkFailed records a failed dispatch attempt. Once the retry budget
// is exhausted the entry is parked as DEAD instead of rescheduled.
func (e *OutboxEntry) MarkFailed(errMsg string) {
	e.RetryCount++
	e.LastError = errMsg
	e.UpdatedAt = time.Now()
	if e.RetryCount >= e.MaxRetries {
		e.Status = OutboxStatusDead
		e.NextRetryAt = nil
		return
	}
	e.Status = OutboxStatusFailed
	next := time.Now().Add(backoffDelay(e.RetryCount))
	e.NextRetryAt = &next
}

// backoffDelay doubles per attempt starting at one second, capped at five minutes
func backoffDelay(retryCount int) time.Duration {
	delay := time.Second << uint(retryCount-1)
	if delay > 5*time.Minute {
		return 5 * time.Minute
	}
	return delay
}

// NewOutboxEntry stages a serialized domain event for dispatch
func NewOutboxEntry(event DomainEvent, payload []byte) *OutboxEntry {
	now := time.Now()
	return &OutboxEntry{
		ID:          uuid.New(),
		EventID:     event.GetEventID(),
		EventType:   event.GetEventType(),
		AggregateID: event.GetAggregateID(),
		Payload:     payload,
		Status:      OutboxStatusPending,
		MaxRetries:  5,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// OutboxRepository persists outbox entries
type OutboxRepository interface {
	Save(ctx context.Context, entries ...*OutboxEntry) error
	FindPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	Update(ctx context.Context, entry *OutboxEntry) error
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountByStatus(ctx context.Context, status OutboxStatus) (int64, error)
}
