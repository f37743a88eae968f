package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutboxEntry(t *testing.T) {
	event := NewBaseDomainEvent("order.created", uuid.New())
	entry := NewOutboxEntry(&event, []byte(`{"foo":"bar"}`))

	assert.Equal(t, event.EventID, entry.EventID)
	assert.Equal(t, "order.created", entry.EventType)
	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Equal(t, 0, entry.RetryCount)
	assert.Equal(t, 5, entry.MaxRetries)
}

func TestOutboxEntry_MarkFailed_SchedulesRetry(t *testing.T) {
	event := NewBaseDomainEvent("order.created", uuid.New())
	entry := NewOutboxEntry(&event, nil)

	entry.MarkFailed("broker unavailable")

	assert.Equal(t, OutboxStatusFailed, entry.Status)
	assert.Equal(t, 1, entry.RetryCount)
	assert.Equal(t, "broker unavailable", entry.LastError)
	require.NotNil(t, entry.NextRetryAt)
	assert.True(t, entry.NextRetryAt.After(time.Now()))
	assert.True(t, entry.CanRetry())
}

func TestOutboxEntry_MarkFailed_ExhaustedGoesDead(t *testing.T) {
	event := NewBaseDomainEvent("order.created", uuid.New())
	entry := NewOutboxEntry(&event, nil)

	for i := 0; i < entry.MaxRetries; i++ {
		entry.MarkFailed("still down")
	}

	assert.Equal(t, OutboxStatusDead, entry.Status)
	assert.Nil(t, entry.NextRetryAt)
	assert.False(t, entry.CanRetry())
}

func TestOutboxEntry_MarkCompleted(t *testing.T) {
	event := NewBaseDomainEvent("order.created", uuid.New())
	entry := NewOutboxEntry(&event, nil)

	entry.MarkCompleted()

	assert.Equal(t, OutboxStatusCompleted, entry.Status)
	require.NotNil(t, entry.ProcessedAt)
}

func TestBackoffDelay_DoublesAndCaps(t *testing.T) {
	assert.Equal(t, time.Second, backoffDelay(1))
	assert.Equal(t, 2*time.Second, backoffDelay(2))
	assert.Equal(t, 8*time.Second, backoffDelay(4))
	assert.Equal(t, 5*time.Minute, backoffDelay(20))
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: 500}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.PageSize)
	assert.Equal(t, 0, f.Offset())
}
