package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/shared"
)

func newOutboxEntry(t *testing.T) *shared.OutboxEntry {
	t.Helper()
	event := shared.NewBaseDomainEvent("order.created", uuid.New())
	return shared.NewOutboxEntry(&event, []byte(`{"k":"v"}`))
}

func TestOutboxRepository_SaveAndFindPending(t *testing.T) {
	repo := NewOutboxRepository(testDB(t))
	ctx := context.Background()

	entry := newOutboxEntry(t)
	require.NoError(t, repo.Save(ctx, entry))

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, entry.EventID, pending[0].EventID)
}

func TestOutboxRepository_FailedEligibleAfterBackoff(t *testing.T) {
	repo := NewOutboxRepository(testDB(t))
	ctx := context.Background()

	entry := newOutboxEntry(t)
	entry.Status = shared.OutboxStatusFailed
	entry.RetryCount = 1
	past := time.Now().Add(-time.Minute)
	entry.NextRetryAt = &past
	require.NoError(t, repo.Save(ctx, entry))

	notYet := newOutboxEntry(t)
	notYet.Status = shared.OutboxStatusFailed
	notYet.RetryCount = 1
	future := time.Now().Add(time.Hour)
	notYet.NextRetryAt = &future
	require.NoError(t, repo.Save(ctx, notYet))

	dead := newOutboxEntry(t)
	dead.Status = shared.OutboxStatusDead
	require.NoError(t, repo.Save(ctx, dead))

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, entry.EventID, pending[0].EventID)
}

func TestOutboxRepository_DeleteCompletedBefore(t *testing.T) {
	repo := NewOutboxRepository(testDB(t))
	ctx := context.Background()

	entry := newOutboxEntry(t)
	entry.MarkCompleted()
	old := time.Now().Add(-48 * time.Hour)
	entry.ProcessedAt = &old
	require.NoError(t, repo.Save(ctx, entry))

	deleted, err := repo.DeleteCompletedBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestOutboxRepository_CountByStatus(t *testing.T) {
	repo := NewOutboxRepository(testDB(t))
	ctx := context.Background()

	dead := newOutboxEntry(t)
	dead.Status = shared.OutboxStatusDead
	require.NoError(t, repo.Save(ctx, dead))

	count, err := repo.CountByStatus(ctx, shared.OutboxStatusDead)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
