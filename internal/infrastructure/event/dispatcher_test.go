package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/broker"
	"github.com/storefront/backend/internal/infrastructure/persistence"
)

func dispatcherFixture(t *testing.T) (*Dispatcher, *persistence.OutboxRepository, *broker.MemoryTransport, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&shared.OutboxEntry{}))

	repo := persistence.NewOutboxRepository(db)
	transport := broker.NewMemoryTransport(nil)
	d := NewDispatcher(repo, transport, nil, DispatcherConfig{BatchSize: 10}, zap.NewNop())
	return d, repo, transport, db
}

func stageEvent(t *testing.T, repo shared.OutboxRepository, eventType string) shared.BaseDomainEvent {
	t.Helper()
	event := shared.NewBaseDomainEvent(eventType, uuid.New())
	saver := NewOutboxSaver(repo)
	require.NoError(t, saver.SaveEvents(context.Background(), &event))
	return event
}

func TestDefaultRoute(t *testing.T) {
	exchange, rk, ok := DefaultRoute("email.send.request")
	require.True(t, ok)
	assert.Equal(t, "email", exchange)
	assert.Equal(t, "send.request", rk)

	_, _, ok = DefaultRoute("unrouteable")
	assert.False(t, ok)
}

func TestDispatcher_PublishesPendingEntries(t *testing.T) {
	d, repo, transport, _ := dispatcherFixture(t)
	event := stageEvent(t, repo, "email.send.request")

	d.ProcessBatch(context.Background())

	published := transport.PublishedTo("email", "send.request")
	require.Len(t, published, 1)
	assert.Equal(t, event.EventID.String(), published[0].CorrelationID)

	pending, err := repo.FindPending(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDispatcher_RetriesThenDead(t *testing.T) {
	d, repo, transport, db := dispatcherFixture(t)
	stageEvent(t, repo, "email.send.request")
	transport.FailWith(errors.New("broker down"))

	// Each failed attempt reschedules with backoff. Backdating the
	// retry time between rounds makes the entry eligible immediately,
	// so five real attempts happen.
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		d.ProcessBatch(ctx)
		require.NoError(t, db.Model(&shared.OutboxEntry{}).
			Where("status = ?", shared.OutboxStatusFailed).
			Update("next_retry_at", time.Now().Add(-time.Minute)).Error)
	}

	deadCount, err := repo.CountByStatus(ctx, shared.OutboxStatusDead)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deadCount)

	var entry shared.OutboxEntry
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, 5, entry.RetryCount)
	assert.Nil(t, entry.NextRetryAt)

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
