package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/storefront/backend/internal/domain/shared"
)

// OutboxSaver serializes domain events into outbox entries so they
// commit atomically with the aggregate change that raised them.
type OutboxSaver struct {
	repo shared.OutboxRepository
}

var _ shared.OutboxEventSaver = (*OutboxSaver)(nil)

// NewOutboxSaver creates an outbox saver
func NewOutboxSaver(repo shared.OutboxRepository) *OutboxSaver {
	return &OutboxSaver{repo: repo}
}

// SaveEvents stages the events for asynchronous dispatch
func (s *OutboxSaver) SaveEvents(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, evt := range events {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to serialize event %s: %w", evt.GetEventType(), err)
		}
		entries = append(entries, shared.NewOutboxEntry(evt, payload))
	}
	return s.repo.Save(ctx, entries...)
}
