package shared

import (
	"context"
	"time"
)

// IdempotencyStore tracks which events a handler has already processed.
// MarkProcessed must be atomic: it returns false when the key was
// already present, so concurrent deliveries of the same event resolve
// to exactly one winner.
type IdempotencyStore interface {
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
}

// DefaultIdempotencyTTL bounds how long processed-event markers are kept
const DefaultIdempotencyTTL = 24 * time.Hour
