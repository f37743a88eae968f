package event

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/broker"
)

// Route resolves an event type to a broker destination. The default
// splits on the first dot: "email.send.request" goes to exchange
// "email" with routing key "send.request".
type Route func(eventType string) (exchange, routingKey string, ok bool)

// DefaultRoute splits the event type into exchange and routing key
func DefaultRoute(eventType string) (string, string, bool) {
	parts := strings.SplitN(eventType, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// DispatcherConfig holds dispatcher tuning
type DispatcherConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
}

// Dispatcher polls the outbox and publishes pending entries through
// the producer. Failed publishes are retried with backoff; entries
// that exhaust their retries are parked DEAD for manual inspection.
type Dispatcher struct {
	repo     shared.OutboxRepository
	producer broker.Producer
	route    Route
	cfg      DispatcherConfig
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates an outbox dispatcher
func NewDispatcher(repo shared.OutboxRepository, producer broker.Producer, route Route, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if route == nil {
		route = DefaultRoute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &Dispatcher{
		repo:     repo,
		producer: producer,
		route:    route,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start launches the poll loop and, when enabled, the cleanup loop
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.ProcessBatch(ctx)
			}
		}
	}()

	if d.cfg.CleanupEnabled {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					d.cleanup(ctx)
				}
			}
		}()
	}
}

// Stop cancels the loops and waits for them to finish
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
}

// ProcessBatch dispatches one batch of pending entries
func (d *Dispatcher) ProcessBatch(ctx context.Context) {
	entries, err := d.repo.FindPending(ctx, d.cfg.BatchSize)
	if err != nil {
		d.logger.Error("failed to load pending outbox entries", zap.Error(err))
		return
	}

	for _, entry := range entries {
		d.dispatch(ctx, entry)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, entry *shared.OutboxEntry) {
	exchange, routingKey, ok := d.route(entry.EventType)
	if !ok {
		d.logger.Error("no route for outbox entry, parking as dead",
			zap.String("event_type", entry.EventType),
			zap.String("event_id", entry.EventID.String()))
		entry.RetryCount = entry.MaxRetries
		entry.MarkFailed("no route for event type")
		if err := d.repo.Update(ctx, entry); err != nil {
			d.logger.Error("failed to update outbox entry", zap.Error(err))
		}
		return
	}

	entry.MarkProcessing()
	if err := d.repo.Update(ctx, entry); err != nil {
		d.logger.Error("failed to claim outbox entry", zap.Error(err))
		return
	}

	payload := json.RawMessage(entry.Payload)
	if err := d.producer.Send(ctx, exchange, routingKey, payload, entry.EventID.String()); err != nil {
		entry.MarkFailed(err.Error())
		d.logger.Warn("outbox dispatch failed",
			zap.String("event_type", entry.EventType),
			zap.String("event_id", entry.EventID.String()),
			zap.Int("retry_count", entry.RetryCount),
			zap.String("status", string(entry.Status)),
			zap.Error(err))
	} else {
		entry.MarkCompleted()
	}

	if err := d.repo.Update(ctx, entry); err != nil {
		d.logger.Error("failed to update outbox entry", zap.Error(err))
	}
}

func (d *Dispatcher) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-d.cfg.CleanupRetention)
	deleted, err := d.repo.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		d.logger.Error("outbox cleanup failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		d.logger.Info("outbox cleanup removed completed entries", zap.Int64("count", deleted))
	}
}
