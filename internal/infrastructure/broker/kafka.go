package broker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaProducer publishes messages to Kafka topics. The topic is
// derived from the exchange and routing key.
type KafkaProducer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

var _ Producer = (*KafkaProducer)(nil)

// NewKafkaProducer creates a producer writing to the given brokers
func NewKafkaProducer(brokers []string, batchTimeout time.Duration, logger *zap.Logger) *KafkaProducer {
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           batchTimeout,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

// Send publishes the payload as JSON with the envelope metadata
// attached as message headers. Transport failures wrap into SendError.
func (p *KafkaProducer) Send(ctx context.Context, exchange, routingKey string, payload any, correlationID string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &SendError{Exchange: exchange, RoutingKey: routingKey, Err: err}
	}

	var headers []kafka.Header
	for key, value := range messageHeaders(body, correlationID) {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
	}
	msg := kafka.Message{
		Topic:   Topic(exchange, routingKey),
		Value:   body,
		Headers: headers,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return &SendError{Exchange: exchange, RoutingKey: routingKey, Err: err}
	}

	p.logger.Debug("message published",
		zap.String("topic", msg.Topic),
		zap.String("correlation_id", correlationID))
	return nil
}

// Close flushes and closes the underlying writer
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// KafkaConsumer runs one consumer loop per subscribed queue. Handler
// errors are logged and the message is committed anyway; redelivery
// dedup is the downstream processing service's responsibility.
type KafkaConsumer struct {
	brokers  []string
	groupID  string
	registry *ListenerRegistry
	logger   *zap.Logger

	wg      sync.WaitGroup
	cancel  context.CancelFunc
	readers []*kafka.Reader
	mu      sync.Mutex
}

// NewKafkaConsumer creates a consumer bound to a listener registry
func NewKafkaConsumer(brokers []string, groupID string, registry *ListenerRegistry, logger *zap.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		brokers:  brokers,
		groupID:  groupID,
		registry: registry,
		logger:   logger,
	}
}

// Start launches one goroutine per subscribed queue
func (c *KafkaConsumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	for _, queue := range c.registry.Queues() {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.brokers,
			GroupID:  c.groupID,
			Topic:    queue,
			MinBytes: 1,
			MaxBytes: 10 << 20,
		})
		c.mu.Lock()
		c.readers = append(c.readers, reader)
		c.mu.Unlock()

		c.wg.Add(1)
		go c.consume(ctx, queue, reader)
	}
}

func (c *KafkaConsumer) consume(ctx context.Context, queue string, reader *kafka.Reader) {
	defer c.wg.Done()
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return
			}
			c.logger.Error("fetch failed", zap.String("queue", queue), zap.Error(err))
			continue
		}

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		delivery := Delivery{Queue: queue, Body: msg.Value, Headers: headers}

		if err := c.registry.Dispatch(ctx, delivery); err != nil {
			// Ack-and-log: failed messages are not requeued.
			c.logger.Error("message processing failed",
				zap.String("queue", queue),
				zap.String("correlation_id", delivery.CorrelationID()),
				zap.Error(err))
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("commit failed", zap.String("queue", queue), zap.Error(err))
		}
	}
}

// Stop cancels the consumer loops and closes the readers
func (c *KafkaConsumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Lock()
	for _, r := range c.readers {
		_ = r.Close()
	}
	c.mu.Unlock()
	c.wg.Wait()
}
