package broker

import (
	"context"
	"encoding/json"
	"sync"
)

// PublishedMessage records one publish through the in-memory transport
type PublishedMessage struct {
	Exchange      string
	RoutingKey    string
	Body          []byte
	CorrelationID string
	Headers       map[string]string
}

// MemoryTransport is an in-process broker used by tests. Send records
// the message and, when a handler is subscribed to the matching topic,
// dispatches it synchronously.
type MemoryTransport struct {
	mu        sync.Mutex
	registry  *ListenerRegistry
	published []PublishedMessage
	failWith  error
}

var _ Producer = (*MemoryTransport)(nil)

// NewMemoryTransport creates an in-memory transport
func NewMemoryTransport(registry *ListenerRegistry) *MemoryTransport {
	if registry == nil {
		registry = NewListenerRegistry()
	}
	return &MemoryTransport{registry: registry}
}

// FailWith makes subsequent sends fail with the given transport error
func (t *MemoryTransport) FailWith(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failWith = err
}

// Send implements Producer
func (t *MemoryTransport) Send(ctx context.Context, exchange, routingKey string, payload any, correlationID string) error {
	t.mu.Lock()
	if t.failWith != nil {
		err := t.failWith
		t.mu.Unlock()
		return &SendError{Exchange: exchange, RoutingKey: routingKey, Err: err}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.mu.Unlock()
		return &SendError{Exchange: exchange, RoutingKey: routingKey, Err: err}
	}
	headers := messageHeaders(body, correlationID)
	msg := PublishedMessage{
		Exchange:      exchange,
		RoutingKey:    routingKey,
		Body:          body,
		CorrelationID: correlationID,
		Headers:       headers,
	}
	t.published = append(t.published, msg)
	t.mu.Unlock()

	topic := Topic(exchange, routingKey)
	if _, ok := t.registry.Handler(topic); ok {
		return t.registry.Dispatch(ctx, Delivery{
			Queue:   topic,
			Body:    body,
			Headers: headers,
		})
	}
	return nil
}

// Deliver pushes a raw message to a subscribed queue, simulating an
// inbound broker delivery
func (t *MemoryTransport) Deliver(ctx context.Context, queue string, body []byte, correlationID string) error {
	return t.registry.Dispatch(ctx, Delivery{
		Queue: queue,
		Body:  body,
		Headers: map[string]string{
			HeaderCorrelationID: correlationID,
		},
	})
}

// Published returns a copy of the recorded publishes
func (t *MemoryTransport) Published() []PublishedMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]PublishedMessage, len(t.published))
	copy(out, t.published)
	return out
}

// PublishedTo returns the publishes that went to one exchange/routing key
func (t *MemoryTransport) PublishedTo(exchange, routingKey string) []PublishedMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []PublishedMessage
	for _, m := range t.published {
		if m.Exchange == exchange && m.RoutingKey == routingKey {
			out = append(out, m)
		}
	}
	return out
}

// Registry returns the transport's listener registry
func (t *MemoryTransport) Registry() *ListenerRegistry {
	return t.registry
}
