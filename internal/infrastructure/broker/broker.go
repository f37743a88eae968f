package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Header keys attached to every published message
const (
	HeaderMessageID     = "x-message-id"
	HeaderCorrelationID = "x-correlation-id"
	HeaderVersion       = "x-schema-version"
)

// Topic maps an exchange and routing key onto a broker topic name
func Topic(exchange, routingKey string) string {
	return exchange + "." + routingKey
}

// messageHeaders builds the headers attached to a publish. The message
// id and schema version come from the envelope fields of the JSON body,
// which also covers payloads republished verbatim from the outbox.
func messageHeaders(body []byte, correlationID string) map[string]string {
	headers := make(map[string]string, 3)
	if correlationID != "" {
		headers[HeaderCorrelationID] = correlationID
	}
	var env struct {
		MessageID string `json:"message_id"`
		Version   string `json:"version"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.MessageID != "" {
			headers[HeaderMessageID] = env.MessageID
		}
		if env.Version != "" {
			headers[HeaderVersion] = env.Version
		}
	}
	return headers
}

// Producer publishes typed payloads to the broker. Publishing is
// synchronous; a transport failure surfaces to the caller as a
// SendError and is never silently dropped. No retry happens here.
type Producer interface {
	Send(ctx context.Context, exchange, routingKey string, payload any, correlationID string) error
}

// SendError wraps a transport failure at publish time
type SendError struct {
	Exchange   string
	RoutingKey string
	Err        error
}

// Error implements the error interface
func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send message to %s/%s: %v", e.Exchange, e.RoutingKey, e.Err)
}

// Unwrap returns the underlying transport error
func (e *SendError) Unwrap() error {
	return e.Err
}

// Delivery is one inbound message handed to a listener
type Delivery struct {
	Queue   string
	Body    []byte
	Headers map[string]string
}

// CorrelationID returns the correlation id header, if present
func (d Delivery) CorrelationID() string {
	return d.Headers[HeaderCorrelationID]
}

// MessageHandler processes a single delivery. A returned error is
// logged by the transport; the message is acknowledged either way.
type MessageHandler func(ctx context.Context, d Delivery) error

// ListenerRegistry maps queue names to handlers, independent of any
// particular transport binding. Each queue has exactly one handler.
type ListenerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]MessageHandler
}

// NewListenerRegistry creates an empty registry
func NewListenerRegistry() *ListenerRegistry {
	return &ListenerRegistry{handlers: make(map[string]MessageHandler)}
}

// Subscribe binds a queue to a handler, replacing any previous binding
func (r *ListenerRegistry) Subscribe(queue string, handler MessageHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[queue] = handler
}

// Handler returns the handler bound to a queue
func (r *ListenerRegistry) Handler(queue string) (MessageHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[queue]
	return h, ok
}

// Queues returns the bound queue names
func (r *ListenerRegistry) Queues() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	queues := make([]string, 0, len(r.handlers))
	for q := range r.handlers {
		queues = append(queues, q)
	}
	return queues
}

// Dispatch routes a delivery to its queue's handler
func (r *ListenerRegistry) Dispatch(ctx context.Context, d Delivery) error {
	handler, ok := r.Handler(d.Queue)
	if !ok {
		return fmt.Errorf("no handler subscribed for queue %q", d.Queue)
	}
	return handler(ctx, d)
}
