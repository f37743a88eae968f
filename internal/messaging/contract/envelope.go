package contract

import (
	"github.com/google/uuid"
)

// Envelope carries the metadata every broker message needs: a globally
// unique message id, a schema version, and on responses the message id
// of the originating request as correlation id.
type Envelope struct {
	MessageID     string `json:"message_id"`
	Version       string `json:"version"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// NewEnvelope creates an envelope for an outbound request
func NewEnvelope(version string) Envelope {
	return Envelope{
		MessageID: uuid.NewString(),
		Version:   version,
	}
}

// NewResponseEnvelope creates an envelope correlated to a request
func NewResponseEnvelope(version, correlationID string) Envelope {
	e := NewEnvelope(version)
	e.CorrelationID = correlationID
	return e
}
