// Package events defines the envelope carried on the shared event queue
// between source producers and the dispatcher.
package events

import (
	"errors"
	"time"
)

var (
	// ErrMissingSourceID is returned when an envelope has no source instance ID.
	ErrMissingSourceID = errors.New("source_id is required")

	// ErrMissingSourceType is returned when an envelope has no source type.
	ErrMissingSourceType = errors.New("source_type is required")
)

// SourceEvent wraps one JSON value produced by an event source. The payload
// is the raw decoded value exactly as the source read it; routing (the
// "type" discriminator, workflow binding, variable extraction) happens in
// the runtime, not here.
type SourceEvent struct {
	// SourceID identifies the source instance that produced the event,
	// e.g. "file-3f2a9c1d".
	SourceID string `json:"source_id" validate:"required"`

	// SourceType is the source's type discriminator, e.g. "file", "tcp".
	SourceType string `json:"source_type" validate:"required"`

	// ReceivedAt is when the source handed the event to the queue.
	ReceivedAt time.Time `json:"received_at"`

	// Payload is the decoded JSON value. Any JSON type is allowed here;
	// the router rejects non-objects when the event is dispatched.
	Payload any `json:"payload"`
}

// NewSourceEvent builds an envelope stamped with the current time.
func NewSourceEvent(sourceID, sourceType string, payload any) *SourceEvent {
	return &SourceEvent{
		SourceID:   sourceID,
		SourceType: sourceType,
		ReceivedAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// EventType peeks at the payload's "type" field, returning the empty
// string when the payload is not an object or carries no string type.
// Used for logging and span attributes; the runtime re-extracts it with
// proper error handling during routing.
func (e *SourceEvent) EventType() string {
	obj, ok := e.Payload.(map[string]any)
	if !ok {
		return ""
	}

	eventType, _ := obj["type"].(string)

	return eventType
}

// Validate performs basic structural validation on the envelope.
func (e *SourceEvent) Validate() error {
	if e.SourceID == "" {
		return ErrMissingSourceID
	}

	if e.SourceType == "" {
		return ErrMissingSourceType
	}

	return nil
}
