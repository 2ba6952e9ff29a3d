package eventbus

import (
	"context"
	"time"
)

// Priority indicates the importance of an event. It is carried on the event
// for subscribers to inspect; the bus itself dispatches in FIFO order and
// never reorders by priority.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// String returns the lowercase name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Event is an immutable named message delivered to subscribers. The payload
// is opaque to the bus.
type Event struct {
	Name          string    `json:"name"`
	Payload       any       `json:"payload"`
	Timestamp     time.Time `json:"timestamp"`
	Priority      Priority  `json:"priority"`
	Source        string    `json:"source,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// Handler processes a single event. A non-nil error (or a panic) is recorded
// against the bus error counter and never propagated to the publisher or to
// sibling handlers.
type Handler func(ctx context.Context, e Event) error

// PublishOption sets optional metadata on an event at publish time.
type PublishOption func(*Event)

// WithPriority overrides the default PriorityNormal.
func WithPriority(p Priority) PublishOption {
	return func(e *Event) { e.Priority = p }
}

// WithSource tags the event with a free-text origin.
func WithSource(source string) PublishOption {
	return func(e *Event) { e.Source = source }
}

// WithCorrelationID tags the event with a correlation identifier so related
// events can be traced across a request.
func WithCorrelationID(id string) PublishOption {
	return func(e *Event) { e.CorrelationID = id }
}
