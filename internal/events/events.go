// Package events provides typed event emission decoupled from return values.
// The engine publishes messages to a pluggable sink; production wires the
// sink to structured logging, tests wire it to an in-memory capture list.
package events

import (
	"io"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapmesh/internal/artifact"
)

// Event names.
const (
	// PublicationArtifactAvailable fires exactly once per fully successful
	// run, after all nodes are finalized, carrying the serialized artifact.
	PublicationArtifactAvailable = "PublicationArtifactAvailable"
)

// Event is a named message with structured data.
type Event struct {
	Name string
	Data map[string]any
}

// NewPublicationAvailable builds the emission event for a publication.
func NewPublicationAvailable(pub *artifact.Publication) Event {
	return Event{
		Name: PublicationArtifactAvailable,
		Data: map[string]any{"pub_artifact": pub},
	}
}

// Sink consumes events. Implementations must be safe for concurrent use.
type Sink interface {
	Publish(event Event)
}

// LogSink writes events to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink backed by the given logger. A nil logger
// discards all events.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogSink{logger: logger}
}

// Publish logs the event name with its data attributes.
func (s *LogSink) Publish(event Event) {
	attrs := make([]any, 0, 2*len(event.Data))
	for k, v := range event.Data {
		attrs = append(attrs, k, v)
	}
	s.logger.Info(event.Name, attrs...)
}

// Capture records events in memory for tests.
type Capture struct {
	mu     sync.Mutex
	events []Event
}

// NewCapture creates an empty capture sink.
func NewCapture() *Capture {
	return &Capture{}
}

// Publish appends the event.
func (c *Capture) Publish(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns a copy of the captured events.
func (c *Capture) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Named returns captured events matching the given name.
func (c *Capture) Named(name string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
