// Package events carries what the assistant perceives and says to the
// presentation layer: the dashboard websocket, MQTT displays and the
// journal. Publishing is best effort and never blocks a loop for long.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-narrator/pkg/hazard"
	"github.com/teslashibe/go-narrator/pkg/vision"
)

// Kind identifies the payload carried by an Event.
type Kind string

const (
	KindHazard    Kind = "hazard"
	KindDetection Kind = "detection"
	KindNarration Kind = "narration"
	KindTrigger   Kind = "trigger"
)

// Event is the envelope published for every kind.
type Event struct {
	ID   uuid.UUID `json:"id"`
	Kind Kind      `json:"kind"`
	Time time.Time `json:"time"`
	Data any       `json:"data"`
}

// New wraps data in a fresh envelope.
func New(kind Kind, at time.Time, data any) Event {
	return Event{ID: uuid.New(), Kind: kind, Time: at, Data: data}
}

// HazardEvent is emitted by the reflex loop when a tick produced hazards.
type HazardEvent struct {
	Seq     uint64          `json:"seq"`
	Hazards []hazard.Hazard `json:"hazards"`
	Text    string          `json:"text,omitempty"`
	Spoken  bool            `json:"spoken"`
	Tone    bool            `json:"tone"`
}

// DetectionEvent summarizes one reflex tick.
type DetectionEvent struct {
	Seq          uint64               `json:"seq"`
	Source       string               `json:"source"`
	Observations []vision.Observation `json:"observations"`
	LatencyMs    int64                `json:"latency_ms"`
}

// NarrationEvent is emitted by the cognitive loop for every trigger served.
type NarrationEvent struct {
	TriggerID uuid.UUID `json:"trigger_id"`
	Source    string    `json:"source"`
	Caption   string    `json:"caption"`
	Movements []string  `json:"movements"`
	Text      string    `json:"text"`
	Fallback  bool      `json:"fallback"`
	LatencyMs int64     `json:"latency_ms"`
}

// TriggerEvent records that a narration was requested.
type TriggerEvent struct {
	TriggerID uuid.UUID `json:"trigger_id"`
	Source    string    `json:"source"`
	Replaced  bool      `json:"replaced"` // an unserved trigger was overwritten
}

// Publisher receives events. Implementations must be safe for concurrent
// use because the reflex and cognitive loops publish independently.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to several publishers. Every publisher is
// called even when an earlier one fails.
type Multi []Publisher

// Publish implements Publisher.
func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Publisher = Nop{}
	_ Publisher = Multi(nil)
	_ Publisher = PublisherFunc(nil)
)
