// Package audio serializes hazard warnings, alert tones and narration onto
// a single audio output.
package audio

import (
	"time"

	"github.com/google/uuid"
)

// Priority orders cues. High cues always play before low ones.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityHigh
)

// String implements fmt.Stringer.
func (p Priority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "low"
}

// Kind is the payload type of a cue.
type Kind int

const (
	KindSpeech Kind = iota
	KindTone
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == KindTone {
		return "tone"
	}
	return "speech"
}

// Cue is one unit of audio output.
type Cue struct {
	ID         uuid.UUID `json:"id"`
	Kind       Kind      `json:"kind"`
	Text       string    `json:"text,omitempty"`
	Priority   Priority  `json:"priority"`
	Subject    string    `json:"subject,omitempty"` // hazard identity, if any
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewCue creates a speech cue.
func NewCue(text string, priority Priority, subject string) Cue {
	return Cue{
		ID:         uuid.New(),
		Kind:       KindSpeech,
		Text:       text,
		Priority:   priority,
		Subject:    subject,
		EnqueuedAt: time.Now(),
	}
}

// NewToneCue creates an alert tone cue.
func NewToneCue() Cue {
	return Cue{
		ID:         uuid.New(),
		Kind:       KindTone,
		Priority:   PriorityHigh,
		EnqueuedAt: time.Now(),
	}
}
