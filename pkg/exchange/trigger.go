package exchange

import (
	"time"

	"github.com/google/uuid"
)

// Trigger is a request for one scene narration.
type Trigger struct {
	ID     uuid.UUID `json:"id"`
	Source string    `json:"source"` // "keyboard", "http", "interval", ...
	At     time.Time `json:"at"`
}

// NewTrigger stamps a trigger with a fresh ID.
func NewTrigger(source string, at time.Time) Trigger {
	return Trigger{ID: uuid.New(), Source: source, At: at}
}
