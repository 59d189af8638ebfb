package events

import (
	"context"
	"sync"
)

// Recent keeps the last few events of each kind in memory for the
// dashboard's polling endpoints.
type Recent struct {
	limit int

	mu     sync.RWMutex
	byKind map[Kind][]Event
}

// NewRecent keeps up to limit events per kind. A non-positive limit keeps 50.
func NewRecent(limit int) *Recent {
	if limit <= 0 {
		limit = 50
	}
	return &Recent{limit: limit, byKind: make(map[Kind][]Event)}
}

// Publish implements Publisher.
func (r *Recent) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := append(r.byKind[e.Kind], e)
	if len(list) > r.limit {
		list = list[len(list)-r.limit:]
	}
	r.byKind[e.Kind] = list
	return nil
}

// List returns the retained events of kind, newest first.
func (r *Recent) List(kind Kind) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byKind[kind]
	out := make([]Event, len(list))
	for i, e := range list {
		out[len(list)-1-i] = e
	}
	return out
}

// Latest returns the newest event of kind.
func (r *Recent) Latest(kind Kind) (Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.byKind[kind]
	if len(list) == 0 {
		return Event{}, false
	}
	return list[len(list)-1], true
}

var _ Publisher = (*Recent)(nil)
