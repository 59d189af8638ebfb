// Package history keeps a short, bounded observation history per tracked
// entity. The reflex loop writes it every frame; the cognitive loop reads
// deep-copied snapshots.
package history

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/teslashibe/go-narrator/pkg/vision"
)

// ErrOutOfOrder is returned when an observation is older than the newest
// one already recorded for the same entity.
var ErrOutOfOrder = errors.New("history: observation older than entity history")

// Config holds store tuning.
type Config struct {
	Capacity   int    // observations kept per entity (ring size)
	StaleAfter uint64 // frames without a sighting before eviction
	EvictEvery int    // reflex ticks between eviction passes
}

// DefaultConfig keeps 3 seconds of history at 30 FPS and forgets an
// entity after one second unseen.
func DefaultConfig() Config {
	return Config{
		Capacity:   90,
		StaleAfter: 30,
		EvictEvery: 30,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.Capacity < 2 {
		return fmt.Errorf("history: capacity must be at least 2, got %d", c.Capacity)
	}
	if c.StaleAfter == 0 {
		return fmt.Errorf("history: stale threshold must be positive")
	}
	if c.EvictEvery <= 0 {
		return fmt.Errorf("history: eviction interval must be positive, got %d", c.EvictEvery)
	}
	return nil
}

// TrackedEntity is a copy of one entity's history, oldest observation first.
type TrackedEntity struct {
	ID           Identity             `json:"id"`
	Class        string               `json:"class"`
	Observations []vision.Observation `json:"observations"`
	FirstSeen    time.Time            `json:"first_seen"`
	LastSeen     time.Time            `json:"last_seen"`
	LastSeq      uint64               `json:"last_seq"`
}

// Latest returns the newest observation.
func (e TrackedEntity) Latest() (vision.Observation, bool) {
	if len(e.Observations) == 0 {
		return vision.Observation{}, false
	}
	return e.Observations[len(e.Observations)-1], true
}

// Reader is the read side used by the classifiers.
type Reader interface {
	Get(id Identity) (TrackedEntity, bool)
}

// Snapshot is an immutable point-in-time copy of every entity.
type Snapshot map[Identity]TrackedEntity

// Get implements Reader.
func (s Snapshot) Get(id Identity) (TrackedEntity, bool) {
	e, ok := s[id]
	return e, ok
}

// IDs returns the identities in sorted order.
func (s Snapshot) IDs() []Identity {
	ids := make([]Identity, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// entity owns a fixed ring of observations.
type entity struct {
	class     string
	ring      []vision.Observation
	start     int
	n         int
	firstSeen time.Time
	lastSeen  time.Time
	lastSeq   uint64
}

func (e *entity) push(obs vision.Observation) {
	if e.n < len(e.ring) {
		e.ring[(e.start+e.n)%len(e.ring)] = obs
		e.n++
		return
	}
	// Full: overwrite the oldest slot and advance.
	e.ring[e.start] = obs
	e.start = (e.start + 1) % len(e.ring)
}

func (e *entity) snapshot(id Identity) TrackedEntity {
	obs := make([]vision.Observation, e.n)
	for i := 0; i < e.n; i++ {
		obs[i] = e.ring[(e.start+i)%len(e.ring)]
	}
	return TrackedEntity{
		ID:           id,
		Class:        e.class,
		Observations: obs,
		FirstSeen:    e.firstSeen,
		LastSeen:     e.lastSeen,
		LastSeq:      e.lastSeq,
	}
}

// Store maps identities to bounded histories. All methods are safe for
// concurrent use; the lock is never held across calls out of the package.
type Store struct {
	config   Config
	mu       sync.RWMutex
	entities map[Identity]*entity
}

// New creates a store. An invalid config falls back to DefaultConfig.
func New(config Config) *Store {
	if config.Validate() != nil {
		config = DefaultConfig()
	}
	return &Store{
		config:   config,
		entities: make(map[Identity]*entity),
	}
}

// Config returns the store configuration.
func (s *Store) Config() Config {
	return s.config
}

// Record appends obs to id's history, creating the entity on first sight.
// When the ring is full only the oldest observation is evicted.
func (s *Store) Record(id Identity, obs vision.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entities[id]
	if !ok {
		e = &entity{
			class:     obs.Class,
			ring:      make([]vision.Observation, s.config.Capacity),
			firstSeen: obs.Timestamp,
		}
		s.entities[id] = e
	} else if obs.Timestamp.Before(e.lastSeen) {
		return ErrOutOfOrder
	}

	e.push(obs)
	e.lastSeen = obs.Timestamp
	e.lastSeq = obs.Seq
	return nil
}

// RecordAll resolves identities for a frame's observations and records
// them. The returned slice is parallel to observations; entries for
// rejected observations are empty.
func (s *Store) RecordAll(observations []vision.Observation) []Identity {
	ids := make([]Identity, len(observations))
	for i, obs := range observations {
		id := ResolveIdentity(obs)
		if err := s.Record(id, obs); err != nil {
			continue
		}
		ids[i] = id
	}
	return ids
}

// Get returns a copy of id's history.
func (s *Store) Get(id Identity) (TrackedEntity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entities[id]
	if !ok {
		return TrackedEntity{}, false
	}
	return e.snapshot(id), true
}

// Snapshot deep-copies every entity under a single read lock, so the
// result is never torn by a concurrent Record.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(Snapshot, len(s.entities))
	for id, e := range s.entities {
		snap[id] = e.snapshot(id)
	}
	return snap
}

// EvictStale removes entities whose last sighting is more than threshold
// frames before currentSeq and returns their identities.
func (s *Store) EvictStale(currentSeq, threshold uint64) []Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []Identity
	for id, e := range s.entities {
		if currentSeq > e.lastSeq && currentSeq-e.lastSeq > threshold {
			delete(s.entities, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// Len returns the number of tracked entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Clear forgets everything.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = make(map[Identity]*entity)
}
