// Package cooldown rate-limits spoken hazard warnings and the alert tone.
package cooldown

import "time"

// State is a gate's lifecycle position.
type State int

const (
	Idle    State = iota // ready to admit
	Armed                // admission reserved, not yet fired
	Cooling              // fired, waiting out the interval
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Armed:
		return "armed"
	case Cooling:
		return "cooling"
	default:
		return "idle"
	}
}

// Gate is a single rate limit. A keyed gate only suppresses repeats of the
// key it last fired for; an unkeyed gate suppresses everything while
// cooling.
//
// Transitions: Idle -> Armed (Arm), Armed -> Cooling (Fire),
// Armed -> Idle (Disarm), Cooling -> Idle once Interval has elapsed.
// A Gate is not safe for concurrent use; each belongs to one loop.
type Gate struct {
	Interval time.Duration
	Keyed    bool

	state      State
	pendingKey string
	lastKey    string
	firedAt    time.Time
}

// NewGate creates an unkeyed gate.
func NewGate(interval time.Duration) *Gate {
	return &Gate{Interval: interval}
}

// NewKeyedGate creates a gate that only suppresses the same key.
func NewKeyedGate(interval time.Duration) *Gate {
	return &Gate{Interval: interval, Keyed: true}
}

// State returns the state at now, expiring a finished cooldown.
func (g *Gate) State(now time.Time) State {
	if g.state == Cooling && now.Sub(g.firedAt) >= g.Interval {
		g.state = Idle
	}
	return g.state
}

// Ready reports whether key would be admitted at now.
func (g *Gate) Ready(now time.Time, key string) bool {
	switch g.State(now) {
	case Idle:
		return true
	case Cooling:
		return g.Keyed && key != g.lastKey
	default:
		return false
	}
}

// Arm reserves the gate for key. It returns false if the gate is not ready.
func (g *Gate) Arm(now time.Time, key string) bool {
	if !g.Ready(now, key) {
		return false
	}
	g.state = Armed
	g.pendingKey = key
	return true
}

// Fire starts the cooldown for the armed key. It is a no-op unless armed.
func (g *Gate) Fire(now time.Time) {
	if g.state != Armed {
		return
	}
	g.state = Cooling
	g.lastKey = g.pendingKey
	g.firedAt = now
}

// Disarm releases an armed gate without starting a cooldown. A keyed gate
// that was still cooling for an earlier key goes back to cooling.
func (g *Gate) Disarm() {
	if g.state != Armed {
		return
	}
	g.state = Idle
	if g.Keyed && !g.firedAt.IsZero() {
		g.state = Cooling
	}
	g.pendingKey = ""
}

// Remaining returns how long until the gate is idle again.
func (g *Gate) Remaining(now time.Time) time.Duration {
	if g.State(now) != Cooling {
		return 0
	}
	return g.Interval - now.Sub(g.firedAt)
}
