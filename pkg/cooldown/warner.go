package cooldown

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-narrator/pkg/hazard"
	"github.com/teslashibe/go-narrator/pkg/history"
)

// Config holds the warning cadence.
type Config struct {
	Global     time.Duration // minimum gap between any two spoken warnings
	SameHazard time.Duration // minimum gap between warnings about one identity
	Tone       time.Duration // minimum gap between alert tones
	TooClose   float64       // frame fraction at or above which the tone is suppressed
}

// DefaultConfig returns the recommended cadence.
func DefaultConfig() Config {
	return Config{
		Global:     5 * time.Second,
		SameHazard: 3 * time.Second,
		Tone:       3 * time.Second,
		TooClose:   0.4,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.Global < 0 || c.SameHazard < 0 || c.Tone < 0 {
		return fmt.Errorf("cooldown: intervals must not be negative")
	}
	if c.TooClose <= 0 || c.TooClose > 1 {
		return fmt.Errorf("cooldown: too-close fraction must be in (0, 1], got %v", c.TooClose)
	}
	return nil
}

// Decision is what the reflex loop should emit for one tick.
type Decision struct {
	Hazard  hazard.Hazard
	Subject history.Identity
	Text    string
	Speak   bool
	Tone    bool
}

// Any reports whether anything should be played.
func (d Decision) Any() bool {
	return d.Speak || d.Tone
}

// Warner applies the three warning cooldowns. It is owned by the reflex
// loop and is not safe for concurrent use.
type Warner struct {
	config Config
	clock  Clock

	global *Gate
	same   *Gate
	tone   *Gate
}

// NewWarner creates a warner. A nil clock uses the system clock and an
// invalid config falls back to DefaultConfig.
func NewWarner(config Config, clock Clock) *Warner {
	if config.Validate() != nil {
		config = DefaultConfig()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Warner{
		config: config,
		clock:  clock,
		global: NewGate(config.Global),
		same:   NewKeyedGate(config.SameHazard),
		tone:   NewGate(config.Tone),
	}
}

// Admit decides whether the top hazard of this tick is spoken and whether
// the alert tone sounds.
//
// A warning about the same identity within SameHazard is dropped entirely.
// Otherwise speech needs the global gate. The tone only accompanies an
// admitted warning: high priority, not when the object already fills
// TooClose or more of the frame, and only once the tone gate is idle. Every
// admitted warning starts the same-hazard cooldown, so one identity yields
// at most one audible cue per SameHazard.
func (w *Warner) Admit(hazards []hazard.Hazard) Decision {
	top, ok := hazard.Highest(hazards)
	if !ok {
		return Decision{}
	}

	now := w.clock.Now()
	key := string(top.ID)
	if !w.same.Arm(now, key) {
		return Decision{}
	}
	if !w.global.Arm(now, "") {
		w.same.Disarm()
		return Decision{}
	}
	w.global.Fire(now)
	w.same.Fire(now)

	d := Decision{
		Hazard:  top,
		Subject: top.ID,
		Text:    hazard.WarningMessage(top),
		Speak:   true,
	}
	if top.Priority == hazard.PriorityHigh && top.AreaRatio < w.config.TooClose && w.tone.Arm(now, "") {
		w.tone.Fire(now)
		d.Tone = true
	}
	return d
}

// Reset returns every gate to idle.
func (w *Warner) Reset() {
	w.global = NewGate(w.config.Global)
	w.same = NewKeyedGate(w.config.SameHazard)
	w.tone = NewGate(w.config.Tone)
}
