// Package hazard decides, every reflex tick, which observed entities are
// on a collision course with the user.
//
// An entity is a hazard when its bounding box is expanding (it is getting
// closer) and its center is moving toward the middle of the frame. Being
// inside the central zone raises the priority to high.
package hazard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teslashibe/go-narrator/pkg/history"
	"github.com/teslashibe/go-narrator/pkg/physics"
	"github.com/teslashibe/go-narrator/pkg/vision"
)

// Priority orders hazards. The zero value is None.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityMedium
	PriorityHigh
)

// String implements fmt.Stringer.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "none"
	}
}

// MarshalText encodes the priority by name.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Hazard is one qualifying entity on the current tick.
type Hazard struct {
	ID        history.Identity `json:"id"`
	Class     string           `json:"class"`
	Priority  Priority         `json:"priority"`
	Reason    string           `json:"reason"`
	Growth    float64          `json:"growth"`
	Velocity  physics.Vector   `json:"velocity"`
	Speed     float64          `json:"speed"`
	InZone    bool             `json:"in_zone"`
	Area      float64          `json:"area"`
	AreaRatio float64          `json:"area_ratio"` // fraction of the frame covered
	Center    vision.Point     `json:"center"`
	Timestamp time.Time        `json:"timestamp"`
}

// Classifier evaluates observations against entity history. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	config  Config
	classes map[string]bool
	zone    physics.Zone
}

// New creates a classifier. An invalid config falls back to DefaultConfig.
func New(config Config) *Classifier {
	if config.Validate() != nil {
		config = DefaultConfig()
	}
	classes := make(map[string]bool, len(config.Classes))
	for _, c := range config.Classes {
		classes[strings.ToLower(c)] = true
	}
	return &Classifier{
		config:  config,
		classes: classes,
		zone:    physics.Zone{Fraction: config.ZoneFraction},
	}
}

// Config returns the classifier configuration.
func (c *Classifier) Config() Config {
	return c.config
}

// IsHazardClass reports whether class is eligible.
func (c *Classifier) IsHazardClass(class string) bool {
	return c.classes[strings.ToLower(class)]
}

// Classify returns the hazards among current for a width x height frame,
// high priority first and then by growth. The current observations must
// already be recorded in store.
func (c *Classifier) Classify(current []vision.Observation, store history.Reader, width, height int) []Hazard {
	if width <= 0 || height <= 0 {
		return nil
	}

	frameCenter := vision.Point{X: float64(width) / 2, Y: float64(height) / 2}
	frameArea := float64(width * height)

	var hazards []Hazard
	for _, obs := range current {
		if !c.IsHazardClass(obs.Class) {
			continue
		}

		id := history.ResolveIdentity(obs)
		entity, ok := store.Get(id)
		if !ok || len(entity.Observations) < c.config.MinObservations {
			continue
		}

		h, ok := c.evaluate(id, obs, entity.Observations, frameCenter, width, height)
		if !ok {
			continue
		}
		h.AreaRatio = obs.Area / frameArea
		hazards = append(hazards, h)
	}

	sort.SliceStable(hazards, func(i, j int) bool {
		if hazards[i].Priority != hazards[j].Priority {
			return hazards[i].Priority > hazards[j].Priority
		}
		return hazards[i].Growth > hazards[j].Growth
	})
	return hazards
}

func (c *Classifier) evaluate(id history.Identity, obs vision.Observation, past []vision.Observation, frameCenter vision.Point, width, height int) (Hazard, bool) {
	growth := physics.Growth(past, c.config.Lookback)
	if growth <= c.config.ExpansionThreshold {
		return Hazard{}, false
	}

	velocity := physics.Velocity(past, c.config.Lookback)
	speed := velocity.Magnitude()
	approach := physics.ApproachDelta(past, c.config.Lookback, frameCenter)
	if approach <= c.config.MinApproachDistance {
		return Hazard{}, false
	}

	inZone := c.zone.Contains(obs.Center, width, height)
	priority := PriorityMedium
	if inZone {
		priority = PriorityHigh
	}

	reason := fmt.Sprintf("expanding %.1f%% in %.1fs, closing %.0f px on center", growth, c.config.Lookback.Seconds(), approach)
	if speed > c.config.MotionThreshold {
		reason += fmt.Sprintf(" at %.0f px/s", speed)
	}
	if inZone {
		reason += ", in center zone"
	}

	return Hazard{
		ID:        id,
		Class:     obs.Class,
		Priority:  priority,
		Reason:    reason,
		Growth:    growth,
		Velocity:  velocity,
		Speed:     speed,
		InZone:    inZone,
		Area:      obs.Area,
		Center:    obs.Center,
		Timestamp: obs.Timestamp,
	}, true
}

// Highest returns the top hazard, if any.
func Highest(hazards []Hazard) (Hazard, bool) {
	if len(hazards) == 0 {
		return Hazard{}, false
	}
	best := hazards[0]
	for _, h := range hazards[1:] {
		if h.Priority > best.Priority || (h.Priority == best.Priority && h.Growth > best.Growth) {
			best = h
		}
	}
	return best, true
}

// WarningMessage renders the spoken warning for a hazard.
func WarningMessage(h Hazard) string {
	name := displayName(h.Class)
	if h.Priority == PriorityHigh {
		return fmt.Sprintf("STOP! %s in front of you", name)
	}
	return fmt.Sprintf("Warning: %s detected", name)
}

func displayName(class string) string {
	class = strings.TrimSpace(class)
	if class == "" {
		return "Object"
	}
	return strings.ToUpper(class[:1]) + class[1:]
}
