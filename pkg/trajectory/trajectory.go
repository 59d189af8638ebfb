// Package trajectory labels how each tracked entity is moving relative to
// the camera, for inclusion in a spoken scene narration.
package trajectory

import (
	"fmt"
	"math"
	"strings"

	"github.com/teslashibe/go-narrator/pkg/history"
	"github.com/teslashibe/go-narrator/pkg/physics"
	"github.com/teslashibe/go-narrator/pkg/vision"
)

// Movement is the coarse movement class of an entity.
type Movement string

const (
	Approaching Movement = "approaching"
	Leaving     Movement = "leaving"
	Passing     Movement = "passing"
	Stationary  Movement = "stationary"
)

// MovementLabel describes one entity's movement.
type MovementLabel struct {
	ID       history.Identity `json:"id"`
	Class    string           `json:"class"`
	Movement Movement         `json:"movement"`
	Text     string           `json:"text"`
	Growth   float64          `json:"growth"`
	Velocity physics.Vector   `json:"velocity"`
	Speed    float64          `json:"speed"`
}

// Report is the output of one classification cycle.
type Report struct {
	Labels []MovementLabel `json:"labels"`
	Shake  bool            `json:"shake"` // thresholds were raised for camera motion
}

// Texts returns the label texts in report order.
func (r Report) Texts() []string {
	return Texts(r.Labels)
}

// Texts returns the descriptive text of each label, in order.
func Texts(labels []MovementLabel) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, l.Text)
	}
	return out
}

// Classifier labels entity movement. It is stateless and safe for
// concurrent use.
type Classifier struct {
	config   Config
	handheld map[string]bool
}

// New creates a classifier. An invalid config falls back to DefaultConfig.
func New(config Config) *Classifier {
	if config.Validate() != nil {
		config = DefaultConfig()
	}
	handheld := make(map[string]bool, len(config.HandheldClasses))
	for _, c := range config.HandheldClasses {
		handheld[strings.ToLower(c)] = true
	}
	return &Classifier{config: config, handheld: handheld}
}

// Config returns the classifier configuration.
func (c *Classifier) Config() Config {
	return c.config
}

type motion struct {
	growth   float64
	velocity physics.Vector
	speed    float64
}

// Classify labels every entity in the snapshot, ordered by identity.
// Handheld objects held by a person are omitted.
func (c *Classifier) Classify(snapshot history.Snapshot) Report {
	ids := snapshot.IDs()

	motions := make(map[history.Identity]motion, len(ids))
	for _, id := range ids {
		e := snapshot[id]
		if len(e.Observations) < c.config.MinObservations {
			continue
		}
		v := physics.Velocity(e.Observations, c.config.Lookback)
		motions[id] = motion{
			growth:   physics.Growth(e.Observations, c.config.Lookback),
			velocity: v,
			speed:    v.Magnitude(),
		}
	}

	shake := c.detectShake(motions)
	growthThreshold := c.config.GrowthThreshold
	motionThreshold := c.config.MotionThreshold
	if shake {
		growthThreshold *= c.config.ShakeScale
		motionThreshold *= c.config.ShakeScale
	}

	persons := personBoxes(snapshot)

	report := Report{Shake: shake, Labels: make([]MovementLabel, 0, len(ids))}
	for _, id := range ids {
		e := snapshot[id]
		if c.isHeld(e, persons) {
			continue
		}

		label := MovementLabel{ID: id, Class: e.Class, Movement: Stationary}
		if m, ok := motions[id]; ok {
			label.Growth = m.growth
			label.Velocity = m.velocity
			label.Speed = m.speed
			label.Movement = classify(m, growthThreshold, motionThreshold)
		}
		label.Text = c.describe(label)
		report.Labels = append(report.Labels, label)
	}
	return report
}

func classify(m motion, growthThreshold, motionThreshold float64) Movement {
	if m.speed <= motionThreshold {
		return Stationary
	}
	switch {
	case m.growth > growthThreshold:
		return Approaching
	case m.growth < -growthThreshold:
		return Leaving
	default:
		return Passing
	}
}

// detectShake reports whether most entities move together in one
// direction, which points at the camera moving rather than the scene.
func (c *Classifier) detectShake(motions map[history.Identity]motion) bool {
	var movers []physics.Vector
	var mean physics.Vector
	for _, m := range motions {
		if m.speed > c.config.ShakeMinSpeed {
			movers = append(movers, m.velocity)
			mean.X += m.velocity.X
			mean.Y += m.velocity.Y
		}
	}
	if len(movers) < 2 {
		return false
	}
	mean.X /= float64(len(movers))
	mean.Y /= float64(len(movers))

	aligned := 0
	for _, v := range movers {
		if v.Cosine(mean) > c.config.ShakeAlignment {
			aligned++
		}
	}
	return aligned*2 > len(motions)
}

func personBoxes(snapshot history.Snapshot) []vision.Box {
	var boxes []vision.Box
	for _, e := range snapshot {
		if e.Class != "person" {
			continue
		}
		if latest, ok := e.Latest(); ok {
			boxes = append(boxes, latest.Box)
		}
	}
	return boxes
}

func (c *Classifier) isHeld(e history.TrackedEntity, persons []vision.Box) bool {
	if !c.handheld[strings.ToLower(e.Class)] || len(persons) == 0 {
		return false
	}
	latest, ok := e.Latest()
	if !ok {
		return true
	}
	for _, p := range persons {
		if p.Contains(latest.Center) || latest.Box.OverlapRatio(p) > c.config.HandheldOverlap {
			return true
		}
	}
	return false
}

func (c *Classifier) describe(l MovementLabel) string {
	name := l.Class
	if name == "" {
		name = "object"
	}

	switch l.Movement {
	case Approaching:
		if l.Growth > c.config.RapidGrowth {
			return name + ": approaching rapidly"
		}
		return name + ": approaching"
	case Leaving:
		return name + ": leaving"
	case Passing:
		return fmt.Sprintf("%s: moving %s (passing by)", name, direction(l.Velocity))
	default:
		return name + ": stationary"
	}
}

func direction(v physics.Vector) string {
	if math.Abs(v.X) > math.Abs(v.Y) {
		if v.X > 0 {
			return "left to right"
		}
		return "right to left"
	}
	if v.Y > 0 {
		return "top to bottom"
	}
	return "bottom to top"
}

