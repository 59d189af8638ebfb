// Package physics derives motion features from an entity's observation
// history: area growth, center velocity, approach toward the frame
// center and central-zone membership. All windows are wall-clock based
// so the results do not depend on the capture frame rate.
package physics

import (
	"math"
	"time"

	"github.com/teslashibe/go-narrator/pkg/vision"
)

// Vector is a 2D velocity in pixels per second.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Magnitude returns the vector length.
func (v Vector) Magnitude() float64 {
	return math.Hypot(v.X, v.Y)
}

// Cosine returns the cosine similarity of v and w, 0 when either is zero.
func (v Vector) Cosine(w Vector) float64 {
	m := v.Magnitude() * w.Magnitude()
	if m == 0 {
		return 0
	}
	return (v.X*w.X + v.Y*w.Y) / m
}

// Window returns the suffix of observations (oldest first) whose
// timestamps fall within lookback of the newest one, inclusive.
func Window(observations []vision.Observation, lookback time.Duration) []vision.Observation {
	if len(observations) == 0 {
		return nil
	}
	cutoff := observations[len(observations)-1].Timestamp.Add(-lookback)

	i := len(observations) - 1
	for i > 0 && !observations[i-1].Timestamp.Before(cutoff) {
		i--
	}
	return observations[i:]
}

// Growth returns the percentage area change from the oldest to the newest
// observation in the window. It is 0 with fewer than two points or a
// zero starting area.
func Growth(observations []vision.Observation, lookback time.Duration) float64 {
	w := Window(observations, lookback)
	if len(w) < 2 {
		return 0
	}
	first, last := w[0].Area, w[len(w)-1].Area
	if first <= 0 {
		return 0
	}
	return (last - first) / first * 100
}

// Velocity returns the center displacement over the window divided by the
// window's time span. It is zero with fewer than two points or a zero span.
func Velocity(observations []vision.Observation, lookback time.Duration) Vector {
	w := Window(observations, lookback)
	if len(w) < 2 {
		return Vector{}
	}
	first, last := w[0], w[len(w)-1]
	dt := last.Timestamp.Sub(first.Timestamp).Seconds()
	if dt <= 0 {
		return Vector{}
	}
	return Vector{
		X: (last.Center.X - first.Center.X) / dt,
		Y: (last.Center.Y - first.Center.Y) / dt,
	}
}

// ApproachDelta returns how many pixels closer to target the center moved
// over the window. Positive means approaching.
func ApproachDelta(observations []vision.Observation, lookback time.Duration, target vision.Point) float64 {
	w := Window(observations, lookback)
	if len(w) < 2 {
		return 0
	}
	return w[0].Center.Distance(target) - w[len(w)-1].Center.Distance(target)
}

// Zone is the central region of the frame, expressed as the fraction of
// width and height it spans around the center.
type Zone struct {
	Fraction float64
}

// Contains reports whether p lies inside the zone of a width x height frame.
func (z Zone) Contains(p vision.Point, width, height int) bool {
	w, h := float64(width), float64(height)
	marginX := w * (1 - z.Fraction) / 2
	marginY := h * (1 - z.Fraction) / 2
	return p.X >= marginX && p.X <= w-marginX && p.Y >= marginY && p.Y <= h-marginY
}
