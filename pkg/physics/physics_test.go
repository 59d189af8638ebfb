package physics_test

import (
	"math"
	"testing"
	"time"

	"github.com/teslashibe/go-narrator/pkg/physics"
	"github.com/teslashibe/go-narrator/pkg/vision"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// square returns an observation whose box is centered at (cx, cy) with the given area.
func square(at time.Duration, cx, cy, area float64) vision.Observation {
	half := math.Sqrt(area) / 2
	return vision.NewObservation(0, t0.Add(at), vision.Box{X1: cx - half, Y1: cy - half, X2: cx + half, Y2: cy + half}, "car", 0.9, nil)
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestWindowInclusive(t *testing.T) {
	obs := []vision.Observation{
		square(0, 0, 0, 100),
		square(500*time.Millisecond, 0, 0, 100),
		square(1000*time.Millisecond, 0, 0, 100),
		square(2000*time.Millisecond, 0, 0, 100),
	}

	if got := len(physics.Window(obs, time.Second)); got != 2 {
		t.Errorf("1s window: got %d points, want 2", got)
	}
	if got := len(physics.Window(obs, 1500*time.Millisecond)); got != 3 {
		t.Errorf("1.5s window: got %d points, want 3 (boundary inclusive)", got)
	}
	if got := len(physics.Window(nil, time.Second)); got != 0 {
		t.Errorf("empty: got %d", got)
	}
}

func TestGrowth(t *testing.T) {
	obs := []vision.Observation{
		square(0, 100, 100, 1000),
		square(750*time.Millisecond, 100, 100, 1300),
		square(1500*time.Millisecond, 100, 100, 1600),
	}

	if g := physics.Growth(obs, 1500*time.Millisecond); !approxEqual(g, 60, 1e-6) {
		t.Errorf("growth: got %v, want 60", g)
	}
	// Shorter lookback only sees the last two points.
	if g := physics.Growth(obs, 750*time.Millisecond); !approxEqual(g, 300.0/1300*100, 1e-6) {
		t.Errorf("short window growth: got %v", g)
	}
	if g := physics.Growth(obs[:1], time.Second); g != 0 {
		t.Errorf("single point growth: got %v, want 0", g)
	}
}

func TestVelocityPixelsPerSecond(t *testing.T) {
	obs := []vision.Observation{
		square(0, 100, 100, 400),
		square(500*time.Millisecond, 150, 100, 400),
		square(1000*time.Millisecond, 200, 50, 400),
	}

	v := physics.Velocity(obs, 2*time.Second)
	if !approxEqual(v.X, 100, 1e-6) || !approxEqual(v.Y, -50, 1e-6) {
		t.Errorf("velocity: got %+v, want (100,-50)", v)
	}

	same := []vision.Observation{square(0, 0, 0, 1), square(0, 10, 10, 1)}
	if v := physics.Velocity(same, time.Second); v != (physics.Vector{}) {
		t.Errorf("zero time span should give zero velocity, got %+v", v)
	}
}

func TestApproachDelta(t *testing.T) {
	center := vision.Point{X: 640, Y: 360}
	toward := []vision.Observation{square(0, 100, 360, 100), square(time.Second, 400, 360, 100)}
	away := []vision.Observation{square(0, 400, 360, 100), square(time.Second, 100, 360, 100)}

	if d := physics.ApproachDelta(toward, 2*time.Second, center); !approxEqual(d, 300, 1e-6) {
		t.Errorf("toward: got %v, want 300", d)
	}
	if d := physics.ApproachDelta(away, 2*time.Second, center); !approxEqual(d, -300, 1e-6) {
		t.Errorf("away: got %v, want -300", d)
	}
}

func TestZoneContains(t *testing.T) {
	z := physics.Zone{Fraction: 0.4}

	tests := []struct {
		p    vision.Point
		want bool
	}{
		{vision.Point{X: 640, Y: 360}, true},
		{vision.Point{X: 385, Y: 217}, true}, // just inside the corner
		{vision.Point{X: 383, Y: 360}, false},
		{vision.Point{X: 640, Y: 505}, false},
		{vision.Point{X: 100, Y: 100}, false},
	}

	for _, tt := range tests {
		if got := z.Contains(tt.p, 1280, 720); got != tt.want {
			t.Errorf("Contains(%v): got %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestVectorCosine(t *testing.T) {
	a := physics.Vector{X: 1, Y: 0}
	if c := a.Cosine(physics.Vector{X: 5, Y: 0}); !approxEqual(c, 1, 1e-9) {
		t.Errorf("parallel: got %v", c)
	}
	if c := a.Cosine(physics.Vector{X: -2, Y: 0}); !approxEqual(c, -1, 1e-9) {
		t.Errorf("opposite: got %v", c)
	}
	if c := a.Cosine(physics.Vector{}); c != 0 {
		t.Errorf("zero vector: got %v", c)
	}
}
