package hazard_test

import (
	"math"
	"testing"
	"time"

	"github.com/teslashibe/go-narrator/pkg/hazard"
	"github.com/teslashibe/go-narrator/pkg/history"
	"github.com/teslashibe/go-narrator/pkg/vision"
)

const (
	frameW = 1280
	frameH = 720
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type point struct{ x, y float64 }

// approach records n observations spread evenly over span, interpolating
// center and area linearly, and returns the last observation.
func approach(t *testing.T, store *history.Store, trackID int, class string, n int, span time.Duration, from, to point, areaFrom, areaTo float64) vision.Observation {
	t.Helper()
	var last vision.Observation
	for i := 0; i < n; i++ {
		f := float64(i) / float64(n-1)
		cx := from.x + (to.x-from.x)*f
		cy := from.y + (to.y-from.y)*f
		area := areaFrom + (areaTo-areaFrom)*f
		half := math.Sqrt(area) / 2
		ts := t0.Add(time.Duration(i) * span / time.Duration(n-1))
		last = vision.NewObservation(uint64(i+1), ts,
			vision.Box{X1: cx - half, Y1: cy - half, X2: cx + half, Y2: cy + half},
			class, 0.9, &trackID)
		if err := store.Record(history.ResolveIdentity(last), last); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	return last
}

func TestClassifyScenario(t *testing.T) {
	tests := []struct {
		name     string
		to       point
		priority hazard.Priority
	}{
		{"ends in center zone", point{640, 360}, hazard.PriorityHigh},
		{"ends outside center zone", point{300, 250}, hazard.PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := history.New(history.DefaultConfig())
			last := approach(t, store, 1, "person", 10, 1500*time.Millisecond, point{100, 100}, tt.to, 1000, 1600)

			c := hazard.New(hazard.DefaultConfig())
			got := c.Classify([]vision.Observation{last}, store, frameW, frameH)

			if len(got) != 1 {
				t.Fatalf("got %d hazards, want 1", len(got))
			}
			h := got[0]
			if h.Priority != tt.priority {
				t.Errorf("priority: got %v, want %v", h.Priority, tt.priority)
			}
			if math.Abs(h.Growth-60) > 0.5 {
				t.Errorf("growth: got %.2f, want ~60", h.Growth)
			}
			if h.ID != "t1" {
				t.Errorf("ID: got %q, want t1", h.ID)
			}
			if h.Reason == "" {
				t.Error("expected a reason")
			}
		})
	}
}

func TestClassifyRejects(t *testing.T) {
	tests := []struct {
		name              string
		class             string
		n                 int
		from, to          point
		areaFrom, areaTo float64
	}{
		{"non hazard class", "chair", 10, point{100, 100}, point{640, 360}, 1000, 1600},
		{"insufficient history", "car", 4, point{100, 100}, point{640, 360}, 1000, 1600},
		{"shrinking", "car", 10, point{100, 100}, point{640, 360}, 1600, 1000},
		{"expanding but moving away", "car", 10, point{600, 350}, point{100, 100}, 1000, 1600},
		{"small growth", "car", 10, point{100, 100}, point{640, 360}, 1000, 1100},
		{"stationary growth", "bus", 10, point{640, 360}, point{640, 360}, 1000, 1600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := history.New(history.DefaultConfig())
			last := approach(t, store, 7, tt.class, tt.n, 1500*time.Millisecond, tt.from, tt.to, tt.areaFrom, tt.areaTo)

			got := hazard.New(hazard.DefaultConfig()).Classify([]vision.Observation{last}, store, frameW, frameH)
			if len(got) != 0 {
				t.Errorf("expected no hazard, got %+v", got)
			}
		})
	}
}

func TestClassifyOrdersHighFirst(t *testing.T) {
	store := history.New(history.DefaultConfig())
	medium := approach(t, store, 1, "car", 10, 1500*time.Millisecond, point{100, 100}, point{300, 250}, 1000, 2000)
	high := approach(t, store, 2, "person", 10, 1500*time.Millisecond, point{200, 150}, point{640, 360}, 1000, 1300)

	got := hazard.New(hazard.DefaultConfig()).Classify([]vision.Observation{medium, high}, store, frameW, frameH)
	if len(got) != 2 {
		t.Fatalf("got %d hazards, want 2", len(got))
	}
	if got[0].Priority != hazard.PriorityHigh || got[0].Class != "person" {
		t.Errorf("first hazard: got %v %s, want high person", got[0].Priority, got[0].Class)
	}

	top, ok := hazard.Highest(got)
	if !ok || top.ID != got[0].ID {
		t.Errorf("Highest: got %v", top.ID)
	}
}

func TestPriorityMonotonicInZone(t *testing.T) {
	// The same motion ending deeper into the center never lowers priority.
	store := history.New(history.DefaultConfig())
	outside := approach(t, store, 1, "car", 10, 1500*time.Millisecond, point{100, 100}, point{350, 300}, 1000, 1600)
	inside := approach(t, store, 2, "car", 10, 1500*time.Millisecond, point{100, 100}, point{500, 300}, 1000, 1600)

	c := hazard.New(hazard.DefaultConfig())
	a := c.Classify([]vision.Observation{outside}, store, frameW, frameH)
	b := c.Classify([]vision.Observation{inside}, store, frameW, frameH)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("expected one hazard each, got %d and %d", len(a), len(b))
	}
	if b[0].Priority < a[0].Priority {
		t.Errorf("priority dropped from %v to %v", a[0].Priority, b[0].Priority)
	}
}

func TestClassifyInvalidFrame(t *testing.T) {
	store := history.New(history.DefaultConfig())
	last := approach(t, store, 1, "person", 10, 1500*time.Millisecond, point{100, 100}, point{640, 360}, 1000, 1600)

	if got := hazard.New(hazard.DefaultConfig()).Classify([]vision.Observation{last}, store, 0, 0); got != nil {
		t.Errorf("expected nil for zero-size frame, got %v", got)
	}
}

func TestWarningMessage(t *testing.T) {
	tests := []struct {
		h    hazard.Hazard
		want string
	}{
		{hazard.Hazard{Class: "person", Priority: hazard.PriorityHigh}, "STOP! Person in front of you"},
		{hazard.Hazard{Class: "car", Priority: hazard.PriorityMedium}, "Warning: Car detected"},
		{hazard.Hazard{Class: "", Priority: hazard.PriorityHigh}, "STOP! Object in front of you"},
	}

	for _, tt := range tests {
		if got := hazard.WarningMessage(tt.h); got != tt.want {
			t.Errorf("WarningMessage(%v): got %q, want %q", tt.h.Class, got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := hazard.DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if err := hazard.SensitiveConfig().Validate(); err != nil {
		t.Errorf("sensitive config invalid: %v", err)
	}

	bad := hazard.DefaultConfig()
	bad.ZoneFraction = 1.5
	if bad.Validate() == nil {
		t.Error("expected error for zone fraction > 1")
	}

	c := hazard.New(bad)
	if c.Config().ZoneFraction != 0.4 {
		t.Errorf("invalid config should fall back to defaults, got %v", c.Config().ZoneFraction)
	}
}
