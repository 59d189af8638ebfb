package trajectory_test

import (
	"math"
	"testing"
	"time"

	"github.com/teslashibe/go-narrator/pkg/history"
	"github.com/teslashibe/go-narrator/pkg/trajectory"
	"github.com/teslashibe/go-narrator/pkg/vision"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type track struct {
	id               int
	class            string
	n                int
	fromX, fromY     float64
	toX, toY         float64
	areaFrom, areaTo float64
}

// record writes n evenly spaced observations over 1.5s for each track.
func record(t *testing.T, tracks ...track) history.Snapshot {
	t.Helper()
	store := history.New(history.DefaultConfig())
	for _, tr := range tracks {
		id := tr.id
		for i := 0; i < tr.n; i++ {
			f := 0.0
			if tr.n > 1 {
				f = float64(i) / float64(tr.n-1)
			}
			cx := tr.fromX + (tr.toX-tr.fromX)*f
			cy := tr.fromY + (tr.toY-tr.fromY)*f
			half := math.Sqrt(tr.areaFrom+(tr.areaTo-tr.areaFrom)*f) / 2
			ts := t0.Add(time.Duration(float64(1500*time.Millisecond) * f))
			obs := vision.NewObservation(uint64(i+1), ts,
				vision.Box{X1: cx - half, Y1: cy - half, X2: cx + half, Y2: cy + half},
				tr.class, 0.9, &id)
			if err := store.Record(history.ResolveIdentity(obs), obs); err != nil {
				t.Fatalf("Record: %v", err)
			}
		}
	}
	return store.Snapshot()
}

func TestClassifyBands(t *testing.T) {
	tests := []struct {
		name     string
		track    track
		movement trajectory.Movement
		text     string
	}{
		{
			name:     "stationary",
			track:    track{1, "chair", 10, 300, 300, 300, 300, 2500, 2500},
			movement: trajectory.Stationary,
			text:     "chair: stationary",
		},
		{
			name:     "near zero motion",
			track:    track{1, "person", 10, 300, 300, 305, 302, 2500, 2550},
			movement: trajectory.Stationary,
			text:     "person: stationary",
		},
		{
			name:     "approaching",
			track:    track{1, "person", 10, 100, 100, 300, 250, 1000, 1400},
			movement: trajectory.Approaching,
			text:     "person: approaching",
		},
		{
			name:     "approaching rapidly",
			track:    track{1, "person", 10, 100, 100, 300, 250, 1000, 2000},
			movement: trajectory.Approaching,
			text:     "person: approaching rapidly",
		},
		{
			name:     "leaving",
			track:    track{1, "car", 10, 300, 250, 100, 100, 2000, 1000},
			movement: trajectory.Leaving,
			text:     "car: leaving",
		},
		{
			name:     "passing left to right",
			track:    track{1, "dog", 10, 100, 300, 400, 300, 2500, 2500},
			movement: trajectory.Passing,
			text:     "dog: moving left to right (passing by)",
		},
		{
			name:     "passing bottom to top",
			track:    track{1, "bicycle", 10, 500, 600, 500, 200, 2500, 2500},
			movement: trajectory.Passing,
			text:     "bicycle: moving bottom to top (passing by)",
		},
		{
			name:     "insufficient history",
			track:    track{1, "car", 3, 100, 100, 600, 300, 1000, 3000},
			movement: trajectory.Stationary,
			text:     "car: stationary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := trajectory.New(trajectory.DefaultConfig()).Classify(record(t, tt.track))

			if len(report.Labels) != 1 {
				t.Fatalf("got %d labels, want 1", len(report.Labels))
			}
			got := report.Labels[0]
			if got.Movement != tt.movement {
				t.Errorf("movement: got %v, want %v", got.Movement, tt.movement)
			}
			if got.Text != tt.text {
				t.Errorf("text: got %q, want %q", got.Text, tt.text)
			}
		})
	}
}

func TestShakeRaisesThresholds(t *testing.T) {
	// Three entities drifting right together with moderate growth: without
	// compensation each would read as approaching.
	snap := record(t,
		track{1, "chair", 10, 100, 300, 400, 300, 1000, 1300},
		track{2, "table", 10, 200, 500, 500, 500, 1000, 1300},
		track{3, "tv", 10, 300, 100, 600, 100, 1000, 1300},
	)

	report := trajectory.New(trajectory.DefaultConfig()).Classify(snap)
	if !report.Shake {
		t.Fatal("expected shake to be detected")
	}
	for _, l := range report.Labels {
		if l.Movement == trajectory.Approaching {
			t.Errorf("%s: got approaching under shake, want thresholds raised", l.ID)
		}
	}

	single := trajectory.New(trajectory.DefaultConfig()).Classify(record(t,
		track{1, "chair", 10, 100, 300, 400, 300, 1000, 1300},
	))
	if single.Shake {
		t.Error("one mover cannot be shake")
	}
	if single.Labels[0].Movement != trajectory.Approaching {
		t.Errorf("single mover: got %v, want approaching", single.Labels[0].Movement)
	}
}

func TestNoShakeForOpposingMotion(t *testing.T) {
	snap := record(t,
		track{1, "person", 10, 100, 300, 400, 300, 2500, 2500},
		track{2, "person", 10, 900, 300, 600, 300, 2500, 2500},
	)

	report := trajectory.New(trajectory.DefaultConfig()).Classify(snap)
	if report.Shake {
		t.Error("opposing motion should not count as shake")
	}
}

func TestNoShakeWithoutMajority(t *testing.T) {
	// Two aligned movers among five eligible entities is not a majority.
	snap := record(t,
		track{1, "person", 10, 100, 300, 400, 300, 2500, 2500},
		track{2, "person", 10, 100, 500, 400, 500, 2500, 2500},
		track{3, "chair", 10, 700, 300, 700, 300, 2500, 2500},
		track{4, "chair", 10, 800, 300, 800, 300, 2500, 2500},
		track{5, "chair", 10, 900, 300, 900, 300, 2500, 2500},
	)

	if trajectory.New(trajectory.DefaultConfig()).Classify(snap).Shake {
		t.Error("expected no shake without a majority")
	}
}

func TestHandheldSuppressed(t *testing.T) {
	person := track{1, "person", 10, 640, 360, 640, 360, 200 * 400, 200 * 400}
	phone := track{2, "cell phone", 10, 650, 380, 650, 380, 400, 400}

	report := trajectory.New(trajectory.DefaultConfig()).Classify(record(t, person, phone))
	if len(report.Labels) != 1 || report.Labels[0].Class != "person" {
		t.Errorf("expected only the person, got %v", report.Texts())
	}

	alone := trajectory.New(trajectory.DefaultConfig()).Classify(record(t, phone))
	if len(alone.Labels) != 1 {
		t.Errorf("phone without a person should be reported, got %v", alone.Texts())
	}
}

func TestLabelsOrderedByIdentity(t *testing.T) {
	snap := record(t,
		track{3, "car", 10, 100, 100, 100, 100, 900, 900},
		track{1, "dog", 10, 500, 100, 500, 100, 900, 900},
		track{2, "cat", 10, 900, 100, 900, 100, 900, 900},
	)

	report := trajectory.New(trajectory.DefaultConfig()).Classify(snap)
	want := []string{"dog: stationary", "cat: stationary", "car: stationary"}
	got := report.Texts()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEmptySnapshot(t *testing.T) {
	report := trajectory.New(trajectory.DefaultConfig()).Classify(history.Snapshot{})
	if len(report.Labels) != 0 || report.Shake {
		t.Errorf("got %+v, want empty report", report)
	}
}
