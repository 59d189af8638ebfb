package detection_test

import (
	"context"
	"testing"
	"time"

	"github.com/teslashibe/go-narrator/pkg/detection"
	"github.com/teslashibe/go-narrator/pkg/vision"
)

func obs(class string, x1, y1, x2, y2 float64) vision.Observation {
	return vision.NewObservation(0, time.Time{}, vision.Box{X1: x1, Y1: y1, X2: x2, Y2: y2}, class, 0.9, nil)
}

func ids(t *testing.T, observations []vision.Observation) []int {
	t.Helper()
	out := make([]int, len(observations))
	for i, o := range observations {
		if o.TrackID == nil {
			t.Fatalf("observation %d has no track ID", i)
		}
		out[i] = *o.TrackID
	}
	return out
}

func TestAssociatorKeepsIdentity(t *testing.T) {
	a := detection.NewAssociator(detection.DefaultAssociatorConfig())

	first := ids(t, a.Assign(1, []vision.Observation{
		obs("person", 100, 100, 200, 300),
		obs("car", 600, 300, 900, 500),
	}))
	if first[0] == first[1] {
		t.Fatalf("distinct objects share ID %d", first[0])
	}

	// Both moved a little and arrive in the opposite order.
	second := ids(t, a.Assign(2, []vision.Observation{
		obs("car", 610, 305, 910, 505),
		obs("person", 105, 100, 205, 300),
	}))
	if second[0] != first[1] || second[1] != first[0] {
		t.Errorf("identities not carried over: first %v, second %v", first, second)
	}
}

func TestAssociatorClassMustMatch(t *testing.T) {
	a := detection.NewAssociator(detection.DefaultAssociatorConfig())
	first := ids(t, a.Assign(1, []vision.Observation{obs("dog", 0, 0, 100, 100)}))
	second := ids(t, a.Assign(2, []vision.Observation{obs("cat", 0, 0, 100, 100)}))
	if first[0] == second[0] {
		t.Error("a different class must start a new track")
	}
}

func TestAssociatorExpiresTracks(t *testing.T) {
	a := detection.NewAssociator(detection.AssociatorConfig{MinIoU: 0.3, MaxAge: 5})
	a.Assign(1, []vision.Observation{obs("person", 0, 0, 100, 100)})
	a.Assign(3, nil)
	if a.Len() != 1 {
		t.Fatalf("track expired early, len=%d", a.Len())
	}
	a.Assign(10, nil)
	if a.Len() != 0 {
		t.Errorf("stale track kept, len=%d", a.Len())
	}
}

func TestAssociatorKeepsDetectorIDs(t *testing.T) {
	a := detection.NewAssociator(detection.DefaultAssociatorConfig())
	out := a.Assign(1, []vision.Observation{obs("car", 0, 0, 10, 10).WithTrackID(42)})
	if got := ids(t, out); got[0] != 42 {
		t.Errorf("got %d, want the detector's ID 42", got[0])
	}
	next := ids(t, a.Assign(2, []vision.Observation{obs("bus", 500, 500, 600, 600)}))
	if next[0] <= 42 {
		t.Errorf("new ID %d collides with detector IDs", next[0])
	}
}

func TestMockRestamps(t *testing.T) {
	m := detection.NewMock(obs("chair", 10, 10, 50, 50))
	ts := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	got, err := m.Detect(context.Background(), vision.Frame{Seq: 9, Timestamp: ts})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Seq != 9 || !got[0].Timestamp.Equal(ts) || got[0].Area != 1600 {
		t.Errorf("unexpected observation %+v", got)
	}
	if m.Calls() != 1 {
		t.Errorf("calls: got %d", m.Calls())
	}
}

func TestConfig(t *testing.T) {
	cfg := detection.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}

	keepAll := cfg.ClassFilter()
	if !keepAll("toaster") {
		t.Error("empty class list should keep everything")
	}

	cfg.Classes = []string{"person", "car"}
	keep := cfg.ClassFilter()
	if !keep("car") || keep("toaster") {
		t.Error("class filter mismatch")
	}

	cfg.Confidence = 1.5
	if cfg.Validate() == nil {
		t.Error("expected error for confidence > 1")
	}
}

func TestClassName(t *testing.T) {
	if detection.ClassName(0) != "person" || detection.ClassName(5) != "bus" {
		t.Error("COCO order broken")
	}
	if detection.ClassName(80) != "object" || detection.ClassName(-1) != "object" {
		t.Error("out of range IDs should map to object")
	}
	if !detection.IsVehicle("truck") || detection.IsVehicle("dog") || !detection.IsAnimal("dog") {
		t.Error("class groups wrong")
	}
}
