package history_test

import (
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-narrator/pkg/history"
	"github.com/teslashibe/go-narrator/pkg/vision"
)

var base = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func obsAt(seq uint64, class string, x float64) vision.Observation {
	ts := base.Add(time.Duration(seq) * 33 * time.Millisecond)
	return vision.NewObservation(seq, ts, vision.Box{X1: x, Y1: 100, X2: x + 50, Y2: 200}, class, 0.9, nil)
}

func TestRecordBoundsHistory(t *testing.T) {
	cfg := history.DefaultConfig()
	cfg.Capacity = 90
	s := history.New(cfg)

	for i := uint64(1); i <= 95; i++ {
		if err := s.Record("t1", obsAt(i, "person", float64(i))); err != nil {
			t.Fatalf("Record(%d): %v", i, err)
		}
	}

	e, ok := s.Get("t1")
	if !ok {
		t.Fatal("entity missing")
	}
	if len(e.Observations) != 90 {
		t.Fatalf("len: got %d, want 90", len(e.Observations))
	}
	// Exactly the five oldest were evicted.
	if first := e.Observations[0].Seq; first != 6 {
		t.Errorf("oldest seq: got %d, want 6", first)
	}
	if last := e.Observations[89].Seq; last != 95 {
		t.Errorf("newest seq: got %d, want 95", last)
	}
	for i := 1; i < len(e.Observations); i++ {
		if e.Observations[i].Seq != e.Observations[i-1].Seq+1 {
			t.Fatalf("order broken at %d: %d after %d", i, e.Observations[i].Seq, e.Observations[i-1].Seq)
		}
	}
	if e.LastSeq != 95 {
		t.Errorf("LastSeq: got %d, want 95", e.LastSeq)
	}
	if !e.FirstSeen.Equal(obsAt(1, "person", 0).Timestamp) {
		t.Errorf("FirstSeen should stay at the first sighting, got %v", e.FirstSeen)
	}
}

func TestRecordRejectsOutOfOrder(t *testing.T) {
	s := history.New(history.DefaultConfig())

	if err := s.Record("t1", obsAt(10, "car", 0)); err != nil {
		t.Fatal(err)
	}
	if err := s.Record("t1", obsAt(5, "car", 0)); err != history.ErrOutOfOrder {
		t.Errorf("got %v, want ErrOutOfOrder", err)
	}

	e, _ := s.Get("t1")
	if len(e.Observations) != 1 {
		t.Errorf("rejected observation was stored: len %d", len(e.Observations))
	}
}

func TestEvictStale(t *testing.T) {
	s := history.New(history.DefaultConfig())

	s.Record("old", obsAt(10, "car", 0))
	s.Record("fresh", obsAt(100, "person", 0))

	evicted := s.EvictStale(100, 30)
	if len(evicted) != 1 || evicted[0] != "old" {
		t.Errorf("evicted: got %v, want [old]", evicted)
	}
	if _, ok := s.Get("old"); ok {
		t.Error("stale entity still present")
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Error("fresh entity was evicted")
	}

	// Exactly at the threshold is not stale.
	s.Record("edge", obsAt(70, "dog", 0))
	if ev := s.EvictStale(100, 30); len(ev) != 0 {
		t.Errorf("entity 30 frames old should survive, evicted %v", ev)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := history.New(history.DefaultConfig())
	s.Record("t1", obsAt(1, "person", 0))

	snap := s.Snapshot()
	s.Record("t1", obsAt(2, "person", 10))
	s.Record("t2", obsAt(2, "car", 300))

	if len(snap) != 1 {
		t.Errorf("snapshot saw later entity: %d entities", len(snap))
	}
	if n := len(snap["t1"].Observations); n != 1 {
		t.Errorf("snapshot saw later observation: %d", n)
	}

	snap["t1"].Observations[0].Class = "mutated"
	e, _ := s.Get("t1")
	if e.Observations[0].Class != "person" {
		t.Error("mutating snapshot leaked into store")
	}

	ids := s.Snapshot().IDs()
	if len(ids) != 2 || ids[0] != "t1" || ids[1] != "t2" {
		t.Errorf("IDs: got %v", ids)
	}
}

func TestConcurrentRecordAndSnapshot(t *testing.T) {
	s := history.New(history.DefaultConfig())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := uint64(1); i <= 500; i++ {
			s.RecordAll([]vision.Observation{
				obsAt(i, "person", 0).WithTrackID(1),
				obsAt(i, "car", 400).WithTrackID(2),
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			for _, e := range s.Snapshot() {
				for j := 1; j < len(e.Observations); j++ {
					if e.Observations[j].Seq <= e.Observations[j-1].Seq {
						t.Errorf("torn snapshot for %s", e.ID)
						return
					}
				}
			}
		}
	}()
	wg.Wait()

	if s.Len() != 2 {
		t.Errorf("Len: got %d, want 2", s.Len())
	}
}

func TestResolveIdentity(t *testing.T) {
	tracked := obsAt(1, "person", 100).WithTrackID(42)
	if got := history.ResolveIdentity(tracked); got != "t42" {
		t.Errorf("tracked identity: got %q, want t42", got)
	}

	a := history.ResolveIdentity(obsAt(1, "car", 100))
	b := history.ResolveIdentity(obsAt(2, "car", 101))
	c := history.ResolveIdentity(obsAt(1, "truck", 100))

	if !a.Synthetic() {
		t.Errorf("%q should be synthetic", a)
	}
	if a != b {
		t.Errorf("jitter changed synthetic identity: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different classes share a synthetic identity")
	}
}

func TestNewFallsBackOnInvalidConfig(t *testing.T) {
	s := history.New(history.Config{Capacity: 1})
	if s.Config() != history.DefaultConfig() {
		t.Errorf("got %+v, want defaults", s.Config())
	}
}
