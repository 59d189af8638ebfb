package exchange_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-narrator/pkg/exchange"
)

func TestNewQueueRejectsBadCapacity(t *testing.T) {
	if _, err := exchange.NewQueue[int](0); err != exchange.ErrInvalidCapacity {
		t.Errorf("got %v, want ErrInvalidCapacity", err)
	}
}

func TestQueueDropsNewestWhenFull(t *testing.T) {
	q, err := exchange.NewQueue[int](3)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 5; i++ {
		q.Push(i)
	}

	if q.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", q.Len())
	}

	ctx := context.Background()
	for want := 1; want <= 3; want++ {
		got, ok := q.Pop(ctx, 10*time.Millisecond)
		if !ok || got != want {
			t.Errorf("Pop: got (%d, %v), want (%d, true)", got, ok, want)
		}
	}

	stats := q.Stats()
	if stats.Pushed != 3 || stats.Dropped != 2 || stats.Popped != 3 {
		t.Errorf("Stats: got %+v, want pushed=3 dropped=2 popped=3", stats)
	}
}

func TestQueuePushNeverBlocks(t *testing.T) {
	q, _ := exchange.NewQueue[int](1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			q.Push(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Push blocked on a full queue")
	}

	if q.Len() > q.Cap() {
		t.Errorf("Len %d exceeds Cap %d", q.Len(), q.Cap())
	}
}

func TestQueuePopTimeout(t *testing.T) {
	q, _ := exchange.NewQueue[int](1)

	start := time.Now()
	_, ok := q.Pop(context.Background(), 30*time.Millisecond)
	if ok {
		t.Fatal("expected timeout on empty queue")
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Errorf("returned too early: %v", elapsed)
	}
}

func TestQueuePopHonorsContext(t *testing.T) {
	q, _ := exchange.NewQueue[int](1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if _, ok := q.Pop(ctx, time.Minute); ok {
		t.Fatal("expected no item")
	}
	if time.Since(start) > time.Second {
		t.Error("Pop ignored cancelled context")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q, _ := exchange.NewQueue[int](5)

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()

	stats := q.Stats()
	if stats.Pushed+stats.Dropped != 1000 {
		t.Errorf("pushed+dropped: got %d, want 1000", stats.Pushed+stats.Dropped)
	}
	if q.Len() != 5 {
		t.Errorf("Len: got %d, want 5", q.Len())
	}
}

func TestSlotLatestWins(t *testing.T) {
	s := exchange.NewSlot[exchange.Trigger]()
	now := time.Now()

	first := exchange.NewTrigger("keyboard", now)
	second := exchange.NewTrigger("http", now.Add(time.Millisecond))

	if s.Push(first) {
		t.Error("first push should not report a replacement")
	}
	if !s.Push(second) {
		t.Error("second push should replace the pending trigger")
	}

	got, ok := s.Pop(context.Background(), 10*time.Millisecond)
	if !ok {
		t.Fatal("expected a trigger")
	}
	if got.ID != second.ID {
		t.Errorf("got trigger from %q, want the latest (%q)", got.Source, second.Source)
	}

	if s.Pending() {
		t.Error("slot should be empty after pop")
	}
	if _, ok := s.Pop(context.Background(), 10*time.Millisecond); ok {
		t.Error("replaced trigger must not be delivered")
	}

	stats := s.Stats()
	if stats.Pushed != 2 || stats.Replaced != 1 || stats.Popped != 1 {
		t.Errorf("Stats: got %+v", stats)
	}
}

func TestSlotPushNeverBlocks(t *testing.T) {
	s := exchange.NewSlot[int]()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for p := 0; p < 4; p++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					s.Push(p*100 + i)
				}
			}(p)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Push blocked")
	}

	if !s.Pending() {
		t.Error("expected one pending item")
	}
}
