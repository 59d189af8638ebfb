package audio_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-narrator/pkg/audio"
	"github.com/teslashibe/go-narrator/pkg/audioio"
	"github.com/teslashibe/go-narrator/pkg/tts"
)

func TestQueuePriorityAndFIFO(t *testing.T) {
	q := audio.NewQueue(0)
	q.Push(audio.NewCue("low 1", audio.PriorityLow, ""))
	q.Push(audio.NewCue("high 1", audio.PriorityHigh, "t1"))
	q.Push(audio.NewCue("low 2", audio.PriorityLow, ""))
	q.Push(audio.NewCue("high 2", audio.PriorityHigh, "t2"))

	want := []string{"high 1", "high 2", "low 1", "low 2"}
	for _, w := range want {
		c, ok := q.Pop()
		if !ok {
			t.Fatal("unexpected closed queue")
		}
		if c.Text != w {
			t.Errorf("got %q, want %q", c.Text, w)
		}
	}
}

func TestQueueCloseUnblocksPop(t *testing.T) {
	q := audio.NewQueue(0)
	done := make(chan bool)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Pop after Close should report closed")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock on Close")
	}

	if q.Push(audio.NewCue("late", audio.PriorityLow, "")) {
		t.Error("Push after Close should fail")
	}
}

func TestQueueLimit(t *testing.T) {
	q := audio.NewQueue(1)
	if !q.Push(audio.NewCue("a", audio.PriorityLow, "")) {
		t.Fatal("first push should succeed")
	}
	if q.Push(audio.NewCue("b", audio.PriorityLow, "")) {
		t.Error("second low push should be dropped")
	}
	if !q.Push(audio.NewCue("c", audio.PriorityHigh, "")) {
		t.Error("high tier has its own room")
	}
	if q.Dropped() != 1 || q.Len() != 2 {
		t.Errorf("dropped=%d len=%d, want 1 and 2", q.Dropped(), q.Len())
	}
}

type event struct {
	name string
	at   time.Time
}

// recorder renders cues by logging them; tones take toneTime.
type recorder struct {
	mu       sync.Mutex
	events   []event
	toneTime time.Duration
	fail     bool
}

func (r *recorder) Render(ctx context.Context, c audio.Cue) error {
	if c.Kind == audio.KindTone {
		r.log("tone-start")
		select {
		case <-time.After(r.toneTime):
		case <-ctx.Done():
			return ctx.Err()
		}
		r.log("tone-end")
		return nil
	}
	r.log(c.Text)
	if r.fail {
		return errors.New("speaker unplugged")
	}
	return nil
}

func (r *recorder) log(name string) {
	r.mu.Lock()
	r.events = append(r.events, event{name, time.Now()})
	r.mu.Unlock()
}

func (r *recorder) snapshot() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events...)
}

func (r *recorder) waitFor(t *testing.T, n int) []event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ev := r.snapshot(); len(ev) >= n {
			return ev
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, got %v", n, r.snapshot())
	return nil
}

func find(events []event, name string) (event, bool) {
	for _, e := range events {
		if e.name == name {
			return e, true
		}
	}
	return event{}, false
}

func runScheduler(t *testing.T, s *audio.Scheduler) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	return func() {
		stop()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Error("scheduler did not stop")
		}
	}
}

func TestSchedulerHighBeforeEarlierLow(t *testing.T) {
	r := &recorder{}
	s := audio.NewScheduler(r, audio.DefaultConfig())

	if _, err := s.EnqueueNarration("a chair on the left"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.EnqueueHazard("STOP! Person in front of you", "t1"); err != nil {
		t.Fatal(err)
	}

	stop := runScheduler(t, s)
	defer stop()

	ev := r.waitFor(t, 2)
	if ev[0].name != "STOP! Person in front of you" || ev[1].name != "a chair on the left" {
		t.Errorf("order: got %q then %q", ev[0].name, ev[1].name)
	}
}

func TestSchedulerWaitsForTone(t *testing.T) {
	r := &recorder{toneTime: 100 * time.Millisecond}
	s := audio.NewScheduler(r, audio.DefaultConfig())
	stop := runScheduler(t, s)
	defer stop()

	if !s.Tone() {
		t.Fatal("first tone should be accepted")
	}
	if s.Tone() {
		t.Error("tone in flight: second tone should be dropped")
	}
	s.EnqueueHazard("STOP! Car in front of you", "t4")

	ev := r.waitFor(t, 3)
	toneEnd, ok := find(ev, "tone-end")
	if !ok {
		t.Fatalf("no tone-end in %v", ev)
	}
	speech, _ := find(ev, "STOP! Car in front of you")
	if speech.at.Before(toneEnd.at) {
		t.Error("speech started before the tone finished")
	}
}

func TestSchedulerToneWaitIsBounded(t *testing.T) {
	r := &recorder{toneTime: 3 * time.Second}
	cfg := audio.DefaultConfig()
	cfg.ToneWait = 50 * time.Millisecond
	s := audio.NewScheduler(r, cfg)
	stop := runScheduler(t, s)
	defer stop()

	start := time.Now()
	s.Tone()
	s.EnqueueHazard("Warning: Bus detected", "t2")

	ev := r.waitFor(t, 2)
	speech, ok := find(ev, "Warning: Bus detected")
	if !ok {
		t.Fatalf("speech not rendered: %v", ev)
	}
	if waited := speech.at.Sub(start); waited > time.Second {
		t.Errorf("speech waited %v for a stuck tone", waited)
	}
	if !s.ToneActive() {
		t.Error("tone should still be playing")
	}
}

func TestSchedulerShutdown(t *testing.T) {
	s := audio.NewScheduler(&recorder{}, audio.DefaultConfig())

	done := make(chan error)
	go func() { done <- s.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	s.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}

	if _, err := s.EnqueueNarration("too late"); !errors.Is(err, audio.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSchedulerCountsFailures(t *testing.T) {
	r := &recorder{fail: true}
	s := audio.NewScheduler(r, audio.DefaultConfig())
	s.EnqueueNarration("hello")

	stop := runScheduler(t, s)
	r.waitFor(t, 1)
	time.Sleep(20 * time.Millisecond)
	stop()

	if st := s.Stats(); st.Failed != 1 || st.Dispatched != 0 || st.Enqueued != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestSpeechRenderer(t *testing.T) {
	speech := audioio.NewMockSink(audioio.DefaultConfig(), nil)
	tone := audioio.NewMockSink(audioio.DefaultConfig(), nil)
	provider := tts.NewMock()

	r := audio.NewSpeechRenderer(provider, speech, tone, audio.DefaultTone())
	ctx := context.Background()

	if err := r.Render(ctx, audio.NewCue("hi", audio.PriorityLow, "")); err != nil {
		t.Fatalf("speech: %v", err)
	}
	if err := r.Render(ctx, audio.NewToneCue()); err != nil {
		t.Fatalf("tone: %v", err)
	}

	played := speech.Played()
	if len(played) != 1 || played[0].SampleRate != 24000 || len(played[0].Samples) != 960 {
		t.Errorf("speech sink: got %d chunks", len(played))
	}
	if got := tone.Played(); len(got) != 1 || len(got[0].Samples) < 4790 {
		t.Errorf("tone sink: expected one 200ms tone, got %d chunks", len(got))
	}
	if provider.CallCount("Synthesize") != 1 {
		t.Errorf("expected one synthesis, got %d", provider.CallCount("Synthesize"))
	}

	failing := audio.NewSpeechRenderer(tts.WithError(tts.ErrProviderUnavailable), speech, nil, audio.ToneConfig{})
	if err := failing.Render(ctx, audio.NewCue("hi", audio.PriorityLow, "")); !errors.Is(err, tts.ErrProviderUnavailable) {
		t.Errorf("expected provider error, got %v", err)
	}
}
