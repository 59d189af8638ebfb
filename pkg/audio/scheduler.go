package audio

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned when enqueueing on a stopped scheduler.
	ErrClosed = errors.New("audio: scheduler closed")

	// ErrQueueFull is returned when a priority tier has no room.
	ErrQueueFull = errors.New("audio: queue full")
)

// Renderer plays a cue and blocks until it has finished.
type Renderer interface {
	Render(ctx context.Context, cue Cue) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, cue Cue) error

// Render implements Renderer.
func (f RendererFunc) Render(ctx context.Context, cue Cue) error {
	return f(ctx, cue)
}

// Config holds scheduler tuning.
type Config struct {
	ToneWait      time.Duration // longest wait for an in-flight tone before speaking
	RenderTimeout time.Duration // per-cue render limit
	MaxPending    int           // pending cues per priority tier
	Logger        *slog.Logger
}

// DefaultConfig returns the recommended scheduler configuration.
func DefaultConfig() Config {
	return Config{
		ToneWait:      500 * time.Millisecond,
		RenderTimeout: 30 * time.Second,
		MaxPending:    16,
		Logger:        slog.Default(),
	}
}

// Stats counts scheduler activity.
type Stats struct {
	Enqueued   int64 `json:"enqueued"`
	Dispatched int64 `json:"dispatched"`
	Failed     int64 `json:"failed"`
	Dropped    int64 `json:"dropped"`
	Tones      int64 `json:"tones"`
	TonesSkip  int64 `json:"tones_skipped"`
	Pending    int   `json:"pending"`
}

// Scheduler owns the audio output. One consumer renders speech cues in
// priority order; a separate tone worker plays alert tones so they are
// never queued behind speech.
type Scheduler struct {
	config   Config
	renderer Renderer
	queue    *Queue
	logger   *slog.Logger

	toneReq  chan Cue
	toneMu   sync.Mutex
	toneIdle chan struct{} // closed while no tone is playing

	enqueued   atomic.Int64
	dispatched atomic.Int64
	failed     atomic.Int64
	tones      atomic.Int64
	tonesSkip  atomic.Int64
}

// NewScheduler creates a scheduler for renderer.
func NewScheduler(renderer Renderer, config Config) *Scheduler {
	def := DefaultConfig()
	if config.ToneWait <= 0 {
		config.ToneWait = def.ToneWait
	}
	if config.RenderTimeout <= 0 {
		config.RenderTimeout = def.RenderTimeout
	}
	if config.Logger == nil {
		config.Logger = def.Logger
	}

	idle := make(chan struct{})
	close(idle)

	return &Scheduler{
		config:   config,
		renderer: renderer,
		queue:    NewQueue(config.MaxPending),
		logger:   config.Logger.With("component", "audio.scheduler"),
		toneReq:  make(chan Cue, 1),
		toneIdle: idle,
	}
}

// EnqueueHazard queues a high priority warning about subject.
func (s *Scheduler) EnqueueHazard(text, subject string) (uuid.UUID, error) {
	return s.enqueue(NewCue(text, PriorityHigh, subject))
}

// EnqueueNarration queues a low priority narration.
func (s *Scheduler) EnqueueNarration(text string) (uuid.UUID, error) {
	return s.enqueue(NewCue(text, PriorityLow, ""))
}

func (s *Scheduler) enqueue(c Cue) (uuid.UUID, error) {
	if !s.queue.Push(c) {
		if s.queue.Closed() {
			return uuid.Nil, ErrClosed
		}
		s.logger.Warn("cue dropped, queue full", "priority", c.Priority, "text", c.Text)
		return uuid.Nil, ErrQueueFull
	}
	s.enqueued.Add(1)
	return c.ID, nil
}

// Tone requests the alert tone. It never blocks; a request made while a
// tone is already playing or pending is dropped.
func (s *Scheduler) Tone() bool {
	s.toneMu.Lock()
	defer s.toneMu.Unlock()

	select {
	case <-s.toneIdle:
	default:
		s.tonesSkip.Add(1)
		return false
	}

	select {
	case s.toneReq <- NewToneCue():
		s.toneIdle = make(chan struct{})
		return true
	default:
		s.tonesSkip.Add(1)
		return false
	}
}

// ToneActive reports whether a tone is pending or playing.
func (s *Scheduler) ToneActive() bool {
	s.toneMu.Lock()
	idle := s.toneIdle
	s.toneMu.Unlock()

	select {
	case <-idle:
		return false
	default:
		return true
	}
}

// Run drains the queue until ctx is cancelled or Close is called. It
// renders one cue at a time and waits up to ToneWait for an in-flight tone
// before each one.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	stop := context.AfterFunc(ctx, s.queue.Close)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.toneLoop(ctx)
	}()

	s.logger.Info("audio scheduler started")
	for {
		cue, ok := s.queue.Pop()
		if !ok {
			s.logger.Info("audio scheduler stopped")
			return nil
		}

		s.waitTone(ctx)
		s.render(ctx, cue)
	}
}

func (s *Scheduler) render(ctx context.Context, cue Cue) {
	rctx, cancel := context.WithTimeout(ctx, s.config.RenderTimeout)
	defer cancel()

	start := time.Now()
	if err := s.renderer.Render(rctx, cue); err != nil {
		s.failed.Add(1)
		if ctx.Err() == nil {
			s.logger.Warn("render failed", "kind", cue.Kind, "priority", cue.Priority, "error", err)
		}
		return
	}
	s.dispatched.Add(1)
	s.logger.Debug("cue played",
		"kind", cue.Kind,
		"priority", cue.Priority,
		"queued_ms", start.Sub(cue.EnqueuedAt).Milliseconds(),
		"latency_ms", time.Since(start).Milliseconds(),
	)
}

func (s *Scheduler) waitTone(ctx context.Context) {
	s.toneMu.Lock()
	idle := s.toneIdle
	s.toneMu.Unlock()

	timer := time.NewTimer(s.config.ToneWait)
	defer timer.Stop()

	select {
	case <-idle:
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (s *Scheduler) toneLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cue := <-s.toneReq:
			if err := s.renderer.Render(ctx, cue); err != nil && ctx.Err() == nil {
				s.logger.Debug("tone failed", "error", err)
			} else {
				s.tones.Add(1)
			}

			s.toneMu.Lock()
			close(s.toneIdle)
			s.toneMu.Unlock()
		}
	}
}

// Close stops Run after the cue currently being rendered.
func (s *Scheduler) Close() {
	s.queue.Close()
}

// Stats returns a snapshot of scheduler counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Enqueued:   s.enqueued.Load(),
		Dispatched: s.dispatched.Load(),
		Failed:     s.failed.Load(),
		Dropped:    s.queue.Dropped(),
		Tones:      s.tones.Load(),
		TonesSkip:  s.tonesSkip.Load(),
		Pending:    s.queue.Len(),
	}
}
