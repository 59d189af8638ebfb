// Package assistant runs the two perception loops that make up the
// narrator.
//
// The reflex loop pulls frames from a bounded queue at camera cadence,
// detects objects, updates entity history and turns approaching objects
// into spoken warnings. The cognitive loop waits for a narration trigger,
// captions the current frame, adds the movement of tracked entities and
// asks a language model for a short description. Both feed one audio
// scheduler, where warnings always play before narration.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-narrator/pkg/audio"
	"github.com/teslashibe/go-narrator/pkg/caption"
	"github.com/teslashibe/go-narrator/pkg/cooldown"
	"github.com/teslashibe/go-narrator/pkg/detection"
	"github.com/teslashibe/go-narrator/pkg/events"
	"github.com/teslashibe/go-narrator/pkg/exchange"
	"github.com/teslashibe/go-narrator/pkg/hazard"
	"github.com/teslashibe/go-narrator/pkg/history"
	"github.com/teslashibe/go-narrator/pkg/narration"
	"github.com/teslashibe/go-narrator/pkg/trajectory"
	"github.com/teslashibe/go-narrator/pkg/vision"
)

var (
	// ErrRunning is returned by Run on a system that is already running.
	ErrRunning = errors.New("assistant: already running")

	// ErrMissingComponent is returned by New when a required collaborator is nil.
	ErrMissingComponent = errors.New("assistant: missing component")
)

// Components are the collaborators a System drives. Source, Detector,
// Scheduler, Captioner and Narrator are required; the rest default.
type Components struct {
	Source    vision.Source
	Detector  detection.Detector
	Scheduler *audio.Scheduler
	Captioner caption.Captioner
	Narrator  narration.Narrator

	Associator *detection.Associator
	Store      *history.Store
	Hazards    *hazard.Classifier
	Trajectory *trajectory.Classifier
	Warner     *cooldown.Warner
	Publisher  events.Publisher
}

// System owns the loops and the state they share.
type System struct {
	config Config
	logger *slog.Logger

	source     vision.Source
	detector   detection.Detector
	associator *detection.Associator
	store      *history.Store
	hazards    *hazard.Classifier
	trajectory *trajectory.Classifier
	warner     *cooldown.Warner
	scheduler  *audio.Scheduler
	captioner  caption.Captioner
	narrator   narration.Narrator
	publisher  events.Publisher

	frames   *exchange.Queue[vision.Frame]
	triggers *exchange.Slot[exchange.Trigger]
	cell     FrameCell

	running atomic.Bool
	stats   counters

	mu        sync.RWMutex
	startedAt time.Time
	frameFrom string
	recent    []hazard.Hazard
	movements []string
	narration string
}

type counters struct {
	captured      atomic.Uint64
	captureErrors atomic.Uint64
	ticks         atomic.Uint64
	detectErrors  atomic.Uint64
	warnings      atomic.Uint64
	narrations    atomic.Uint64
	fallbacks     atomic.Uint64
}

// New assembles a system. An invalid config falls back to DefaultConfig.
func New(c Components, config Config) (*System, error) {
	switch {
	case c.Source == nil:
		return nil, errors.Join(ErrMissingComponent, errors.New("source"))
	case c.Detector == nil:
		return nil, errors.Join(ErrMissingComponent, errors.New("detector"))
	case c.Scheduler == nil:
		return nil, errors.Join(ErrMissingComponent, errors.New("scheduler"))
	case c.Captioner == nil:
		return nil, errors.Join(ErrMissingComponent, errors.New("captioner"))
	case c.Narrator == nil:
		return nil, errors.Join(ErrMissingComponent, errors.New("narrator"))
	}

	if config.Validate() != nil {
		logger := config.Logger
		config = DefaultConfig()
		if logger != nil {
			config.Logger = logger
		}
	}
	config.applyDefaults()

	if c.Associator == nil {
		c.Associator = detection.NewAssociator(detection.DefaultAssociatorConfig())
	}
	if c.Store == nil {
		c.Store = history.New(history.DefaultConfig())
	}
	if c.Hazards == nil {
		c.Hazards = hazard.New(hazard.DefaultConfig())
	}
	if c.Trajectory == nil {
		c.Trajectory = trajectory.New(trajectory.DefaultConfig())
	}
	if c.Warner == nil {
		c.Warner = cooldown.NewWarner(cooldown.DefaultConfig(), nil)
	}
	if c.Publisher == nil {
		c.Publisher = events.Nop{}
	}

	frames, err := exchange.NewQueue[vision.Frame](config.FrameQueueSize)
	if err != nil {
		return nil, err
	}

	return &System{
		config:     config,
		logger:     config.Logger.With("component", "assistant"),
		source:     c.Source,
		detector:   c.Detector,
		associator: c.Associator,
		store:      c.Store,
		hazards:    c.Hazards,
		trajectory: c.Trajectory,
		warner:     c.Warner,
		scheduler:  c.Scheduler,
		captioner:  c.Captioner,
		narrator:   c.Narrator,
		publisher:  c.Publisher,
		frames:     frames,
		triggers:   exchange.NewSlot[exchange.Trigger](),
	}, nil
}

// Config returns the loop configuration.
func (s *System) Config() Config {
	return s.config
}

// Entities returns a snapshot of every tracked entity.
func (s *System) Entities() history.Snapshot {
	return s.store.Snapshot()
}

// Run starts the capture, reflex, cognitive and audio loops and blocks
// until ctx is cancelled. Each loop notices cancellation within one
// bounded wait; the audio loop is released by closing its queue.
func (s *System) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer s.running.Store(false)

	s.mu.Lock()
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("assistant started",
		"reflex_fps", s.config.ReflexFPS,
		"frame_queue", s.config.FrameQueueSize,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.scheduler.Run(ctx) })
	g.Go(func() error { return s.captureLoop(ctx) })
	g.Go(func() error { return s.reflexLoop(ctx) })
	g.Go(func() error { return s.cognitiveLoop(ctx) })

	err := g.Wait()
	s.logger.Info("assistant stopped", "error", err)
	return err
}

// Running reports whether Run is active.
func (s *System) Running() bool {
	return s.running.Load()
}

// Trigger requests a narration. It never blocks; an unserved earlier
// trigger is replaced.
func (s *System) Trigger(source string) exchange.Trigger {
	t := exchange.NewTrigger(source, time.Now())
	replaced := s.triggers.Push(t)

	s.logger.Info("narration requested", "source", source, "trigger", t.ID, "replaced", replaced)
	s.publish(context.Background(), events.KindTrigger, events.TriggerEvent{
		TriggerID: t.ID,
		Source:    source,
		Replaced:  replaced,
	})
	return t
}

func (s *System) publish(ctx context.Context, kind events.Kind, data any) {
	if err := s.publisher.Publish(ctx, events.New(kind, time.Now(), data)); err != nil {
		s.logger.Debug("publish failed", "kind", kind, "error", err)
	}
}
