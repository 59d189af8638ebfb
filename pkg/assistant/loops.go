package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/teslashibe/go-narrator/pkg/caption"
	"github.com/teslashibe/go-narrator/pkg/events"
	"github.com/teslashibe/go-narrator/pkg/exchange"
	"github.com/teslashibe/go-narrator/pkg/hazard"
	"github.com/teslashibe/go-narrator/pkg/narration"
	"github.com/teslashibe/go-narrator/pkg/vision"
)

// captureLoop reads frames at ReflexFPS and publishes each one to the
// frame cell and the reflex queue. A full queue drops the new frame.
func (s *System) captureLoop(ctx context.Context) error {
	logger := s.logger.With("loop", "capture")
	interval := time.Second / time.Duration(s.config.ReflexFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var endLogged bool
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		frame, err := s.source.ReadFrame()
		if err != nil {
			s.stats.captureErrors.Add(1)
			if errors.Is(err, vision.ErrEndOfStream) {
				if !endLogged {
					logger.Info("source exhausted, holding last frame")
					endLogged = true
				}
			} else {
				logger.Warn("frame read failed", "error", err)
			}
			if !sleep(ctx, s.config.CaptureBackoff) {
				return nil
			}
			continue
		}
		endLogged = false

		s.stats.captured.Add(1)
		s.cell.Store(frame)
		if !s.frames.Push(frame) {
			logger.Debug("reflex queue full, frame dropped", "seq", frame.Seq)
		}

		s.mu.Lock()
		s.frameFrom = frame.Source
		s.mu.Unlock()
	}
}

// reflexLoop runs the safety pipeline on every frame it receives.
func (s *System) reflexLoop(ctx context.Context) error {
	logger := s.logger.With("loop", "reflex")
	evictEvery := uint64(s.store.Config().EvictEvery)
	if evictEvery == 0 {
		evictEvery = 30
	}

	for {
		frame, ok := s.frames.Pop(ctx, s.config.FramePopTimeout)
		if ctx.Err() != nil {
			return nil
		}
		if !ok {
			continue
		}

		s.reflexTick(ctx, frame)

		if n := s.stats.ticks.Add(1); n%evictEvery == 0 {
			if gone := s.store.EvictStale(frame.Seq, s.store.Config().StaleAfter); len(gone) > 0 {
				logger.Debug("evicted stale entities", "count", len(gone), "seq", frame.Seq)
			}
		}
	}
}

func (s *System) reflexTick(ctx context.Context, frame vision.Frame) {
	start := time.Now()

	dctx, cancel := context.WithTimeout(ctx, s.config.DetectTimeout)
	observations, err := s.detector.Detect(dctx, frame)
	cancel()
	if err != nil {
		s.stats.detectErrors.Add(1)
		if ctx.Err() == nil {
			s.logger.Warn("detection failed", "loop", "reflex", "seq", frame.Seq, "error", err)
		}
		return
	}

	observations = s.associator.Assign(frame.Seq, observations)
	s.store.RecordAll(observations)
	hazards := s.hazards.Classify(observations, s.store, frame.Width, frame.Height)

	s.publish(ctx, events.KindDetection, events.DetectionEvent{
		Seq:          frame.Seq,
		Source:       frame.Source,
		Observations: observations,
		LatencyMs:    time.Since(start).Milliseconds(),
	})

	if len(hazards) == 0 {
		return
	}
	s.rememberHazards(hazards)

	d := s.warner.Admit(hazards)
	if !d.Any() {
		return
	}

	if d.Tone {
		s.scheduler.Tone()
	}
	if d.Speak {
		if _, err := s.scheduler.EnqueueHazard(d.Text, string(d.Subject)); err != nil {
			s.logger.Warn("warning not queued", "loop", "reflex", "identity", d.Subject, "error", err)
		} else {
			s.stats.warnings.Add(1)
		}
	}

	s.logger.Warn("hazard",
		"loop", "reflex",
		"seq", frame.Seq,
		"identity", d.Subject,
		"priority", d.Hazard.Priority,
		"reason", d.Hazard.Reason,
		"spoken", d.Speak,
		"tone", d.Tone,
	)
	s.publish(ctx, events.KindHazard, events.HazardEvent{
		Seq:     frame.Seq,
		Hazards: hazards,
		Text:    d.Text,
		Spoken:  d.Speak,
		Tone:    d.Tone,
	})
}

func (s *System) rememberHazards(hazards []hazard.Hazard) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = append(s.recent, hazards...)
	if over := len(s.recent) - s.config.RecentHazards; over > 0 {
		s.recent = append([]hazard.Hazard(nil), s.recent[over:]...)
	}
}

// cognitiveLoop serves narration triggers one at a time.
func (s *System) cognitiveLoop(ctx context.Context) error {
	for {
		trigger, ok := s.triggers.Pop(ctx, s.config.TriggerPopTimeout)
		if ctx.Err() != nil {
			return nil
		}
		if !ok {
			continue
		}
		s.narrate(ctx, trigger)
	}
}

func (s *System) narrate(ctx context.Context, trigger exchange.Trigger) {
	logger := s.logger.With("loop", "cognitive", "trigger", trigger.ID, "source", trigger.Source)

	frame, ok := s.cell.Load()
	if !ok {
		logger.Info("no frame captured yet, narration skipped")
		return
	}
	start := time.Now()

	cctx, cancel := context.WithTimeout(ctx, s.config.CaptionTimeout)
	scene, err := s.captioner.Caption(cctx, frame)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("caption failed", "seq", frame.Seq, "error", err)
		scene = caption.Unavailable
	}

	report := s.trajectory.Classify(s.store.Snapshot())
	movements := report.Texts()

	nctx, cancel := context.WithTimeout(ctx, s.config.NarrateTimeout)
	text, err := s.narrator.Narrate(nctx, scene, movements)
	cancel()

	fallback := false
	if err != nil || strings.TrimSpace(text) == "" {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("narration failed, using scene", "error", err)
		text = narration.Fallback(scene)
		fallback = true
		s.stats.fallbacks.Add(1)
	}

	s.mu.Lock()
	s.movements = movements
	s.narration = text
	s.mu.Unlock()
	s.stats.narrations.Add(1)

	if _, err := s.scheduler.EnqueueNarration(text); err != nil {
		logger.Warn("narration not queued", "error", err)
	}

	latency := time.Since(start)
	logger.Info("narration ready",
		"seq", frame.Seq,
		"movements", len(movements),
		"shake", report.Shake,
		"fallback", fallback,
		"latency_ms", latency.Milliseconds(),
	)
	s.publish(ctx, events.KindNarration, events.NarrationEvent{
		TriggerID: trigger.ID,
		Source:    trigger.Source,
		Caption:   scene,
		Movements: movements,
		Text:      text,
		Fallback:  fallback,
		LatencyMs: latency.Milliseconds(),
	})
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
