package assistant

import (
	"time"

	"github.com/teslashibe/go-narrator/pkg/audio"
	"github.com/teslashibe/go-narrator/pkg/exchange"
	"github.com/teslashibe/go-narrator/pkg/hazard"
)

// Status is a point-in-time view of the system for the dashboard.
type Status struct {
	Running   bool          `json:"running"`
	Source    string        `json:"source"`
	Uptime    time.Duration `json:"uptime_ns"`
	LatestSeq uint64        `json:"latest_seq"`

	FramesCaptured uint64         `json:"frames_captured"`
	CaptureErrors  uint64         `json:"capture_errors"`
	FrameQueue     exchange.Stats `json:"frame_queue"`
	Triggers       exchange.Stats `json:"triggers"`

	Ticks        uint64 `json:"ticks"`
	DetectErrors uint64 `json:"detect_errors"`
	Entities     int    `json:"entities"`
	Warnings     uint64 `json:"warnings"`
	Narrations   uint64 `json:"narrations"`
	Fallbacks    uint64 `json:"fallbacks"`

	RecentHazards []hazard.Hazard `json:"recent_hazards"`
	Movements     []string        `json:"movements"`
	LastNarration string          `json:"last_narration"`

	Audio audio.Stats `json:"audio"`
}

// Status returns the current status. Counters may advance while it is
// being assembled.
func (s *System) Status() Status {
	st := Status{
		Running:        s.running.Load(),
		LatestSeq:      s.cell.Seq(),
		FramesCaptured: s.stats.captured.Load(),
		CaptureErrors:  s.stats.captureErrors.Load(),
		FrameQueue:     s.frames.Stats(),
		Triggers:       s.triggers.Stats(),
		Ticks:          s.stats.ticks.Load(),
		DetectErrors:   s.stats.detectErrors.Load(),
		Entities:       s.store.Len(),
		Warnings:       s.stats.warnings.Load(),
		Narrations:     s.stats.narrations.Load(),
		Fallbacks:      s.stats.fallbacks.Load(),
		Audio:          s.scheduler.Stats(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st.Source = s.frameFrom
	if st.Running && !s.startedAt.IsZero() {
		st.Uptime = time.Since(s.startedAt)
	}
	st.RecentHazards = make([]hazard.Hazard, len(s.recent))
	for i, h := range s.recent {
		st.RecentHazards[len(s.recent)-1-i] = h
	}
	st.Movements = append([]string(nil), s.movements...)
	st.LastNarration = s.narration
	return st
}
