package assistant

import (
	"fmt"
	"log/slog"
	"time"
)

// Config holds loop timing. Classifier thresholds live in each
// component's own config.
type Config struct {
	ReflexFPS      int // capture cadence
	FrameQueueSize int // reflex frame queue capacity

	FramePopTimeout   time.Duration // reflex wait before rechecking shutdown
	TriggerPopTimeout time.Duration // cognitive wait before rechecking shutdown
	CaptureBackoff    time.Duration // pause after a failed read

	DetectTimeout  time.Duration
	CaptionTimeout time.Duration
	NarrateTimeout time.Duration

	RecentHazards int // hazards kept for Status

	Logger *slog.Logger
}

// DefaultConfig returns the production loop timing.
func DefaultConfig() Config {
	return Config{
		ReflexFPS:         30,
		FrameQueueSize:    5,
		FramePopTimeout:   100 * time.Millisecond,
		TriggerPopTimeout: 500 * time.Millisecond,
		CaptureBackoff:    100 * time.Millisecond,
		DetectTimeout:     time.Second,
		CaptionTimeout:    10 * time.Second,
		NarrateTimeout:    15 * time.Second,
		RecentHazards:     20,
		Logger:            slog.Default(),
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.ReflexFPS <= 0 || c.ReflexFPS > 240 {
		return fmt.Errorf("assistant: reflex fps must be in (0, 240], got %d", c.ReflexFPS)
	}
	if c.FrameQueueSize <= 0 {
		return fmt.Errorf("assistant: frame queue size must be positive, got %d", c.FrameQueueSize)
	}
	if c.FramePopTimeout <= 0 || c.TriggerPopTimeout <= 0 {
		return fmt.Errorf("assistant: pop timeouts must be positive")
	}
	return nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.CaptureBackoff <= 0 {
		c.CaptureBackoff = def.CaptureBackoff
	}
	if c.DetectTimeout <= 0 {
		c.DetectTimeout = def.DetectTimeout
	}
	if c.CaptionTimeout <= 0 {
		c.CaptionTimeout = def.CaptionTimeout
	}
	if c.NarrateTimeout <= 0 {
		c.NarrateTimeout = def.NarrateTimeout
	}
	if c.RecentHazards <= 0 {
		c.RecentHazards = def.RecentHazards
	}
	if c.Logger == nil {
		c.Logger = def.Logger
	}
}
