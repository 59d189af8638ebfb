package hazard

import (
	"fmt"
	"time"
)

// DefaultClasses are the COCO classes that can collide with a pedestrian.
var DefaultClasses = []string{"person", "bicycle", "car", "motorcycle", "bus", "truck"}

// Config holds all tunable parameters for hazard detection.
type Config struct {
	Classes []string // hazard-eligible classes, matched case-insensitively

	ZoneFraction float64       // central region as a fraction of width/height
	Lookback     time.Duration // wall-clock window for growth and motion

	ExpansionThreshold  float64 // % area growth over Lookback that counts as expanding
	MotionThreshold     float64 // px/s center speed that counts as moving
	MinApproachDistance float64 // px the center must close toward frame center
	MinObservations     int     // history required before an entity can qualify
}

// DefaultConfig returns the recommended configuration for a walking user.
func DefaultConfig() Config {
	return Config{
		Classes:             append([]string(nil), DefaultClasses...),
		ZoneFraction:        0.4,
		Lookback:            1500 * time.Millisecond,
		ExpansionThreshold:  25.0,
		MotionThreshold:     20.0,
		MinApproachDistance: 10.0,
		MinObservations:     5,
	}
}

// SensitiveConfig warns earlier, at the cost of more false alarms.
func SensitiveConfig() Config {
	cfg := DefaultConfig()
	cfg.ExpansionThreshold = 15.0
	cfg.MinApproachDistance = 5.0
	cfg.MinObservations = 3
	return cfg
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if len(c.Classes) == 0 {
		return fmt.Errorf("hazard: at least one class required")
	}
	if c.ZoneFraction <= 0 || c.ZoneFraction > 1 {
		return fmt.Errorf("hazard: zone fraction must be in (0, 1], got %v", c.ZoneFraction)
	}
	if c.Lookback <= 0 {
		return fmt.Errorf("hazard: lookback must be positive, got %v", c.Lookback)
	}
	if c.MinObservations < 2 {
		return fmt.Errorf("hazard: need at least 2 observations, got %d", c.MinObservations)
	}
	return nil
}
