package trajectory

import (
	"fmt"
	"time"
)

// DefaultHandheldClasses are objects usually carried by a person. They are
// dropped from the report when they sit inside a person's box.
var DefaultHandheldClasses = []string{
	"cell phone", "mobile phone", "remote", "tv remote", "remote control",
	"keyboard", "mouse", "cup", "bottle", "glass", "wine glass", "book",
	"toothbrush", "scissors", "hair dryer", "hairbrush", "fork", "knife", "spoon",
}

// Config holds the movement bands and shake compensation parameters.
type Config struct {
	Lookback        time.Duration // wall-clock window for growth and velocity
	MinObservations int           // below this an entity is reported stationary

	GrowthThreshold float64 // % area change separating approaching/leaving from neutral
	RapidGrowth     float64 // % growth reported as "approaching rapidly"
	MotionThreshold float64 // px/s center speed that counts as moving

	ShakeMinSpeed  float64 // px/s an entity must exceed to vote in the shake pass
	ShakeAlignment float64 // cosine to the mean motion that counts as aligned
	ShakeScale     float64 // threshold multiplier applied on a shaky cycle

	HandheldClasses []string
	HandheldOverlap float64 // overlap ratio with a person box that suppresses a handheld
}

// DefaultConfig returns the recommended configuration.
func DefaultConfig() Config {
	return Config{
		Lookback:        1500 * time.Millisecond,
		MinObservations: 5,
		GrowthThreshold: 25.0,
		RapidGrowth:     60.0,
		MotionThreshold: 40.0,
		ShakeMinSpeed:   30.0,
		ShakeAlignment:  0.7,
		ShakeScale:      1.6,
		HandheldClasses: append([]string(nil), DefaultHandheldClasses...),
		HandheldOverlap: 0.5,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.Lookback <= 0 {
		return fmt.Errorf("trajectory: lookback must be positive, got %v", c.Lookback)
	}
	if c.MinObservations < 2 {
		return fmt.Errorf("trajectory: need at least 2 observations, got %d", c.MinObservations)
	}
	if c.GrowthThreshold <= 0 || c.MotionThreshold <= 0 {
		return fmt.Errorf("trajectory: thresholds must be positive")
	}
	if c.ShakeScale < 1 {
		return fmt.Errorf("trajectory: shake scale must be >= 1, got %v", c.ShakeScale)
	}
	if c.ShakeAlignment <= 0 || c.ShakeAlignment > 1 {
		return fmt.Errorf("trajectory: shake alignment must be in (0, 1], got %v", c.ShakeAlignment)
	}
	return nil
}
