// Package detection finds objects in frames and keeps their identities
// stable across frames.
//
// Detector implementations return vision.Observations in frame pixel
// coordinates. Backends that do not track objects themselves are wrapped
// with an Associator so the history store sees stable identities.
package detection

import (
	"context"
	"errors"
	"fmt"

	"github.com/teslashibe/go-narrator/pkg/vision"
)

// ErrEmptyFrame is returned when the frame carries no image.
var ErrEmptyFrame = errors.New("detection: empty frame")

// Detector finds objects in a frame.
type Detector interface {
	// Detect returns one observation per object, stamped with the frame's
	// sequence number and timestamp.
	Detect(ctx context.Context, frame vision.Frame) ([]vision.Observation, error)

	// Close releases resources.
	Close() error
}

// Config holds detector configuration.
type Config struct {
	ModelPath   string  // path to an ONNX model
	Confidence  float64 // minimum class score
	NMS         float64 // IoU threshold for non-maximum suppression
	InputWidth  int     // model input size
	InputHeight int
	Classes     []string // keep only these classes; empty keeps all
}

// DefaultConfig returns defaults for YOLOv8n at 640x640.
func DefaultConfig() Config {
	return Config{
		ModelPath:   "models/yolov8n.onnx",
		Confidence:  0.5,
		NMS:         0.45,
		InputWidth:  640,
		InputHeight: 640,
	}
}

// Validate checks the thresholds and input size.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("detection: model path required")
	}
	if c.Confidence <= 0 || c.Confidence >= 1 {
		return fmt.Errorf("detection: confidence must be in (0, 1), got %v", c.Confidence)
	}
	if c.NMS <= 0 || c.NMS > 1 {
		return fmt.Errorf("detection: nms threshold must be in (0, 1], got %v", c.NMS)
	}
	if c.InputWidth <= 0 || c.InputHeight <= 0 {
		return fmt.Errorf("detection: invalid input size %dx%d", c.InputWidth, c.InputHeight)
	}
	return nil
}

// ClassFilter reports whether a class should be kept.
func (c Config) ClassFilter() func(string) bool {
	if len(c.Classes) == 0 {
		return func(string) bool { return true }
	}
	keep := make(map[string]bool, len(c.Classes))
	for _, cl := range c.Classes {
		keep[cl] = true
	}
	return func(class string) bool { return keep[class] }
}
