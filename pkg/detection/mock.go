package detection

import (
	"context"
	"sync"

	"github.com/teslashibe/go-narrator/pkg/vision"
)

// Mock implements Detector for testing.
type Mock struct {
	// DetectFunc is called when Detect is invoked. If nil, Detect returns
	// no observations.
	DetectFunc func(ctx context.Context, frame vision.Frame) ([]vision.Observation, error)

	mu     sync.Mutex
	calls  int
	closed bool
}

// NewMock creates a mock that returns the given boxes on every frame,
// restamped with the frame's sequence number and timestamp.
func NewMock(template ...vision.Observation) *Mock {
	return &Mock{
		DetectFunc: func(ctx context.Context, frame vision.Frame) ([]vision.Observation, error) {
			out := make([]vision.Observation, len(template))
			for i, o := range template {
				out[i] = vision.NewObservation(frame.Seq, frame.Timestamp, o.Box, o.Class, o.Confidence, o.TrackID)
			}
			return out, nil
		},
	}
}

// Detect implements Detector.
func (m *Mock) Detect(ctx context.Context, frame vision.Frame) ([]vision.Observation, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.DetectFunc == nil {
		return nil, nil
	}
	return m.DetectFunc(ctx, frame)
}

// Calls returns how many frames were processed.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close implements Detector.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ Detector = (*Mock)(nil)
