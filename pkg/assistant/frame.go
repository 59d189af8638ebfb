package assistant

import (
	"sync"

	"github.com/teslashibe/go-narrator/pkg/vision"
)

// FrameCell holds the most recent captured frame. The capture loop
// overwrites it every frame; the cognitive loop reads a private copy.
type FrameCell struct {
	mu    sync.RWMutex
	frame vision.Frame
	set   bool
}

// Store replaces the current frame. The frame must not be modified by the
// caller afterwards.
func (c *FrameCell) Store(f vision.Frame) {
	c.mu.Lock()
	c.frame = f
	c.set = true
	c.mu.Unlock()
}

// Load returns a deep copy of the current frame, or false before the
// first frame arrives.
func (c *FrameCell) Load() (vision.Frame, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set {
		return vision.Frame{}, false
	}
	return c.frame.Clone(), true
}

// Seq returns the sequence number of the current frame.
func (c *FrameCell) Seq() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frame.Seq
}
