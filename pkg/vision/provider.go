package vision

import "errors"

// ErrEndOfStream is returned by a Source that has no more frames,
// e.g. a video file that reached its last frame.
var ErrEndOfStream = errors.New("vision: end of stream")

// Source is the camera abstraction: anything that yields frames on demand.
type Source interface {
	// ReadFrame blocks until the next frame is available.
	ReadFrame() (Frame, error)

	// Close releases the device.
	Close() error
}
