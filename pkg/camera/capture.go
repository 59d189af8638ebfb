package camera

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-narrator/pkg/vision"
)

// ErrOpen is returned when the capture device cannot be opened. It is the
// only fatal error of a running assistant.
var ErrOpen = errors.New("camera: cannot open capture device")

// Capture reads frames from a webcam or video file.
type Capture struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	seq    uint64
	closed bool
}

// Open opens the device or file named by cfg.
func Open(cfg Config, logger *slog.Logger) (*Capture, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("camera: invalid config: %v", errs)
	}
	if logger == nil {
		logger = slog.Default()
	}

	var (
		vc  *gocv.VideoCapture
		err error
	)
	if cfg.VideoPath != "" {
		vc, err = gocv.VideoCaptureFile(cfg.VideoPath)
	} else {
		vc, err = gocv.OpenVideoCapture(cfg.Device)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpen, cfg.Label(), err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s", ErrOpen, cfg.Label())
	}

	if cfg.VideoPath == "" {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}

	c := &Capture{
		config: cfg,
		logger: logger.With("component", "camera", "source", cfg.Label()),
		vc:     vc,
		mat:    gocv.NewMat(),
	}
	c.logger.Info("capture opened",
		"width", int(vc.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(vc.Get(gocv.VideoCaptureFrameHeight)),
		"fps", vc.Get(gocv.VideoCaptureFPS),
	)
	return c, nil
}

// ReadFrame implements vision.Source. Video files return
// vision.ErrEndOfStream at their end unless Loop is set.
func (c *Capture) ReadFrame() (vision.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return vision.Frame{}, vision.ErrEndOfStream
	}

	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		if c.config.VideoPath == "" {
			return vision.Frame{}, errors.New("camera: read failed")
		}
		if !c.config.Loop {
			return vision.Frame{}, vision.ErrEndOfStream
		}
		c.vc.Set(gocv.VideoCapturePosFrames, 0)
		if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
			return vision.Frame{}, vision.ErrEndOfStream
		}
	}

	c.seq++
	return vision.Frame{
		Seq:       c.seq,
		Timestamp: time.Now(),
		Source:    c.config.Label(),
		Width:     c.mat.Cols(),
		Height:    c.mat.Rows(),
		Channels:  c.mat.Channels(),
		Pixels:    c.mat.ToBytes(),
	}, nil
}

// Close releases the device.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.mat.Close()
	return c.vc.Close()
}

var _ vision.Source = (*Capture)(nil)
