// Package yolo runs YOLOv8 ONNX models through OpenCV's DNN module.
package yolo

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-narrator/pkg/detection"
	"github.com/teslashibe/go-narrator/pkg/vision"
)

// Detector uses YOLOv8 for general object detection. Detect calls are
// serialized because a gocv.Net is not safe for concurrent use.
type Detector struct {
	net    gocv.Net
	config detection.Config
	keep   func(string) bool
	logger *slog.Logger

	mu        sync.Mutex
	inputSize image.Point
}

// New loads the ONNX model at cfg.ModelPath.
func New(cfg detection.Config, logger *slog.Logger) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("yolo: model file: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("yolo: failed to load model from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &Detector{
		net:       net,
		config:    cfg,
		keep:      cfg.ClassFilter(),
		logger:    logger.With("component", "detection.yolo"),
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Detect implements detection.Detector.
func (d *Detector) Detect(ctx context.Context, frame vision.Frame) ([]vision.Observation, error) {
	if frame.Empty() {
		return nil, detection.ErrEmptyFrame
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := toMat(frame)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// YOLOv8 output is [1, 4+classes, anchors].
	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("yolo: unexpected output shape %v", dims)
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("yolo: read output: %w", err)
	}

	scaleX := float32(frame.Width) / float32(d.config.InputWidth)
	scaleY := float32(frame.Height) / float32(d.config.InputHeight)
	cands := decode(data, dims[1], dims[2], float32(d.config.Confidence), scaleX, scaleY)
	if len(cands) == 0 {
		return nil, nil
	}

	boxes := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		boxes[i] = c.rect
		scores[i] = c.score
	}
	indices := gocv.NMSBoxes(boxes, scores, float32(d.config.Confidence), float32(d.config.NMS))

	bounds := vision.Box{X2: float64(frame.Width), Y2: float64(frame.Height)}
	out := make([]vision.Observation, 0, len(indices))
	for _, idx := range indices {
		c := cands[idx]
		class := detection.ClassName(c.classID)
		if !d.keep(class) {
			continue
		}
		box := bounds.Intersect(vision.Box{
			X1: float64(c.rect.Min.X), Y1: float64(c.rect.Min.Y),
			X2: float64(c.rect.Max.X), Y2: float64(c.rect.Max.Y),
		})
		if box.Area() <= 0 {
			continue
		}
		out = append(out, vision.NewObservation(frame.Seq, frame.Timestamp, box, class, float64(c.score), nil))
	}

	d.logger.Debug("frame detected", "seq", frame.Seq, "objects", len(out))
	return out, nil
}

// Close releases the network.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

func toMat(frame vision.Frame) (gocv.Mat, error) {
	switch frame.Channels {
	case 3:
		return gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Pixels)
	case 1:
		gray, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC1, frame.Pixels)
		if err != nil {
			return gocv.Mat{}, err
		}
		defer gray.Close()
		bgr := gocv.NewMat()
		gocv.CvtColor(gray, &bgr, gocv.ColorGrayToBGR)
		return bgr, nil
	}
	return gocv.Mat{}, fmt.Errorf("yolo: unsupported channel count %d", frame.Channels)
}

var _ detection.Detector = (*Detector)(nil)
