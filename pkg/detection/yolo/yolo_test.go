package yolo

import (
	"image"
	"testing"

	"github.com/teslashibe/go-narrator/pkg/detection"
)

// tensor lays out anchors channel-major the way YOLOv8 exports them.
func tensor(classes int, anchors [][]float32) []float32 {
	attrs := 4 + classes
	data := make([]float32, attrs*len(anchors))
	for i, a := range anchors {
		for c, v := range a {
			data[c*len(anchors)+i] = v
		}
	}
	return data
}

func TestDecode(t *testing.T) {
	data := tensor(3, [][]float32{
		{320, 320, 100, 200, 0.1, 0.9, 0.2}, // class 1, kept
		{100, 100, 50, 50, 0.3, 0.2, 0.1},   // below threshold
		{600, 40, 20, 20, 0.0, 0.0, 0.7},    // class 2, kept
	})

	got := decode(data, 7, 3, 0.5, 2, 1)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}

	if got[0].classID != 1 || got[0].score != 0.9 {
		t.Errorf("first: class %d score %v", got[0].classID, got[0].score)
	}
	if want := image.Rect(540, 220, 740, 420); got[0].rect != want {
		t.Errorf("first rect: got %v, want %v", got[0].rect, want)
	}
	if got[1].classID != 2 {
		t.Errorf("second class: got %d", got[1].classID)
	}
}

func TestDecodeShortTensor(t *testing.T) {
	if got := decode(make([]float32, 10), 84, 8400, 0.5, 1, 1); got != nil {
		t.Errorf("expected nil for truncated tensor, got %d", len(got))
	}
}

func TestNewMissingModel(t *testing.T) {
	cfg := detection.DefaultConfig()
	cfg.ModelPath = "/nonexistent/yolov8n.onnx"
	if _, err := New(cfg, nil); err == nil {
		t.Error("expected error for missing model")
	}
}
