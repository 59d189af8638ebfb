package yolo

import "image"

type candidate struct {
	rect    image.Rectangle
	score   float32
	classID int
}

// decode reads a channel-major YOLOv8 tensor of attrs x anchors, where each
// anchor holds cx, cy, w, h followed by one score per class. Boxes are
// scaled from model input to frame pixels.
func decode(data []float32, attrs, anchors int, minScore, scaleX, scaleY float32) []candidate {
	if attrs <= 4 || len(data) < attrs*anchors {
		return nil
	}

	var out []candidate
	for i := 0; i < anchors; i++ {
		best, classID := float32(0), -1
		for c := 4; c < attrs; c++ {
			if s := data[c*anchors+i]; s > best {
				best, classID = s, c-4
			}
		}
		if classID < 0 || best < minScore {
			continue
		}

		cx, cy := data[i], data[anchors+i]
		w, h := data[2*anchors+i], data[3*anchors+i]
		out = append(out, candidate{
			rect: image.Rect(
				int((cx-w/2)*scaleX), int((cy-h/2)*scaleY),
				int((cx+w/2)*scaleX), int((cy+h/2)*scaleY),
			),
			score:   best,
			classID: classID,
		})
	}
	return out
}
