// Package vision holds the perception data model shared by the reflex and
// cognitive loops: frames, bounding boxes and per-frame observations.
package vision

import (
	"image"
	"image/color"
	"time"
)

// Frame is a single captured image. Pixels are interleaved BGR bytes
// (Channels == 3) or grayscale (Channels == 1), row-major.
//
// A Frame is treated as immutable once published; consumers that need
// to keep it beyond the current tick take a Clone.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Source    string
	Width     int
	Height    int
	Channels  int
	Pixels    []byte
}

// Empty reports whether the frame carries no image data.
func (f Frame) Empty() bool {
	return f.Width == 0 || f.Height == 0 || len(f.Pixels) == 0
}

// Area returns the frame area in square pixels.
func (f Frame) Area() float64 {
	return float64(f.Width * f.Height)
}

// Center returns the geometric center of the frame.
func (f Frame) Center() Point {
	return Point{X: float64(f.Width) / 2, Y: float64(f.Height) / 2}
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	c := f
	if f.Pixels != nil {
		c.Pixels = make([]byte, len(f.Pixels))
		copy(c.Pixels, f.Pixels)
	}
	return c
}

// Image converts the frame to an image.Image suitable for JPEG encoding.
// It returns nil for empty frames.
func (f Frame) Image() image.Image {
	if f.Empty() {
		return nil
	}

	if f.Channels == 1 {
		img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
		copy(img.Pix, f.Pixels)
		return img
	}
	if f.Channels < 3 {
		return nil
	}

	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	n := f.Width * f.Height
	if len(f.Pixels) < n*f.Channels {
		n = len(f.Pixels) / f.Channels
	}
	for i := 0; i < n; i++ {
		src := i * f.Channels
		img.SetRGBA(i%f.Width, i/f.Width, color.RGBA{
			R: f.Pixels[src+2],
			G: f.Pixels[src+1],
			B: f.Pixels[src],
			A: 0xff,
		})
	}
	return img
}
