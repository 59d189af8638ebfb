package vision

import "math"

// Point is a position in pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Box is an axis-aligned bounding box in pixel coordinates, (X1,Y1) top-left.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the box width, never negative.
func (b Box) Width() float64 {
	return math.Max(0, b.X2-b.X1)
}

// Height returns the box height, never negative.
func (b Box) Height() float64 {
	return math.Max(0, b.Y2-b.Y1)
}

// Area returns the box area.
func (b Box) Area() float64 {
	return b.Width() * b.Height()
}

// Center returns the box center.
func (b Box) Center() Point {
	return Point{X: (b.X1 + b.X2) / 2, Y: (b.Y1 + b.Y2) / 2}
}

// Contains reports whether p lies inside the box (edges inclusive).
func (b Box) Contains(p Point) bool {
	return p.X >= b.X1 && p.X <= b.X2 && p.Y >= b.Y1 && p.Y <= b.Y2
}

// Intersect returns the overlapping region of two boxes (zero box if disjoint).
func (b Box) Intersect(o Box) Box {
	r := Box{
		X1: math.Max(b.X1, o.X1),
		Y1: math.Max(b.Y1, o.Y1),
		X2: math.Min(b.X2, o.X2),
		Y2: math.Min(b.Y2, o.Y2),
	}
	if r.X2 <= r.X1 || r.Y2 <= r.Y1 {
		return Box{}
	}
	return r
}

// IoU returns intersection-over-union of two boxes.
func (b Box) IoU(o Box) float64 {
	inter := b.Intersect(o).Area()
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// OverlapRatio returns the fraction of b's area covered by o.
func (b Box) OverlapRatio(o Box) float64 {
	area := b.Area()
	if area <= 0 {
		return 0
	}
	return b.Intersect(o).Area() / area
}
