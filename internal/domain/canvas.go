package domain

import "math"

// Canvas limits shared by the scene, the viewport and the renderer.
const (
	CanvasSize    = 2000.0 // nominal home area used when recentering
	MaxImageSize  = 400.0  // longest side of a freshly added image
	MinImageSize  = 20.0
	MaxResizeSize = 2000.0
	MinCropSize   = 20.0

	MinZoom     = 0.1
	MaxZoom     = 5.0
	DefaultZoom = 1.0
	ZoomStep    = 0.1
)

// DefaultPlacement is the area new images land in when no position is given.
var DefaultPlacement = Rect{X: 100, Y: 100, Width: 400, Height: 400}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) Add(q Position) Position { return Position{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Position) Sub(q Position) Position { return Position{X: p.X - q.X, Y: p.Y - q.Y} }

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned rectangle in canvas units. It doubles as the crop
// rectangle, whose coordinates are relative to the image's original size.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func RectFrom(p Position, s Size) Rect {
	return Rect{X: p.X, Y: p.Y, Width: s.Width, Height: s.Height}
}

// RectBetween normalizes two opposite corners into a rectangle.
func RectBetween(a, b Position) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

func (r Rect) Min() Position { return Position{X: r.X, Y: r.Y} }
func (r Rect) Max() Position { return Position{X: r.X + r.Width, Y: r.Y + r.Height} }
func (r Rect) Size() Size { return Size{Width: r.Width, Height: r.Height} }
func (r Rect) Center() Position {
	return Position{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Intersects reports overlap; rectangles that only touch count as intersecting.
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.X+o.Width && r.X+r.Width >= o.X &&
		r.Y <= o.Y+o.Height && r.Y+r.Height >= o.Y
}

func (r Rect) Contains(p Position) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	minX, minY := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.Width, o.X+o.Width)
	maxY := math.Max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// ClampSize bounds each dimension to [MinImageSize, MaxResizeSize].
func ClampSize(s Size) Size {
	return Size{
		Width:  clamp(s.Width, MinImageSize, MaxResizeSize),
		Height: clamp(s.Height, MinImageSize, MaxResizeSize),
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
