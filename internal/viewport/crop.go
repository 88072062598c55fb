package viewport

import (
	"math"

	"workbench/internal/domain"
)

// cropGesture is an in-progress move or corner resize of the crop rectangle.
// Coordinates are local to the crop frame (the image at its original size).
type cropGesture struct {
	imageID    string
	handle     Handle // empty for a body move
	startLocal domain.Position
	startRect  domain.Rect
	frame      domain.Size
}

// MoveCrop translates r by d, keeping it inside frame.
func MoveCrop(r domain.Rect, d domain.Position, frame domain.Size) domain.Rect {
	r.X = clampRange(r.X+d.X, 0, frame.Width-r.Width)
	r.Y = clampRange(r.Y+d.Y, 0, frame.Height-r.Height)
	return r
}

// ResizeCrop drags corner h of r by d. The aspect ratio of r is kept, neither
// side drops below MinCropSize, and the opposite corner stays fixed inside
// frame.
func ResizeCrop(h Handle, r domain.Rect, d domain.Position, frame domain.Size) domain.Rect {
	if !h.corner() || r.Width <= 0 || r.Height <= 0 {
		return r
	}
	aspect := r.Width / r.Height

	dw := d.X
	if h.west() {
		dw = -d.X
	}
	w := r.Width + dw

	anchorX, anchorY := r.X, r.Y
	maxW, maxH := frame.Width-r.X, frame.Height-r.Y
	if h.west() {
		anchorX = r.X + r.Width
		maxW = anchorX
	}
	if h.north() {
		anchorY = r.Y + r.Height
		maxH = anchorY
	}

	minW := math.Max(domain.MinCropSize, domain.MinCropSize*aspect)
	w = clampRange(w, minW, math.Min(maxW, maxH*aspect))
	height := w / aspect

	out := domain.Rect{X: anchorX, Y: anchorY, Width: w, Height: height}
	if h.west() {
		out.X = anchorX - w
	}
	if h.north() {
		out.Y = anchorY - height
	}
	return out
}

// clampRange bounds v to [lo, hi], preferring hi when the range is empty.
func clampRange(v, lo, hi float64) float64 {
	switch {
	case lo > hi, v > hi:
		return hi
	case v < lo:
		return lo
	}
	return v
}
