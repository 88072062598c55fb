package viewport

import (
	"math"

	"workbench/internal/domain"
)

// Handle names a resize grip by compass direction.
type Handle string

const (
	HandleNW Handle = "nw"
	HandleNE Handle = "ne"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
	HandleN  Handle = "n"
	HandleE  Handle = "e"
	HandleS  Handle = "s"
	HandleW  Handle = "w"
)

// HandleSet selects which grips selected images expose.
type HandleSet string

const (
	HandlesCorners HandleSet = "corners" // four aspect-locked corners
	HandlesAll     HandleSet = "all"     // corners plus free-axis edges
)

var (
	cornerHandles = []Handle{HandleNW, HandleNE, HandleSE, HandleSW}
	edgeHandles   = []Handle{HandleN, HandleE, HandleS, HandleW}
)

func (h Handle) corner() bool { return len(h) == 2 }
func (h Handle) west() bool { return h == HandleNW || h == HandleSW || h == HandleW }
func (h Handle) north() bool { return h == HandleNW || h == HandleNE || h == HandleN }
func (h Handle) east() bool { return h == HandleNE || h == HandleSE || h == HandleE }
func (h Handle) south() bool { return h == HandleSW || h == HandleSE || h == HandleS }

// point returns the grip's location on r.
func (h Handle) point(r domain.Rect) domain.Position {
	p := r.Center()
	if h.west() {
		p.X = r.X
	}
	if h.east() {
		p.X = r.X + r.Width
	}
	if h.north() {
		p.Y = r.Y
	}
	if h.south() {
		p.Y = r.Y + r.Height
	}
	return p
}

func (s HandleSet) handles() []Handle {
	if s == HandlesAll {
		return append(append([]Handle(nil), cornerHandles...), edgeHandles...)
	}
	return cornerHandles
}

// hitHandle returns the first grip of r within radius of p.
func hitHandle(handles []Handle, r domain.Rect, p domain.Position, radius float64) (Handle, bool) {
	for _, h := range handles {
		q := h.point(r)
		if math.Hypot(p.X-q.X, p.Y-q.Y) <= radius {
			return h, true
		}
	}
	return "", false
}

const minScale = 0.1

// ResizeScale converts a pointer delta on handle h of a w×h rectangle into
// per-axis scale factors. Corners scale uniformly by the larger ratio; edges
// scale only their own axis.
func ResizeScale(h Handle, size domain.Size, d domain.Position) (float64, float64) {
	sx, sy := 1.0, 1.0
	switch {
	case h.east():
		sx = (size.Width + d.X) / size.Width
	case h.west():
		sx = (size.Width - d.X) / size.Width
	}
	switch {
	case h.south():
		sy = (size.Height + d.Y) / size.Height
	case h.north():
		sy = (size.Height - d.Y) / size.Height
	}
	if h.corner() {
		s := math.Max(math.Max(sx, sy), minScale)
		return s, s
	}
	return math.Max(sx, minScale), math.Max(sy, minScale)
}

// anchor keeps the edges opposite the grabbed handle fixed.
func anchor(h Handle, initial domain.Rect, size domain.Size) domain.Position {
	p := initial.Min()
	if h.west() {
		p.X = initial.X + initial.Width - size.Width
	}
	if h.north() {
		p.Y = initial.Y + initial.Height - size.Height
	}
	return p
}
