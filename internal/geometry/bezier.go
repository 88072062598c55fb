package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"workbench/internal/domain"
)

const (
	curvature       = 0.3   // control offset as a fraction of the chord length
	maxControlShift = 150.0 // canvas units
	ArrowheadSize   = 10.0
	arrowheadAngle  = math.Pi / 6
)

func vec(p domain.Position) r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }
func pos(v r2.Vec) domain.Position { return domain.Position{X: v.X, Y: v.Y} }

func Center(b domain.Rect) domain.Position { return b.Center() }

// EdgeIntersection returns where the ray from the source's center toward the
// target's center leaves the source rectangle. Coincident centers yield the
// source center.
func EdgeIntersection(source, target domain.Rect) domain.Position {
	c := vec(source.Center())
	d := r2.Sub(vec(target.Center()), c)
	if d.X == 0 && d.Y == 0 {
		return pos(c)
	}

	halfW, halfH := source.Width/2, source.Height/2
	angle := math.Atan2(d.Y, d.X)
	cos, sin := math.Cos(angle), math.Sin(angle)

	var p r2.Vec
	if math.Abs(cos)*halfH > math.Abs(sin)*halfW {
		// left or right edge
		x := math.Copysign(halfW, cos)
		p = r2.Vec{X: c.X + x, Y: c.Y + x*math.Tan(angle)}
	} else {
		y := math.Copysign(halfH, sin)
		p = r2.Vec{X: c.X + y/math.Tan(angle), Y: c.Y + y}
	}

	// Trig round-off can land a hair outside the border.
	p.X = math.Max(source.X, math.Min(source.X+source.Width, p.X))
	p.Y = math.Max(source.Y, math.Min(source.Y+source.Height, p.Y))
	return pos(p)
}

// ControlPoint offsets the chord midpoint along its left-hand perpendicular.
func ControlPoint(start, end domain.Position) domain.Position {
	s, e := vec(start), vec(end)
	mid := r2.Scale(0.5, r2.Add(s, e))
	chord := r2.Sub(e, s)
	dist := r2.Norm(chord)
	if dist == 0 {
		return pos(mid)
	}
	perp := r2.Vec{X: -chord.Y / dist, Y: chord.X / dist}
	return pos(r2.Add(mid, r2.Scale(math.Min(dist*curvature, maxControlShift), perp)))
}

// BezierPath computes the curve from source's border to target's border.
func BezierPath(source, target domain.Rect) domain.BezierPath {
	start := EdgeIntersection(source, target)
	end := EdgeIntersection(target, source)
	return domain.BezierPath{Start: start, Control: ControlPoint(start, end), End: end}
}

// SampleAt evaluates the quadratic curve at t in [0,1].
func SampleAt(p domain.BezierPath, t float64) domain.Position {
	// Keep the endpoints exact.
	switch t {
	case 0:
		return p.Start
	case 1:
		return p.End
	}
	u := 1 - t
	return pos(r2.Add(
		r2.Add(r2.Scale(u*u, vec(p.Start)), r2.Scale(2*u*t, vec(p.Control))),
		r2.Scale(t*t, vec(p.End)),
	))
}

// Arrowhead returns the two barbs at the end of the curve, each rotated 30°
// off the end tangent.
func Arrowhead(p domain.BezierPath, size float64) [2]domain.Segment {
	end := vec(p.End)
	tangent := r2.Sub(end, vec(p.Control))
	if tangent.X == 0 && tangent.Y == 0 {
		tangent = r2.Sub(end, vec(p.Start))
	}
	if tangent.X == 0 && tangent.Y == 0 {
		tangent = r2.Vec{X: 1}
	}
	back := r2.Scale(-size, r2.Unit(tangent))
	tip := r2.Add(end, back)
	left := r2.Rotate(tip, -arrowheadAngle, end)
	right := r2.Rotate(tip, arrowheadAngle, end)
	return [2]domain.Segment{
		{From: pos(left), To: p.End},
		{From: pos(right), To: p.End},
	}
}

// SVGPath renders the curve as an SVG path string.
func SVGPath(p domain.BezierPath) string {
	return fmt.Sprintf("M %g %g Q %g %g %g %g",
		p.Start.X, p.Start.Y, p.Control.X, p.Control.Y, p.End.X, p.End.Y)
}

// SVGArrowhead renders both barbs as one open SVG path through the tip.
func SVGArrowhead(a [2]domain.Segment) string {
	return fmt.Sprintf("M %g %g L %g %g L %g %g",
		a[0].From.X, a[0].From.Y, a[0].To.X, a[0].To.Y, a[1].From.X, a[1].From.Y)
}
