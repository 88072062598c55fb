package geometry

import (
	"math"
	"testing"

	"workbench/internal/domain"
)

const eps = 1e-9

func near(a, b domain.Position) bool {
	return math.Abs(a.X-b.X) < 1e-6 && math.Abs(a.Y-b.Y) < 1e-6
}

func TestScreenToCanvas(t *testing.T) {
	got := ScreenToCanvas(domain.Position{X: 300, Y: 250}, 2, domain.Position{X: 100, Y: 50}, domain.Position{})
	if !near(got, domain.Position{X: 100, Y: 100}) {
		t.Errorf("ScreenToCanvas got %v, want (100,100)", got)
	}
}

func TestScreenCanvasRoundTrip(t *testing.T) {
	origin := domain.Position{X: 12, Y: 80}
	cases := []struct {
		zoom float64
		pan  domain.Position
		p    domain.Position
	}{
		{1, domain.Position{}, domain.Position{X: 10, Y: 20}},
		{0.1, domain.Position{X: -300, Y: 40}, domain.Position{X: -55.5, Y: 1000}},
		{5, domain.Position{X: 7, Y: -9}, domain.Position{X: 3.25, Y: 4.75}},
		{2.37, domain.Position{X: 123.4, Y: 56.7}, domain.Position{X: 999, Y: -999}},
	}
	for _, c := range cases {
		screen := CanvasToScreen(c.p, c.zoom, c.pan).Add(origin)
		back := ScreenToCanvas(screen, c.zoom, c.pan, origin)
		if !near(back, c.p) {
			t.Errorf("round trip at zoom %v: got %v, want %v", c.zoom, back, c.p)
		}
	}
}

func TestZoomAroundCursor(t *testing.T) {
	cursor := domain.Position{X: 400, Y: 300}
	pan := ZoomAroundCursor(cursor, 1, 2, domain.Position{}, domain.Position{})
	if !near(pan, domain.Position{X: -400, Y: -300}) {
		t.Fatalf("pan got %v, want (-400,-300)", pan)
	}

	// The point under the cursor must stay put in both directions.
	origin := domain.Position{X: 30, Y: 60}
	oldPan := domain.Position{X: -120, Y: 45}
	tests := []struct {
		name     string
		from, to float64
	}{
		{"in", 0.7, 3.1},
		{"out", 3.1, 0.4},
		{"out to min", 2, domain.MinZoom},
		{"in to max", 1, domain.MaxZoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := ScreenToCanvas(cursor, tt.from, oldPan, origin)
			newPan := ZoomAroundCursor(cursor, tt.from, tt.to, oldPan, origin)
			after := ScreenToCanvas(cursor, tt.to, newPan, origin)
			if !near(before, after) {
				t.Errorf("cursor anchor moved: before %v, after %v", before, after)
			}
		})
	}
}

func TestClampZoom(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1, 1},
		{0.01, domain.MinZoom},
		{50, domain.MaxZoom},
		{-3, domain.MinZoom},
		{0, domain.MinZoom},
		{math.NaN(), domain.MinZoom},
	}
	for _, tt := range tests {
		if got := ClampZoom(tt.in, domain.MinZoom, domain.MaxZoom); got != tt.want {
			t.Errorf("ClampZoom(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWheelZoomFactor(t *testing.T) {
	if f := WheelZoomFactor(-100); math.Abs(f-2) > eps {
		t.Errorf("deltaY -100: got %v, want 2", f)
	}
	if f := WheelZoomFactor(100); math.Abs(f-0.5) > eps {
		t.Errorf("deltaY 100: got %v, want 0.5", f)
	}
}

func TestEdgeIntersection(t *testing.T) {
	src := domain.Rect{Width: 100, Height: 100}
	tests := []struct {
		name   string
		target domain.Rect
		want   domain.Position
	}{
		{"right", domain.Rect{X: 200, Y: 0, Width: 100, Height: 100}, domain.Position{X: 100, Y: 50}},
		{"left", domain.Rect{X: -300, Y: 0, Width: 100, Height: 100}, domain.Position{X: 0, Y: 50}},
		{"below", domain.Rect{X: 0, Y: 400, Width: 100, Height: 100}, domain.Position{X: 50, Y: 100}},
		{"above", domain.Rect{X: 0, Y: -400, Width: 100, Height: 100}, domain.Position{X: 50, Y: 0}},
		{"diagonal", domain.Rect{X: 200, Y: 200, Width: 100, Height: 100}, domain.Position{X: 100, Y: 100}},
		{"coincident", domain.Rect{X: 25, Y: 25, Width: 50, Height: 50}, domain.Position{X: 50, Y: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EdgeIntersection(src, tt.target)
			if !near(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEdgeIntersectionStaysOnBorder(t *testing.T) {
	src := domain.Rect{X: 10, Y: 20, Width: 160, Height: 90}
	for deg := 0.0; deg < 360; deg += 7.5 {
		rad := deg * math.Pi / 180
		c := src.Center()
		target := domain.Rect{X: c.X + 500*math.Cos(rad), Y: c.Y + 500*math.Sin(rad), Width: 0.001, Height: 0.001}
		p := EdgeIntersection(src, target)
		if !src.Contains(p) {
			t.Fatalf("angle %v: %v outside source", deg, p)
		}
		onX := math.Abs(p.X-src.X) < 1e-6 || math.Abs(p.X-(src.X+src.Width)) < 1e-6
		onY := math.Abs(p.Y-src.Y) < 1e-6 || math.Abs(p.Y-(src.Y+src.Height)) < 1e-6
		if !onX && !onY {
			t.Errorf("angle %v: %v not on the border", deg, p)
		}
	}
}

func TestControlPoint(t *testing.T) {
	got := ControlPoint(domain.Position{}, domain.Position{X: 100})
	if !near(got, domain.Position{X: 50, Y: 30}) {
		t.Errorf("short chord: got %v, want (50,30)", got)
	}
	got = ControlPoint(domain.Position{}, domain.Position{X: 1000})
	if !near(got, domain.Position{X: 500, Y: 150}) {
		t.Errorf("long chord: got %v, want offset capped at 150", got)
	}
	same := domain.Position{X: 5, Y: 5}
	if got := ControlPoint(same, same); !near(got, same) {
		t.Errorf("zero chord: got %v, want midpoint", got)
	}
}

func TestSampleAtEndpoints(t *testing.T) {
	p := BezierPath(domain.Rect{Width: 100, Height: 100}, domain.Rect{X: 400, Y: 250, Width: 80, Height: 60})
	if got := SampleAt(p, 0); got != p.Start {
		t.Errorf("t=0 got %v, want %v", got, p.Start)
	}
	if got := SampleAt(p, 1); got != p.End {
		t.Errorf("t=1 got %v, want %v", got, p.End)
	}
	mid := SampleAt(p, 0.5)
	want := domain.Position{
		X: 0.25*p.Start.X + 0.5*p.Control.X + 0.25*p.End.X,
		Y: 0.25*p.Start.Y + 0.5*p.Control.Y + 0.25*p.End.Y,
	}
	if !near(mid, want) {
		t.Errorf("t=0.5 got %v, want %v", mid, want)
	}
}

func TestArrowhead(t *testing.T) {
	p := domain.BezierPath{
		Start:   domain.Position{},
		Control: domain.Position{X: 50},
		End:     domain.Position{X: 100},
	}
	a := Arrowhead(p, ArrowheadSize)
	for i, seg := range a {
		if seg.To != p.End {
			t.Errorf("barb %d does not end at the tip: %v", i, seg.To)
		}
		length := math.Hypot(seg.To.X-seg.From.X, seg.To.Y-seg.From.Y)
		if math.Abs(length-ArrowheadSize) > 1e-6 {
			t.Errorf("barb %d length %v, want %v", i, length, ArrowheadSize)
		}
		if seg.From.X >= p.End.X {
			t.Errorf("barb %d points forward: %v", i, seg.From)
		}
	}
	if math.Abs(a[0].From.Y+a[1].From.Y) > 1e-6 {
		t.Errorf("barbs not symmetric: %v / %v", a[0].From, a[1].From)
	}
}

func TestSVGPath(t *testing.T) {
	p := domain.BezierPath{Start: domain.Position{X: 1, Y: 2}, Control: domain.Position{X: 3, Y: 4}, End: domain.Position{X: 5, Y: 6}}
	if got, want := SVGPath(p), "M 1 2 Q 3 4 5 6"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
