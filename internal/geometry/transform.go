package geometry

import (
	"math"

	"workbench/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Screen <-> canvas transform
// ─────────────────────────────────────────────────────────────
//
// A canvas point c is drawn at screen point origin + pan + c*zoom, where
// origin is the top-left of the viewport element in screen pixels.

// ScreenToCanvas maps a screen pixel to canvas units.
func ScreenToCanvas(screen domain.Position, zoom float64, pan, origin domain.Position) domain.Position {
	return domain.Position{
		X: (screen.X - origin.X - pan.X) / zoom,
		Y: (screen.Y - origin.Y - pan.Y) / zoom,
	}
}

// CanvasToScreen maps canvas units to viewport-relative pixels (origin excluded).
func CanvasToScreen(canvas domain.Position, zoom float64, pan domain.Position) domain.Position {
	return domain.Position{
		X: canvas.X*zoom + pan.X,
		Y: canvas.Y*zoom + pan.Y,
	}
}

// ClampZoom bounds z to [lo, hi]. NaN and non-positive values fall to lo.
func ClampZoom(z, lo, hi float64) float64 {
	if math.IsNaN(z) || z <= 0 || z < lo {
		return lo
	}
	if z > hi {
		return hi
	}
	return z
}

// ZoomAroundCursor returns the pan offset that keeps the canvas point under
// cursor fixed on screen when zoom changes from oldZoom to newZoom.
func ZoomAroundCursor(cursor domain.Position, oldZoom, newZoom float64, pan, origin domain.Position) domain.Position {
	p := ScreenToCanvas(cursor, oldZoom, pan, origin)
	return domain.Position{
		X: cursor.X - origin.X - p.X*newZoom,
		Y: cursor.Y - origin.Y - p.Y*newZoom,
	}
}

// WheelZoomFactor converts a wheel delta into a multiplicative zoom factor.
// Scrolling up (negative delta) zooms in.
func WheelZoomFactor(deltaY float64) float64 {
	return math.Pow(2, -deltaY*0.01)
}

// HomePan centers the nominal canvas area inside a viewport of the given size.
func HomePan(viewport domain.Size) domain.Position {
	return domain.Position{
		X: viewport.Width/2 - domain.CanvasSize/2,
		Y: viewport.Height/2 - domain.CanvasSize/2,
	}
}
