package mcpserver

import (
	"math"

	"workbench/internal/domain"
	"workbench/internal/scene"
)

const (
	GridSize = 20.0
	Padding  = 40.0 // two grid cells between images
	MaxRowW  = domain.CanvasSize
)

// LayoutEngine handles automatic placement of images on the canvas
// so that MCP-added images don't overlap existing ones.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// rect is a simple axis-aligned bounding box.
type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

// NextPosition finds the next non-overlapping grid position for an image
// of the given size among the existing ones, scanning from the canvas
// origin row by row.
func (le *LayoutEngine) NextPosition(existing []domain.CanvasImage, size domain.Size) domain.Position {
	if len(existing) == 0 {
		return domain.Position{}
	}

	occupied := make([]rect, len(existing))
	for i, img := range existing {
		occupied[i] = rect{img.Position.X, img.Position.Y, img.Size.Width, img.Size.Height}
	}

	candidate := rect{w: size.Width, h: size.Height}
	for y := 0.0; y < 100000; y += le.gridSize {
		for x := 0.0; x+size.Width <= le.maxRowW; x += le.gridSize {
			candidate.x = le.snap(x)
			candidate.y = le.snap(y)

			overlaps := false
			for _, occ := range occupied {
				padded := rect{
					x: occ.x - le.padding,
					y: occ.y - le.padding,
					w: occ.w + le.padding*2,
					h: occ.h + le.padding*2,
				}
				if candidate.intersects(padded) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				return domain.Position{X: candidate.x, Y: candidate.y}
			}
		}
	}

	// Fallback: place below everything
	maxY := 0.0
	for _, img := range existing {
		maxY = math.Max(maxY, img.Position.Y+img.Size.Height)
	}
	return domain.Position{X: 0, Y: le.snap(maxY + le.padding)}
}

// ArrangeGroup lays images out in rows starting at start, wrapping at the
// canvas width. Sizes are untouched.
func (le *LayoutEngine) ArrangeGroup(images []domain.CanvasImage, start domain.Position) []scene.PositionUpdate {
	x := le.snap(start.X)
	y := le.snap(start.Y)
	rowHeight := 0.0

	updates := make([]scene.PositionUpdate, 0, len(images))
	for _, img := range images {
		if x > le.snap(start.X) && x+img.Size.Width > le.maxRowW {
			x = le.snap(start.X)
			y += le.snap(rowHeight + le.padding)
			rowHeight = 0
		}
		updates = append(updates, scene.PositionUpdate{ID: img.ID, Position: domain.Position{X: x, Y: y}})
		rowHeight = math.Max(rowHeight, img.Size.Height)
		x += le.snap(img.Size.Width + le.padding)
	}
	return updates
}
