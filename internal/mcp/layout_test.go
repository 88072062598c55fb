package mcpserver

import (
	"testing"

	"workbench/internal/domain"
)

func placed(id string, x, y, w, h float64) domain.CanvasImage {
	return domain.CanvasImage{
		ID:       id,
		Position: domain.Position{X: x, Y: y},
		Size:     domain.Size{Width: w, Height: h},
	}
}

func TestNextPosition_EmptyCanvas(t *testing.T) {
	le := NewLayoutEngine()
	p := le.NextPosition(nil, domain.Size{Width: 400, Height: 300})
	if p.X != 0 || p.Y != 0 {
		t.Errorf("expected (0, 0) for empty canvas, got (%.0f, %.0f)", p.X, p.Y)
	}
}

func TestNextPosition_AvoidsExistingImages(t *testing.T) {
	le := NewLayoutEngine()
	existing := []domain.CanvasImage{
		placed("a", 0, 0, 400, 300),
		placed("b", 440, 0, 400, 300),
	}
	p := le.NextPosition(existing, domain.Size{Width: 400, Height: 300})

	for _, img := range existing {
		r := rect{p.X, p.Y, 400, 300}
		padded := rect{img.Position.X - Padding, img.Position.Y - Padding, img.Size.Width + Padding*2, img.Size.Height + Padding*2}
		if r.intersects(padded) {
			t.Errorf("position (%.0f, %.0f) overlaps image at (%.0f, %.0f)", p.X, p.Y, img.Position.X, img.Position.Y)
		}
	}
	if p.X+400 > MaxRowW {
		t.Errorf("position (%.0f, %.0f) runs off the canvas", p.X, p.Y)
	}
}

func TestArrangeGroup(t *testing.T) {
	le := NewLayoutEngine()
	images := make([]domain.CanvasImage, 7)
	for i := range images {
		images[i] = placed(string(rune('a'+i)), 0, 0, 390, 200)
	}

	updates := le.ArrangeGroup(images, domain.Position{X: 0, Y: 0})
	if len(updates) != len(images) {
		t.Fatalf("expected %d updates, got %d", len(images), len(updates))
	}

	rects := make([]rect, len(updates))
	for i, u := range updates {
		rects[i] = rect{u.Position.X, u.Position.Y, 390, 200}
		if u.Position.X+390 > MaxRowW {
			t.Errorf("image %s exceeds the row width at x=%.0f", u.ID, u.Position.X)
		}
	}
	for i := 0; i < len(rects); i++ {
		for j := i + 1; j < len(rects); j++ {
			if rects[i].intersects(rects[j]) {
				t.Errorf("images %d and %d overlap: (%.0f,%.0f) and (%.0f,%.0f)",
					i, j, rects[i].x, rects[i].y, rects[j].x, rects[j].y)
			}
		}
	}
	if updates[len(updates)-1].Position.Y == 0 {
		t.Error("seven wide images should wrap onto a second row")
	}
}

func TestSnap(t *testing.T) {
	le := NewLayoutEngine()
	tests := []struct {
		input, want float64
	}{
		{0, 0},
		{9, 0},
		{10, 20},
		{20, 20},
		{35, 40},
		{100, 100},
	}
	for _, tt := range tests {
		got := le.snap(tt.input)
		if got != tt.want {
			t.Errorf("snap(%.0f) = %.0f, want %.0f", tt.input, got, tt.want)
		}
	}
}
