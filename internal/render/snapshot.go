package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"workbench/internal/domain"
	"workbench/internal/geometry"
	"workbench/internal/ingest"
)

// ─────────────────────────────────────────────────────────────
// Snapshot — flattens the canvas into a single PNG
// ─────────────────────────────────────────────────────────────

const (
	maxLabelChars = 30
	maxDimension  = 8192
)

var ErrEmpty = errors.New("nothing to export")

type Options struct {
	Padding       float64 // canvas units around the image bounds
	Scale         float64 // output pixels per canvas unit
	Background    color.Color
	ShowSelection bool
	ShowFlows     bool
}

func DefaultOptions() Options {
	return Options{
		Padding:       40,
		Scale:         1,
		Background:    color.White,
		ShowSelection: true,
		ShowFlows:     true,
	}
}

var (
	selectionColor  = color.RGBA{R: 59, G: 130, B: 246, A: 255}
	connectionColor = color.RGBA{R: 139, G: 92, B: 246, A: 200}
	placeholder     = color.RGBA{R: 220, G: 220, B: 220, A: 255}
)

var labelFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(gomono.TTF)
})

// Bounds is the canvas rectangle a snapshot of images covers, padding
// excluded.
func Bounds(images []domain.CanvasImage) (domain.Rect, bool) {
	if len(images) == 0 {
		return domain.Rect{}, false
	}
	r := images[0].Bounds()
	for i := 1; i < len(images); i++ {
		r = r.Union(images[i].Bounds())
	}
	return r, true
}

// Snapshot renders images in z order, optionally with selection outlines and
// derivation connections, and returns the PNG encoding.
func Snapshot(images []domain.CanvasImage, conns []domain.Connection, opts Options) ([]byte, error) {
	bounds, ok := Bounds(images)
	if !ok {
		return nil, ErrEmpty
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Background == nil {
		opts.Background = color.White
	}

	origin := domain.Position{X: bounds.X - opts.Padding, Y: bounds.Y - opts.Padding}
	w := (bounds.Width + 2*opts.Padding) * opts.Scale
	h := (bounds.Height + 2*opts.Padding) * opts.Scale
	if longest := math.Max(w, h); longest > maxDimension {
		opts.Scale *= maxDimension / longest
		w = (bounds.Width + 2*opts.Padding) * opts.Scale
		h = (bounds.Height + 2*opts.Padding) * opts.Scale
	}

	dc := gg.NewContext(int(math.Ceil(w)), int(math.Ceil(h)))
	dc.SetColor(opts.Background)
	dc.Clear()
	dc.Scale(opts.Scale, opts.Scale)
	dc.Translate(-origin.X, -origin.Y)

	ordered := append([]domain.CanvasImage(nil), images...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ZIndex < ordered[j].ZIndex })

	for _, img := range ordered {
		drawImage(dc, img, opts.Scale)
	}
	if opts.ShowSelection {
		for _, img := range ordered {
			if !img.Selected {
				continue
			}
			dc.SetColor(selectionColor)
			dc.SetLineWidth(2 / opts.Scale)
			dc.DrawRectangle(img.Position.X, img.Position.Y, img.Size.Width, img.Size.Height)
			dc.Stroke()
		}
	}
	if opts.ShowFlows && len(conns) > 0 {
		f, err := labelFont()
		if err != nil {
			return nil, fmt.Errorf("failed to parse font: %w", err)
		}
		face := truetype.NewFace(f, &truetype.Options{Size: 11, DPI: 72, Hinting: font.HintingFull})
		defer face.Close()
		dc.SetFontFace(face)
		for _, c := range conns {
			drawConnection(dc, c, opts.Scale)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// drawImage paints the visible region of img scaled to its display size.
// Images that fail to decode are drawn as a grey placeholder.
func drawImage(dc *gg.Context, img domain.CanvasImage, scale float64) {
	src, err := ingest.DecodeImage(img.Data)
	if err != nil {
		dc.SetColor(placeholder)
		dc.DrawRectangle(img.Position.X, img.Position.Y, img.Size.Width, img.Size.Height)
		dc.Fill()
		return
	}

	r := src.Bounds()
	if img.IsCropped && img.CropData != nil && img.OriginalSize != nil {
		r = ingest.CropPixels(src, *img.CropData, *img.OriginalSize)
	}
	pw := max(1, int(math.Round(img.Size.Width*scale)))
	ph := max(1, int(math.Round(img.Size.Height*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, pw, ph))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, r, draw.Src, nil)

	// dst is in output pixels; undo the context scale while placing it.
	dc.Push()
	dc.Translate(img.Position.X, img.Position.Y)
	dc.Scale(1/scale, 1/scale)
	dc.DrawImage(dst, 0, 0)
	dc.Pop()
}

func drawConnection(dc *gg.Context, c domain.Connection, scale float64) {
	p := c.Path
	dc.SetColor(connectionColor)
	dc.SetLineWidth(2 / scale)
	dc.SetDash(6/scale, 4/scale)
	dc.MoveTo(p.Start.X, p.Start.Y)
	dc.QuadraticTo(p.Control.X, p.Control.Y, p.End.X, p.End.Y)
	dc.Stroke()
	dc.SetDash()

	for _, s := range c.Arrowhead {
		dc.DrawLine(s.From.X, s.From.Y, s.To.X, s.To.Y)
		dc.Stroke()
	}

	if label := Label(c.Prompt); label != "" {
		mid := geometry.SampleAt(p, 0.5)
		dc.SetColor(color.Black)
		dc.DrawStringAnchored(label, mid.X, mid.Y-6/scale, 0.5, 0.5)
	}
}

// Label truncates a prompt for display on a connection.
func Label(prompt string) string {
	r := []rune(prompt)
	if len(r) <= maxLabelChars {
		return prompt
	}
	return string(r[:maxLabelChars]) + "..."
}
