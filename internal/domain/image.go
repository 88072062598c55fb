package domain

import "time"

type SelectionAreaType string

const (
	SelectionAreaRectangle SelectionAreaType = "rectangle"
	SelectionAreaFreeform  SelectionAreaType = "freeform"
)

// SelectionArea is a region marked on an image, in image-local canvas units.
type SelectionArea struct {
	ID     string            `json:"id"`
	Points []Position        `json:"points"`
	Type   SelectionAreaType `json:"type"`
}

// GenerationContext records how an image was produced.
type GenerationContext struct {
	Prompt          string    `json:"prompt"`
	ContextImageIDs []string  `json:"contextImageIds"`
	Timestamp       time.Time `json:"timestamp"`
}

type CanvasImage struct {
	ID             string          `json:"id"`
	URL            string          `json:"url"`
	Position       Position        `json:"position"`
	Size           Size            `json:"size"`
	NaturalSize    Size            `json:"naturalSize"`
	Selected       bool            `json:"selected"` // filled on read from the selection list
	ZIndex         int             `json:"zIndex"`
	SelectionAreas []SelectionArea `json:"selectionAreas"`

	IsCropping   bool  `json:"isCropping"`
	IsCropped    bool  `json:"isCropped"`
	CropData     *Rect `json:"cropData,omitempty"`
	OriginalSize *Size `json:"originalSize,omitempty"`
	// Top-left of the uncropped image while cropping; fixed for the session.
	CropAnchor *Position `json:"cropAnchor,omitempty"`

	GenerationContext *GenerationContext `json:"generationContext,omitempty"`

	Data []byte `json:"-"` // encoded source bytes
}

func (img *CanvasImage) Bounds() Rect { return RectFrom(img.Position, img.Size) }

// CropFrame is the rectangle the full original image occupies while cropping.
// Position is the top-left of the visible crop, so a cropped image's frame
// starts cropData.xy before it.
func (img *CanvasImage) CropFrame() Rect {
	if img.OriginalSize == nil {
		return img.Bounds()
	}
	return RectFrom(img.UncroppedOrigin(), *img.OriginalSize)
}

// UncroppedOrigin is where the top-left of the full original image sits.
func (img *CanvasImage) UncroppedOrigin() Position {
	switch {
	case img.IsCropping && img.CropAnchor != nil:
		return *img.CropAnchor
	case img.IsCropped && img.CropData != nil:
		return img.Position.Sub(img.CropData.Min())
	}
	return img.Position
}

// Clone returns a deep copy safe to hand out of the store.
func (img *CanvasImage) Clone() CanvasImage {
	c := *img
	if img.SelectionAreas != nil {
		c.SelectionAreas = make([]SelectionArea, len(img.SelectionAreas))
		for i, a := range img.SelectionAreas {
			a.Points = append([]Position(nil), a.Points...)
			c.SelectionAreas[i] = a
		}
	}
	if img.CropData != nil {
		r := *img.CropData
		c.CropData = &r
	}
	if img.OriginalSize != nil {
		s := *img.OriginalSize
		c.OriginalSize = &s
	}
	if img.CropAnchor != nil {
		p := *img.CropAnchor
		c.CropAnchor = &p
	}
	if img.GenerationContext != nil {
		g := *img.GenerationContext
		g.ContextImageIDs = append([]string(nil), img.GenerationContext.ContextImageIDs...)
		c.GenerationContext = &g
	}
	return c
}
