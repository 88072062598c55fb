package mcpserver

import (
	"workbench/internal/domain"
	"workbench/internal/ingest"
)

// imageSummary is the compact image description returned to agents. Pixel
// data and data URLs are left out.
type imageSummary struct {
	ID              string       `json:"id"`
	X               float64      `json:"x"`
	Y               float64      `json:"y"`
	Width           float64      `json:"width"`
	Height          float64      `json:"height"`
	NaturalWidth    float64      `json:"naturalWidth"`
	NaturalHeight   float64      `json:"naturalHeight"`
	ZIndex          int          `json:"zIndex"`
	Selected        bool         `json:"selected"`
	Cropped         bool         `json:"cropped,omitempty"`
	Cropping        bool         `json:"cropping,omitempty"`
	CropData        *domain.Rect `json:"cropData,omitempty"`
	Areas           int          `json:"selectionAreas,omitempty"`
	Prompt          string       `json:"prompt,omitempty"`
	ContextImageIDs []string     `json:"contextImageIds,omitempty"`
	Source          string       `json:"source,omitempty"` // remote URL when not embedded
}

func summarizeImage(img domain.CanvasImage) imageSummary {
	sum := imageSummary{
		ID:            img.ID,
		X:             img.Position.X,
		Y:             img.Position.Y,
		Width:         img.Size.Width,
		Height:        img.Size.Height,
		NaturalWidth:  img.NaturalSize.Width,
		NaturalHeight: img.NaturalSize.Height,
		ZIndex:        img.ZIndex,
		Selected:      img.Selected,
		Cropped:       img.IsCropped,
		Cropping:      img.IsCropping,
		CropData:      img.CropData,
		Areas:         len(img.SelectionAreas),
	}
	if gc := img.GenerationContext; gc != nil {
		sum.Prompt = gc.Prompt
		sum.ContextImageIDs = gc.ContextImageIDs
	}
	if ingest.IsRemoteURL(img.URL) {
		sum.Source = img.URL
	}
	return sum
}

func summarizeImages(images []domain.CanvasImage) []imageSummary {
	out := make([]imageSummary, len(images))
	for i, img := range images {
		out[i] = summarizeImage(img)
	}
	return out
}
