package flow

import (
	"workbench/internal/domain"
	"workbench/internal/geometry"
)

// Derive builds one connection per (context image, generated image) pair
// whose endpoints both exist. Hidden flows derive nothing.
func Derive(images []domain.CanvasImage, visible bool) []domain.Connection {
	if !visible {
		return nil
	}
	byID := make(map[string]*domain.CanvasImage, len(images))
	for i := range images {
		byID[images[i].ID] = &images[i]
	}

	var conns []domain.Connection
	for i := range images {
		target := &images[i]
		gc := target.GenerationContext
		if gc == nil {
			continue
		}
		seen := make(map[string]bool, len(gc.ContextImageIDs))
		for _, srcID := range gc.ContextImageIDs {
			source, ok := byID[srcID]
			if !ok || seen[srcID] || srcID == target.ID {
				continue
			}
			seen[srcID] = true

			path := geometry.BezierPath(source.Bounds(), target.Bounds())
			conns = append(conns, domain.Connection{
				ID:        srcID + "-" + target.ID,
				SourceID:  srcID,
				TargetID:  target.ID,
				Path:      path,
				Arrowhead: geometry.Arrowhead(path, geometry.ArrowheadSize),
				SVGPath:   geometry.SVGPath(path),
				Prompt:    gc.Prompt,
			})
		}
	}
	return conns
}
