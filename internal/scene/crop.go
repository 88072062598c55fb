package scene

import (
	"workbench/internal/domain"
)

// cropSession tracks the single image being cropped so Cancel can restore
// the crop that was in effect before the session started.
type cropSession struct {
	id     string
	backup *domain.Rect
}

// StartCrop puts id into cropping mode and takes any other image out of it.
// The original size is captured once and survives later crops.
func (s *Store) StartCrop(id string) bool {
	return s.mutate(func() bool {
		img, ok := s.byID[id]
		if !ok {
			return false
		}
		for _, other := range s.images {
			if other.IsCropping && other.ID != id {
				s.cancelLocked(other)
			}
		}
		if img.OriginalSize == nil {
			orig := img.Size
			img.OriginalSize = &orig
		}
		var backup *domain.Rect
		if img.CropData != nil {
			r := *img.CropData
			backup = &r
		}
		anchor := img.UncroppedOrigin()
		if !img.IsCropped || img.CropData == nil {
			img.CropData = &domain.Rect{Width: img.OriginalSize.Width, Height: img.OriginalSize.Height}
		}
		img.CropAnchor = &anchor
		img.IsCropping = true
		s.crop = &cropSession{id: id, backup: backup}
		return true
	})
}

// UpdateCropArea replaces the crop rectangle of the image being cropped.
func (s *Store) UpdateCropArea(id string, r domain.Rect) bool {
	return s.mutate(func() bool {
		img, ok := s.byID[id]
		if !ok || !img.IsCropping {
			return false
		}
		img.CropData = &r
		return true
	})
}

// ApplyCrop commits the crop: the image shrinks to the crop rectangle, which
// stays where it was drawn inside the crop frame.
func (s *Store) ApplyCrop(id string) bool {
	return s.mutate(func() bool {
		img, ok := s.byID[id]
		if !ok || !img.IsCropping || img.CropData == nil {
			return false
		}
		img.Position = img.UncroppedOrigin().Add(img.CropData.Min())
		img.IsCropping = false
		img.IsCropped = true
		img.CropAnchor = nil
		img.Size = domain.ClampSize(img.CropData.Size())
		s.endCropLocked(id)
		return true
	})
}

// CancelCrop leaves cropping mode and restores the crop in effect before it.
func (s *Store) CancelCrop(id string) bool {
	return s.mutate(func() bool {
		img, ok := s.byID[id]
		if !ok || !img.IsCropping {
			return false
		}
		s.cancelLocked(img)
		return true
	})
}

func (s *Store) cancelLocked(img *domain.CanvasImage) {
	img.IsCropping = false
	img.CropAnchor = nil
	switch {
	case !img.IsCropped:
		img.CropData = nil
	case s.crop != nil && s.crop.id == img.ID && s.crop.backup != nil:
		r := *s.crop.backup
		img.CropData = &r
	}
	s.endCropLocked(img.ID)
}

// RemoveCrop undoes an applied crop and puts the full original image back
// where its crop frame was.
func (s *Store) RemoveCrop(id string) bool {
	return s.mutate(func() bool {
		img, ok := s.byID[id]
		if !ok || !img.IsCropped {
			return false
		}
		img.Position = img.UncroppedOrigin()
		img.IsCropped = false
		img.IsCropping = false
		img.CropAnchor = nil
		img.CropData = nil
		if img.OriginalSize != nil {
			img.Size = domain.ClampSize(*img.OriginalSize)
		}
		s.endCropLocked(id)
		return true
	})
}

func (s *Store) endCropLocked(id string) {
	if s.crop != nil && s.crop.id == id {
		s.crop = nil
	}
}

// Cropping returns the id of the image in cropping mode, if any.
func (s *Store) Cropping() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, img := range s.images {
		if img.IsCropping {
			return img.ID, true
		}
	}
	return "", false
}
