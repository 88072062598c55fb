package scene

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"workbench/internal/domain"
	"workbench/internal/ingest"
)

// ─────────────────────────────────────────────────────────────
// Scene Store — the authoritative image collection
// ─────────────────────────────────────────────────────────────

var (
	ErrNotFound = errors.New("image not found")
	ErrRejected = errors.New("image rejected at insertion")
)

// Store owns every CanvasImage plus the selection. All operations are
// serialized by mu; change listeners run after the lock is released.
type Store struct {
	mu       sync.Mutex
	images   []*domain.CanvasImage // insertion order
	byID     map[string]*domain.CanvasImage
	selected []string
	crop     *cropSession

	decoder   ingest.Decoder
	rnd       func() float64
	listeners []func()
	pending   sync.WaitGroup
}

func NewStore(decoder ingest.Decoder) *Store {
	return &Store{
		byID:    make(map[string]*domain.CanvasImage),
		decoder: decoder,
		rnd:     rand.Float64,
	}
}

// OnChange registers fn to run after every mutation.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// mutate runs fn under the lock and notifies listeners if it reports a change.
func (s *Store) mutate(fn func() bool) bool {
	s.mu.Lock()
	changed := fn()
	listeners := s.listeners
	s.mu.Unlock()

	if changed {
		for _, l := range listeners {
			l()
		}
	}
	return changed
}

// ── Adding ───────────────────────────────────────────────

type addOptions struct {
	id       string
	position *domain.Position
	genCtx   *domain.GenerationContext
	gate     func() bool
}

type AddOption func(*addOptions)

func WithID(id string) AddOption { return func(o *addOptions) { o.id = id } }

func WithPosition(p domain.Position) AddOption {
	return func(o *addOptions) { o.position = &p }
}

// WithGate makes Add insert only if gate reports true at insertion time.
// gate runs under the store lock and must not call back into the store.
func WithGate(gate func() bool) AddOption {
	return func(o *addOptions) { o.gate = gate }
}

func WithGenerationContext(gc domain.GenerationContext) AddOption {
	return func(o *addOptions) {
		gc.ContextImageIDs = append([]string(nil), gc.ContextImageIDs...)
		o.genCtx = &gc
	}
}

// DisplaySize scales intrinsic dimensions so neither side exceeds
// MaxImageSize, never enlarging.
func DisplaySize(w, h float64) domain.Size {
	scale := math.Min(math.Min(domain.MaxImageSize/w, domain.MaxImageSize/h), 1)
	return domain.ClampSize(domain.Size{Width: w * scale, Height: h * scale})
}

// Add decodes src and inserts the image once decoding succeeds. On failure
// nothing is inserted.
func (s *Store) Add(ctx context.Context, src ingest.Source, opts ...AddOption) (domain.CanvasImage, error) {
	o := addOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.New().String()
	}

	d, err := s.decoder.Decode(ctx, src)
	if err != nil {
		return domain.CanvasImage{}, fmt.Errorf("add image from %s: %w", src, err)
	}

	var out domain.CanvasImage
	rejected := false
	s.mutate(func() bool {
		if o.gate != nil && !o.gate() {
			rejected = true
			return false
		}
		pos := domain.Position{
			X: domain.DefaultPlacement.X + s.rnd()*domain.DefaultPlacement.Width,
			Y: domain.DefaultPlacement.Y + s.rnd()*domain.DefaultPlacement.Height,
		}
		if o.position != nil {
			pos = *o.position
		}
		img := &domain.CanvasImage{
			ID:                o.id,
			URL:               d.URL,
			Position:          pos,
			Size:              DisplaySize(float64(d.Width), float64(d.Height)),
			NaturalSize:       domain.Size{Width: float64(d.Width), Height: float64(d.Height)},
			ZIndex:            s.maxZ() + 1,
			SelectionAreas:    []domain.SelectionArea{},
			GenerationContext: o.genCtx,
			Data:              d.Data,
		}
		s.images = append(s.images, img)
		s.byID[img.ID] = img
		out = s.view(img)
		return true
	})
	if rejected {
		return domain.CanvasImage{}, fmt.Errorf("add image %s: %w", o.id, ErrRejected)
	}
	return out, nil
}

// AddAsync assigns an id immediately and decodes in the background. The
// image appears only if decoding succeeds; failures are logged.
func (s *Store) AddAsync(ctx context.Context, src ingest.Source, opts ...AddOption) string {
	id := uuid.New().String()
	opts = append(opts, WithID(id))

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if _, err := s.Add(ctx, src, opts...); err != nil {
			log.Printf("[Scene] %v", err)
		}
	}()
	return id
}

// Wait blocks until background decodes finish or ctx is cancelled.
func (s *Store) Wait(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// ── Removal ──────────────────────────────────────────────

func (s *Store) Remove(id string) bool {
	return s.mutate(func() bool { return s.removeLocked(id) })
}

// DeleteSelected removes every selected image and returns their ids.
func (s *Store) DeleteSelected() []string {
	var removed []string
	s.mutate(func() bool {
		for _, id := range append([]string(nil), s.selected...) {
			if s.removeLocked(id) {
				removed = append(removed, id)
			}
		}
		return len(removed) > 0
	})
	return removed
}

func (s *Store) removeLocked(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	s.images = lo.Reject(s.images, func(img *domain.CanvasImage, _ int) bool { return img.ID == id })
	s.selected = lo.Without(s.selected, id)
	if s.crop != nil && s.crop.id == id {
		s.crop = nil
	}
	return true
}

// ── Geometry ─────────────────────────────────────────────

type PositionUpdate struct {
	ID       string          `json:"id"`
	Position domain.Position `json:"position"`
}

type SizeUpdate struct {
	ID   string      `json:"id"`
	Size domain.Size `json:"size"`
}

func (s *Store) UpdatePosition(id string, p domain.Position) bool {
	return s.UpdatePositions([]PositionUpdate{{ID: id, Position: p}})
}

// UpdatePositions applies all updates in one notification. Positions are
// unconstrained.
func (s *Store) UpdatePositions(updates []PositionUpdate) bool {
	return s.mutate(func() bool {
		changed := false
		for _, u := range updates {
			if img, ok := s.byID[u.ID]; ok {
				if img.CropAnchor != nil {
					a := img.CropAnchor.Add(u.Position.Sub(img.Position))
					img.CropAnchor = &a
				}
				img.Position = u.Position
				changed = true
			}
		}
		return changed
	})
}

func (s *Store) UpdateSize(id string, size domain.Size) bool {
	return s.UpdateSizes([]SizeUpdate{{ID: id, Size: size}})
}

// UpdateSizes clamps each dimension to the allowed range.
func (s *Store) UpdateSizes(updates []SizeUpdate) bool {
	return s.mutate(func() bool {
		changed := false
		for _, u := range updates {
			if img, ok := s.byID[u.ID]; ok {
				img.Size = domain.ClampSize(u.Size)
				changed = true
			}
		}
		return changed
	})
}

// BringToFront raises id above every other image.
func (s *Store) BringToFront(id string) bool {
	return s.mutate(func() bool {
		img, ok := s.byID[id]
		if !ok {
			return false
		}
		img.ZIndex = s.maxZ() + 1
		return true
	})
}

func (s *Store) maxZ() int {
	z := 0
	for _, img := range s.images {
		z = max(z, img.ZIndex)
	}
	return z
}

// ── Selection areas ──────────────────────────────────────

// AddSelectionArea appends area to the image, assigning an id if empty.
func (s *Store) AddSelectionArea(imageID string, area domain.SelectionArea) (string, bool) {
	if area.ID == "" {
		area.ID = uuid.New().String()
	}
	if area.Type == "" {
		area.Type = domain.SelectionAreaRectangle
	}
	area.Points = append([]domain.Position(nil), area.Points...)
	ok := s.mutate(func() bool {
		img, ok := s.byID[imageID]
		if !ok {
			return false
		}
		img.SelectionAreas = append(img.SelectionAreas, area)
		return true
	})
	return area.ID, ok
}

func (s *Store) ClearSelectionAreas(imageID string) bool {
	return s.mutate(func() bool {
		img, ok := s.byID[imageID]
		if !ok || len(img.SelectionAreas) == 0 {
			return false
		}
		img.SelectionAreas = []domain.SelectionArea{}
		return true
	})
}

// ── Reads ────────────────────────────────────────────────

// view copies img and fills the derived selection flag. Caller holds mu.
func (s *Store) view(img *domain.CanvasImage) domain.CanvasImage {
	c := img.Clone()
	c.Selected = lo.Contains(s.selected, img.ID)
	return c
}

// Images returns copies of all images in insertion order.
func (s *Store) Images() []domain.CanvasImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.images, func(img *domain.CanvasImage, _ int) domain.CanvasImage { return s.view(img) })
}

func (s *Store) Image(id string) (domain.CanvasImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.byID[id]
	if !ok {
		return domain.CanvasImage{}, fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	return s.view(img), nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// TopmostAt returns the highest image whose bounds contain p.
func (s *Store) TopmostAt(p domain.Position) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var hit *domain.CanvasImage
	for _, img := range s.images {
		if img.Bounds().Contains(p) && (hit == nil || img.ZIndex >= hit.ZIndex) {
			hit = img
		}
	}
	if hit == nil {
		return "", false
	}
	return hit.ID, true
}

// IntersectingIDs lists images whose bounds intersect r, edges inclusive.
func (s *Store) IntersectingIDs(r domain.Rect) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.FilterMap(s.images, func(img *domain.CanvasImage, _ int) (string, bool) {
		return img.ID, img.Bounds().Intersects(r)
	})
}
