package viewport

import (
	"math"

	"github.com/samber/lo"

	"workbench/internal/domain"
	"workbench/internal/scene"
)

// PointerDown starts a gesture according to the tool, modifiers and what is
// under the pointer.
func (c *Controller) PointerDown(ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()

	c.syncCrop()
	p := c.toCanvas(ev.Screen())

	if c.mode == domain.ModeCropping {
		if c.cropPointerDown(p) {
			return
		}
		// Outside the frame: commit, then treat as a fresh press.
		if id, ok := c.scene.Cropping(); ok {
			c.scene.ApplyCrop(id)
		}
		c.setMode(domain.ModeIdle)
	}
	if c.mode != domain.ModeIdle {
		return
	}

	if ev.Button == ButtonMiddle || (ev.Button == ButtonLeft && c.handMode()) {
		c.panStart, c.panOrigin = ev.Screen(), c.pan
		c.setMode(domain.ModePanning)
		c.panBySpace = c.spacePressed && c.tool != domain.ToolHand
		return
	}
	if ev.Button != ButtonLeft {
		return
	}

	switch c.tool {
	case domain.ToolSelect:
		c.selectPointerDown(ev, p)
	case domain.ToolSelectArea:
		if id, ok := c.scene.TopmostAt(p); ok {
			img, err := c.scene.Image(id)
			if err != nil {
				return
			}
			local := p.Sub(img.Position)
			c.mark = &markGesture{imageID: id, origin: img.Position, start: local, end: local}
			c.setMode(domain.ModeMarkingArea)
		}
	case domain.ToolAdd:
		c.emit(EventAddImageRequest, Request{Position: p})
	case domain.ToolGenerate:
		c.contextPos = &p
		c.emit(EventGenerateRequest, Request{Position: p})
	}
}

func (c *Controller) selectPointerDown(ev PointerEvent, p domain.Position) {
	if h, id, ok := c.hitResizeHandle(p); ok {
		c.beginResize(h, id, p)
		return
	}

	id, hit := c.scene.TopmostAt(p)
	if !hit {
		if ev.Additive() {
			c.boxUnion = c.scene.SelectedIDs()
		} else {
			c.scene.ClearSelection()
		}
		c.boxStart, c.boxEnd = p, p
		c.setMode(domain.ModeBoxSelecting)
		return
	}

	// Pressing an already selected image keeps the group, whatever the
	// modifiers, so it can be dragged together.
	if !c.scene.IsSelected(id) {
		c.scene.Select(id, ev.Additive())
	}
	c.scene.BringToFront(id)

	c.dragOffset = make(map[string]domain.Position)
	for _, img := range c.scene.Images() {
		if img.Selected {
			c.dragOffset[img.ID] = p.Sub(img.Position)
		}
	}
	c.setMode(domain.ModeDraggingImages)
}

// hitResizeHandle looks for a grip of any selected image under p, topmost
// image first.
func (c *Controller) hitResizeHandle(p domain.Position) (Handle, string, bool) {
	radius := c.cfg.HandleRadius / c.zoom
	handles := c.cfg.Handles.handles()

	var (
		best    Handle
		bestID  string
		bestZ   = math.MinInt
		matched bool
	)
	for _, img := range c.scene.Images() {
		if !img.Selected || img.IsCropping {
			continue
		}
		if h, ok := hitHandle(handles, img.Bounds(), p, radius); ok && img.ZIndex > bestZ {
			best, bestID, bestZ, matched = h, img.ID, img.ZIndex, true
		}
	}
	return best, bestID, matched
}

func (c *Controller) beginResize(h Handle, id string, p domain.Position) {
	g := &resizeGesture{handle: h, activeID: id, start: p, initial: make(map[string]domain.Rect)}
	for _, img := range c.scene.Images() {
		if img.Selected {
			g.initial[img.ID] = img.Bounds()
		}
	}
	c.setMode(domain.ModeResizingImages)
	c.resize = g
}

// PointerMove advances the active gesture.
func (c *Controller) PointerMove(ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()

	p := c.toCanvas(ev.Screen())
	switch c.mode {
	case domain.ModePanning:
		c.pan = c.panOrigin.Add(ev.Screen().Sub(c.panStart))
		c.dirty = true

	case domain.ModeBoxSelecting:
		c.boxEnd = p
		c.dirty = true

	case domain.ModeDraggingImages:
		updates := make([]scene.PositionUpdate, 0, len(c.dragOffset))
		for id, off := range c.dragOffset {
			updates = append(updates, scene.PositionUpdate{ID: id, Position: p.Sub(off)})
		}
		c.scene.UpdatePositions(updates)

	case domain.ModeResizingImages:
		c.resizeMove(p)

	case domain.ModeCropping:
		c.cropPointerMove(p)

	case domain.ModeMarkingArea:
		c.mark.end = p.Sub(c.mark.origin)
		c.dirty = true
	}
}

func (c *Controller) resizeMove(p domain.Position) {
	g := c.resize
	active, ok := g.initial[g.activeID]
	if !ok {
		return
	}
	sx, sy := ResizeScale(g.handle, active.Size(), p.Sub(g.start))

	sizes := make([]scene.SizeUpdate, 0, len(g.initial))
	for id, r := range g.initial {
		sizes = append(sizes, scene.SizeUpdate{
			ID:   id,
			Size: domain.Size{Width: r.Width * sx, Height: r.Height * sy},
		})
	}
	c.scene.UpdateSizes(sizes)

	clamped := domain.ClampSize(domain.Size{Width: active.Width * sx, Height: active.Height * sy})
	c.scene.UpdatePosition(g.activeID, anchor(g.handle, active, clamped))
}

// PointerUp finishes the active gesture.
func (c *Controller) PointerUp(ev PointerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()

	switch c.mode {
	case domain.ModeBoxSelecting:
		c.boxEnd = c.toCanvas(ev.Screen())
		box := domain.RectBetween(c.boxStart, c.boxEnd)
		if box.Width > 0 || box.Height > 0 {
			if ids := c.scene.IntersectingIDs(box); len(ids) > 0 {
				c.scene.SelectMany(lo.Union(c.boxUnion, ids))
			}
		}
		c.setMode(domain.ModeIdle)

	case domain.ModeMarkingArea:
		m := c.mark
		r := domain.RectBetween(m.start, m.end)
		if r.Width >= 1 && r.Height >= 1 {
			area := domain.SelectionArea{
				Points: []domain.Position{r.Min(), r.Max()},
				Type:   domain.SelectionAreaRectangle,
			}
			if areaID, ok := c.scene.AddSelectionArea(m.imageID, area); ok {
				c.emit(EventSelectionAreaAdd, map[string]string{"imageId": m.imageID, "areaId": areaID})
			}
		}
		c.setMode(domain.ModeIdle)

	case domain.ModeCropping:
		if c.crop != nil {
			c.crop = nil
			c.dirty = true
		}

	case domain.ModeIdle:
	default:
		c.setMode(domain.ModeIdle)
	}
}

// DoubleClick crops the image under the pointer, or asks the shell to add
// an image at an empty spot.
func (c *Controller) DoubleClick(ev PointerEvent) DoubleClickResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()

	c.syncCrop()
	p := c.toCanvas(ev.Screen())
	res := DoubleClickResult{Kind: DoubleClickNone, Position: p}
	if c.mode != domain.ModeIdle || c.tool != domain.ToolSelect || c.spacePressed {
		return res
	}

	if id, ok := c.scene.TopmostAt(p); ok {
		if c.scene.StartCrop(id) {
			c.setMode(domain.ModeCropping)
			res.Kind, res.ImageID = DoubleClickCrop, id
		}
		return res
	}
	res.Kind = DoubleClickAdd
	c.emit(EventAddImageRequest, Request{Position: p})
	return res
}

// ── Cropping ─────────────────────────────────────────────

// cropPointerDown starts a crop sub-gesture and reports whether p was inside
// the crop frame.
func (c *Controller) cropPointerDown(p domain.Position) bool {
	id, ok := c.scene.Cropping()
	if !ok {
		return false
	}
	img, err := c.scene.Image(id)
	if err != nil || img.CropData == nil {
		return false
	}
	frame := img.CropFrame()
	local := p.Sub(frame.Min())
	r := *img.CropData

	g := &cropGesture{imageID: id, startLocal: local, startRect: r, frame: frame.Size()}
	if h, ok := hitHandle(cornerHandles, r, local, c.cfg.HandleRadius/c.zoom); ok {
		g.handle = h
		c.crop = g
		c.dirty = true
		return true
	}
	if r.Contains(local) {
		c.crop = g
		c.dirty = true
		return true
	}
	return frame.Contains(p)
}

func (c *Controller) cropPointerMove(p domain.Position) {
	g := c.crop
	if g == nil {
		return
	}
	img, err := c.scene.Image(g.imageID)
	if err != nil {
		return
	}
	d := p.Sub(img.CropFrame().Min()).Sub(g.startLocal)

	var next domain.Rect
	if g.handle == "" {
		next = MoveCrop(g.startRect, d, g.frame)
	} else {
		next = ResizeCrop(g.handle, g.startRect, d, g.frame)
	}
	c.scene.UpdateCropArea(g.imageID, next)
}
