package viewport

import (
	"context"
	"sync"

	"workbench/internal/domain"
	"workbench/internal/geometry"
	"workbench/internal/scene"
)

// ─────────────────────────────────────────────────────────────
// Viewport Controller — pointer/keyboard state machine
// ─────────────────────────────────────────────────────────────
//
// Exactly one interaction mode is active at a time. The controller turns raw
// screen-space events into scene mutations and owns zoom, pan and the active
// tool. Lock order is controller then scene; scene listeners must not call
// back into the controller.

type Config struct {
	Handles      HandleSet
	HandleRadius float64 // screen pixels
}

func DefaultConfig() Config {
	return Config{Handles: HandlesCorners, HandleRadius: 6}
}

type resizeGesture struct {
	handle   Handle
	activeID string
	start    domain.Position
	initial  map[string]domain.Rect
}

type markGesture struct {
	imageID string
	origin  domain.Position // image position when the gesture began
	start   domain.Position // image-local
	end     domain.Position
}

type Controller struct {
	mu      sync.Mutex
	ctx     context.Context
	scene   *scene.Store
	emitter EventEmitter
	cfg     Config

	zoom         float64
	pan          domain.Position
	tool         domain.Tool
	spacePressed bool
	origin       domain.Position
	viewSize     domain.Size
	mode         domain.Mode

	// per-gesture state, valid only in the matching mode
	panStart   domain.Position // screen point where the pan began
	panOrigin  domain.Position // pan offset when it began
	panBySpace bool
	boxStart   domain.Position
	boxEnd     domain.Position
	boxUnion   []string
	dragOffset map[string]domain.Position
	resize     *resizeGesture
	crop       *cropGesture
	mark       *markGesture

	contextPos *domain.Position
	dirty      bool
}

func NewController(ctx context.Context, store *scene.Store, emitter EventEmitter, cfg Config) *Controller {
	if cfg.Handles == "" {
		cfg.Handles = HandlesCorners
	}
	if cfg.HandleRadius <= 0 {
		cfg.HandleRadius = DefaultConfig().HandleRadius
	}
	return &Controller{
		ctx:     ctx,
		scene:   store,
		emitter: emitter,
		cfg:     cfg,
		zoom:    domain.DefaultZoom,
		tool:    domain.ToolSelect,
		mode:    domain.ModeIdle,
	}
}

// State returns a snapshot of the viewport.
func (c *Controller) State() domain.ViewportState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() domain.ViewportState {
	st := domain.ViewportState{
		Zoom:         c.zoom,
		PanOffset:    c.pan,
		ActiveTool:   c.tool,
		SpacePressed: c.spacePressed,
		Mode:         c.mode,
	}
	switch c.mode {
	case domain.ModeBoxSelecting:
		r := domain.RectBetween(c.boxStart, c.boxEnd)
		st.SelectionBox = &r
	case domain.ModeMarkingArea:
		r := domain.RectBetween(c.mark.start, c.mark.end)
		st.MarkingBox = &r
	}
	return st
}

// flush emits a viewport change if the current event altered anything.
// Caller holds mu.
func (c *Controller) flush() {
	if !c.dirty {
		return
	}
	c.dirty = false
	if c.emitter != nil {
		c.emitter.Emit(c.ctx, EventChanged, c.stateLocked())
	}
}

func (c *Controller) emit(event string, data any) {
	if c.emitter != nil {
		c.emitter.Emit(c.ctx, event, data)
	}
}

func (c *Controller) setMode(m domain.Mode) {
	if c.mode == m {
		return
	}
	c.mode = m
	c.dirty = true
	if m != domain.ModeDraggingImages {
		c.dragOffset = nil
	}
	if m != domain.ModeResizingImages {
		c.resize = nil
	}
	if m != domain.ModeMarkingArea {
		c.mark = nil
	}
	if m != domain.ModeCropping {
		c.crop = nil
	}
	if m != domain.ModeBoxSelecting {
		c.boxUnion = nil
	}
	if m != domain.ModePanning {
		c.panBySpace = false
	}
}

func (c *Controller) toCanvas(screen domain.Position) domain.Position {
	return geometry.ScreenToCanvas(screen, c.zoom, c.pan, c.origin)
}

func (c *Controller) handMode() bool {
	return c.tool == domain.ToolHand || c.spacePressed
}

// syncCrop reconciles the mode with the scene, which can enter or leave
// cropping through other surfaces.
func (c *Controller) syncCrop() {
	_, cropping := c.scene.Cropping()
	switch {
	case cropping && c.mode == domain.ModeIdle:
		c.setMode(domain.ModeCropping)
	case !cropping && c.mode == domain.ModeCropping:
		c.setMode(domain.ModeIdle)
	}
}

// abortGesture stops whatever is in progress without applying its result.
// An active crop is committed.
func (c *Controller) abortGesture() {
	switch c.mode {
	case domain.ModeCropping:
		if id, ok := c.scene.Cropping(); ok {
			c.scene.ApplyCrop(id)
		}
		c.setMode(domain.ModeIdle)
	case domain.ModeIdle:
	default:
		c.setMode(domain.ModeIdle)
	}
}

// ── Viewport geometry ────────────────────────────────────

// SetViewportRect records where the canvas element sits on screen.
func (c *Controller) SetViewportRect(origin domain.Position, size domain.Size) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()
	c.origin = origin
	c.viewSize = size
	c.dirty = true
}

func (c *Controller) SetPan(p domain.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()
	c.pan = p
	c.dirty = true
}

// SetZoom sets the zoom level around the viewport center.
func (c *Controller) SetZoom(z float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()
	c.zoomAroundLocked(c.viewCenter(), z)
}

func (c *Controller) viewCenter() domain.Position {
	return domain.Position{X: c.origin.X + c.viewSize.Width/2, Y: c.origin.Y + c.viewSize.Height/2}
}

func (c *Controller) zoomAroundLocked(cursor domain.Position, z float64) {
	z = geometry.ClampZoom(z, domain.MinZoom, domain.MaxZoom)
	c.pan = geometry.ZoomAroundCursor(cursor, c.zoom, z, c.pan, c.origin)
	c.zoom = z
	c.dirty = true
}

// ZoomBy steps the zoom level, e.g. by ±ZoomStep from the keyboard.
func (c *Controller) ZoomBy(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()
	c.zoomAroundLocked(c.viewCenter(), c.zoom+delta)
}

// ResetZoom returns to 100% with the home area centered.
func (c *Controller) ResetZoom() {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()
	c.zoom = domain.DefaultZoom
	c.pan = geometry.HomePan(c.viewSize)
	c.dirty = true
}

// Wheel zooms around the cursor when a zoom modifier is held and reports
// whether the event was consumed. Plain wheel events are left to the host.
func (c *Controller) Wheel(ev WheelEvent) bool {
	if !ev.Ctrl && !ev.Meta {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()
	c.zoomAroundLocked(domain.Position{X: ev.X, Y: ev.Y}, c.zoom*geometry.WheelZoomFactor(ev.DeltaY))
	return true
}

// ── Tools ────────────────────────────────────────────────

// SetTool switches tools. Any gesture in progress ends immediately.
func (c *Controller) SetTool(t domain.Tool) {
	if !t.Valid() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()
	if c.tool == t {
		return
	}
	c.abortGesture()
	c.tool = t
	c.dirty = true
}

// ContextMenu remembers where the menu opened so generated images land there.
func (c *Controller) ContextMenu(ev PointerEvent) domain.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.toCanvas(ev.Screen())
	c.contextPos = &p
	return p
}

// ContextPosition returns the last context-menu position, if any.
func (c *Controller) ContextPosition() (domain.Position, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.contextPos == nil {
		return domain.Position{}, false
	}
	return *c.contextPos, true
}

// ApplyCrop commits the active crop.
func (c *Controller) ApplyCrop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()
	id, ok := c.scene.Cropping()
	if !ok {
		return false
	}
	c.scene.ApplyCrop(id)
	c.setMode(domain.ModeIdle)
	return true
}

// CancelCrop abandons the active crop.
func (c *Controller) CancelCrop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()
	id, ok := c.scene.Cropping()
	if !ok {
		return false
	}
	c.scene.CancelCrop(id)
	c.setMode(domain.ModeIdle)
	return true
}

// StartCrop enters cropping for id, committing any other crop first.
func (c *Controller) StartCrop(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()
	if c.mode != domain.ModeIdle && c.mode != domain.ModeCropping {
		return false
	}
	if cur, ok := c.scene.Cropping(); ok && cur != id {
		c.scene.ApplyCrop(cur)
	}
	if !c.scene.StartCrop(id) {
		return false
	}
	c.setMode(domain.ModeCropping)
	return true
}
