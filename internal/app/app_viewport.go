package app

import (
	"workbench/internal/domain"
	"workbench/internal/viewport"
)

// ============================================================
// Viewport input
// ============================================================
//
// The frontend forwards raw DOM events in screen pixels. State changes come
// back on viewport:changed and scene:changed.

// SetViewportRect reports where the canvas element sits and how large it is.
func (a *App) SetViewportRect(x, y, width, height float64) {
	a.wb.Viewport.SetViewportRect(domain.Position{X: x, Y: y}, domain.Size{Width: width, Height: height})
}

func (a *App) PointerDown(ev viewport.PointerEvent) {
	a.wb.Viewport.PointerDown(ev)
}

func (a *App) PointerMove(ev viewport.PointerEvent) {
	a.wb.Viewport.PointerMove(ev)
}

func (a *App) PointerUp(ev viewport.PointerEvent) {
	a.wb.Viewport.PointerUp(ev)
}

// DoubleClick enters crop mode on an image or asks for an image to add on
// empty canvas.
func (a *App) DoubleClick(ev viewport.PointerEvent) viewport.DoubleClickResult {
	return a.wb.Viewport.DoubleClick(ev)
}

// Wheel zooms or pans. It returns true when the frontend should call
// preventDefault.
func (a *App) Wheel(ev viewport.WheelEvent) bool {
	return a.wb.Viewport.Wheel(ev)
}

// KeyDown returns true when the key was handled.
func (a *App) KeyDown(ev viewport.KeyEvent) bool {
	return a.wb.Viewport.KeyDown(ev)
}

func (a *App) KeyUp(ev viewport.KeyEvent) bool {
	return a.wb.Viewport.KeyUp(ev)
}

// ContextMenu records where the menu was opened and returns it in canvas
// coordinates.
func (a *App) ContextMenu(ev viewport.PointerEvent) domain.Position {
	return a.wb.Viewport.ContextMenu(ev)
}

func (a *App) SetTool(tool string) {
	a.wb.Viewport.SetTool(domain.Tool(tool))
}

func (a *App) ZoomBy(delta float64) {
	a.wb.Viewport.ZoomBy(delta)
}

func (a *App) ResetZoom() {
	a.wb.Viewport.ResetZoom()
}

// GetSceneState returns the full render payload.
func (a *App) GetSceneState() domain.SceneState {
	return a.wb.State()
}

// SetFlowVisible toggles the derivation connection overlay.
func (a *App) SetFlowVisible(visible bool) {
	a.wb.SetFlowVisible(visible)
}
