package viewport

import (
	"context"

	"workbench/internal/domain"
)

// EventEmitter is the subset of the app's emitter the controller needs.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

const (
	EventChanged          = "viewport:changed"
	EventAddImageRequest  = "viewport:add-image-requested"
	EventGenerateRequest  = "viewport:generate-requested"
	EventSelectionAreaAdd = "viewport:selection-area-added"
)

type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// PointerEvent is a raw pointer event in screen pixels, as forwarded by the
// frontend.
type PointerEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button Button  `json:"button"`
	Shift  bool    `json:"shift"`
	Ctrl   bool    `json:"ctrl"`
	Meta   bool    `json:"meta"`
	Alt    bool    `json:"alt"`
}

func (e PointerEvent) Screen() domain.Position { return domain.Position{X: e.X, Y: e.Y} }

// Additive reports whether the event extends the selection instead of
// replacing it.
func (e PointerEvent) Additive() bool { return e.Shift || e.Ctrl || e.Meta }

// KeyEvent carries a DOM-style key name plus modifiers.
type KeyEvent struct {
	Key   string `json:"key"`
	Shift bool   `json:"shift"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
	Alt   bool   `json:"alt"`
}

func (k KeyEvent) mod() bool { return k.Ctrl || k.Meta }

// WheelEvent is a wheel tick at a screen position.
type WheelEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"deltaY"`
	Ctrl   bool    `json:"ctrl"`
	Meta   bool    `json:"meta"`
}

// DoubleClickKind says what a double-click resolved to.
type DoubleClickKind string

const (
	DoubleClickNone DoubleClickKind = "none"
	DoubleClickCrop DoubleClickKind = "crop"
	DoubleClickAdd  DoubleClickKind = "add"
)

type DoubleClickResult struct {
	Kind     DoubleClickKind `json:"kind"`
	ImageID  string          `json:"imageId,omitempty"`
	Position domain.Position `json:"position"`
}

// Request is emitted when a tool asks the shell to do something the
// controller cannot do alone, like opening a file dialog.
type Request struct {
	Position domain.Position `json:"position"`
}
