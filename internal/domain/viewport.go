package domain

type Tool string

const (
	ToolSelect     Tool = "select"
	ToolHand       Tool = "hand"
	ToolAdd        Tool = "add"
	ToolGenerate   Tool = "generate"
	ToolSelectArea Tool = "selectArea"
)

func (t Tool) Valid() bool {
	switch t {
	case ToolSelect, ToolHand, ToolAdd, ToolGenerate, ToolSelectArea:
		return true
	}
	return false
}

// Mode names the interaction the viewport is currently arbitrating.
type Mode string

const (
	ModeIdle           Mode = "idle"
	ModePanning        Mode = "panning"
	ModeBoxSelecting   Mode = "boxSelecting"
	ModeDraggingImages Mode = "draggingImages"
	ModeResizingImages Mode = "resizingImages"
	ModeCropping       Mode = "cropping"
	ModeMarkingArea    Mode = "markingArea"
)

type ViewportState struct {
	Zoom         float64  `json:"zoom"`
	PanOffset    Position `json:"panOffset"`
	ActiveTool   Tool     `json:"activeTool"`
	SpacePressed bool     `json:"spacePressed"`
	Mode         Mode     `json:"mode"`
	SelectionBox *Rect    `json:"selectionBox,omitempty"` // canvas units, while box selecting
	MarkingBox   *Rect    `json:"markingBox,omitempty"`   // image-local, while marking an area
}

// SceneState is the full render payload handed to the frontend.
type SceneState struct {
	Images              []CanvasImage `json:"images"`
	SelectedIDs         []string      `json:"selectedIds"`
	Viewport            ViewportState `json:"viewport"`
	Connections         []Connection  `json:"connections"`
	ShowFlowConnections bool          `json:"showFlowConnections"`
}
