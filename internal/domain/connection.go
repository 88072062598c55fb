package domain

// BezierPath is a quadratic curve in canvas units.
type BezierPath struct {
	Start   Position `json:"start"`
	Control Position `json:"control"`
	End     Position `json:"end"`
}

type Segment struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// Connection links a context image to an image generated from it.
// Connections are derived from generation contexts and never stored.
type Connection struct {
	ID        string     `json:"id"`
	SourceID  string     `json:"sourceId"`
	TargetID  string     `json:"targetId"`
	Path      BezierPath `json:"path"`
	Arrowhead [2]Segment `json:"arrowhead"`
	SVGPath   string     `json:"svgPath"`
	Prompt    string     `json:"prompt"`
}

type Particle struct {
	ID           string   `json:"id"`
	ConnectionID string   `json:"connectionId"`
	Progress     float64  `json:"progress"`
	Opacity      float64  `json:"opacity"`
	Position     Position `json:"position"`
}
