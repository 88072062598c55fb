package viewport

import (
	"strings"

	"workbench/internal/domain"
	"workbench/internal/geometry"
)

func isSpace(key string) bool { return key == " " || key == "Space" || key == "Spacebar" }

// KeyDown handles shortcuts and reports whether the key was consumed.
func (c *Controller) KeyDown(k KeyEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()

	c.syncCrop()
	key := k.Key
	if isSpace(key) {
		if !c.spacePressed {
			c.spacePressed = true
			c.dirty = true
			if c.mode != domain.ModePanning {
				c.abortGesture()
			}
		}
		return true
	}

	if k.mod() {
		switch key {
		case "=", "+":
			c.zoomAroundLocked(c.viewCenter(), c.zoom+domain.ZoomStep)
		case "-", "_":
			c.zoomAroundLocked(c.viewCenter(), c.zoom-domain.ZoomStep)
		case "0":
			c.zoom = domain.DefaultZoom
			c.pan = geometry.HomePan(c.viewSize)
			c.dirty = true
		case "a", "A":
			if c.mode == domain.ModeIdle {
				c.scene.SelectAll()
			}
		default:
			return false
		}
		return true
	}

	switch key {
	case "Escape":
		switch c.mode {
		case domain.ModeIdle:
		case domain.ModeCropping:
			if id, ok := c.scene.Cropping(); ok {
				c.scene.CancelCrop(id)
			}
			c.setMode(domain.ModeIdle)
			return true
		default:
			c.setMode(domain.ModeIdle)
			return true
		}
		c.scene.ClearSelection()
		return true
	case "Delete", "Backspace":
		if c.mode == domain.ModeIdle {
			c.scene.DeleteSelected()
			return true
		}
		return false
	}

	var next domain.Tool
	switch strings.ToLower(key) {
	case "v":
		next = domain.ToolSelect
	case "h":
		next = domain.ToolHand
	default:
		return false
	}
	if c.tool != next {
		c.abortGesture()
		c.tool = next
		c.dirty = true
	}
	return true
}

// KeyUp releases the temporary hand override.
func (c *Controller) KeyUp(k KeyEvent) bool {
	if !isSpace(k.Key) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.flush()

	if c.spacePressed {
		c.spacePressed = false
		c.dirty = true
	}
	if c.mode == domain.ModePanning && c.panBySpace {
		c.setMode(domain.ModeIdle)
	}
	return true
}
