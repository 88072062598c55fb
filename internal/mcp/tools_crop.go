package mcpserver

import (
	"context"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"workbench/internal/domain"
)

func (s *Server) registerCropTools() {
	// ── crop_image ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("crop_image",
		mcp.WithDescription("Crop an image. Actions: start (enter crop mode), update (set the crop rectangle in image-local units of the original size), apply, cancel, remove (restore the uncropped image). Passing x/y/width/height with start or apply updates the rectangle first."),
		mcp.WithString("imageId", mcp.Description("Image ID"), mcp.Required()),
		mcp.WithString("action",
			mcp.Description("start, update, apply, cancel or remove"),
			mcp.Required(),
			mcp.Enum("start", "update", "apply", "cancel", "remove"),
		),
		mcp.WithNumber("x", mcp.Description("Crop rectangle left edge")),
		mcp.WithNumber("y", mcp.Description("Crop rectangle top edge")),
		mcp.WithNumber("width", mcp.Description("Crop rectangle width")),
		mcp.WithNumber("height", mcp.Description("Crop rectangle height")),
	), s.handleCropImage)
}

func (s *Server) handleCropImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	img, err := s.getImageForTool(args)
	if err != nil {
		return nil, err
	}
	action := req.GetString("action", "")

	switch action {
	case "start", "update", "apply":
		if action == "start" || !img.IsCropping {
			if !s.wb.Viewport.StartCrop(img.ID) {
				return nil, fmt.Errorf("cannot start cropping %s while another interaction is active", img.ID)
			}
		}
		if r, ok := cropRectArg(args); ok {
			cur, _ := s.wb.Scene.Image(img.ID)
			frame := cur.Size
			if cur.OriginalSize != nil {
				frame = *cur.OriginalSize
			}
			s.wb.Scene.UpdateCropArea(img.ID, clampCrop(r, frame))
		} else if action == "update" {
			return nil, fmt.Errorf("x, y, width and height are required for update")
		}
		if action == "apply" {
			s.wb.Viewport.ApplyCrop()
		}
	case "cancel":
		if !s.wb.Viewport.CancelCrop() {
			return textResult("No crop in progress"), nil
		}
	case "remove":
		if !s.wb.Scene.RemoveCrop(img.ID) {
			return textResult(fmt.Sprintf("Image %s is not cropped", img.ID)), nil
		}
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}

	out, err := s.wb.Scene.Image(img.ID)
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeImage(out))
}

func cropRectArg(args map[string]any) (domain.Rect, bool) {
	x, okX := optionalNumber(args, "x")
	y, okY := optionalNumber(args, "y")
	w, okW := optionalNumber(args, "width")
	h, okH := optionalNumber(args, "height")
	if !okX || !okY || !okW || !okH {
		return domain.Rect{}, false
	}
	return domain.Rect{X: x, Y: y, Width: w, Height: h}, true
}

// clampCrop keeps r inside frame and at least MinCropSize on each side.
func clampCrop(r domain.Rect, frame domain.Size) domain.Rect {
	r.Width = math.Min(math.Max(r.Width, domain.MinCropSize), frame.Width)
	r.Height = math.Min(math.Max(r.Height, domain.MinCropSize), frame.Height)
	r.X = math.Min(math.Max(r.X, 0), frame.Width-r.Width)
	r.Y = math.Min(math.Max(r.Y, 0), frame.Height-r.Height)
	return r
}
