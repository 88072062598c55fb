package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"workbench/internal/domain"
	"workbench/internal/ingest"
)

func (s *Server) registerImageTools() {
	// ── list_images ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_images",
		mcp.WithDescription("List the images on the canvas with position, size, crop state and generation prompt"),
		mcp.WithBoolean("selectedOnly", mcp.Description("Only list selected images (default false)")),
	), s.handleListImages)

	// ── add_image ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_image",
		mcp.WithDescription("Add an image from a local file path or an http(s) URL. Position is auto-calculated if not provided."),
		mcp.WithString("path", mcp.Description("Local file path (path or url is required)")),
		mcp.WithString("url", mcp.Description("http(s) or data URL (path or url is required)")),
		mcp.WithNumber("x", mcp.Description("X position (optional, auto-layout if omitted)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, auto-layout if omitted)")),
	), s.handleAddImage)

	// ── move_image ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_image",
		mcp.WithDescription("Move an image to a new canvas position"),
		mcp.WithString("imageId", mcp.Description("Image ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
	), s.handleMoveImage)

	// ── resize_image ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_image",
		mcp.WithDescription(fmt.Sprintf("Resize an image. Each side is clamped to %g..%g.", domain.MinImageSize, domain.MaxResizeSize)),
		mcp.WithString("imageId", mcp.Description("Image ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height"), mcp.Required()),
	), s.handleResizeImage)

	// ── select_images ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_images",
		mcp.WithDescription("Select images. Selected images become the context for generate_image. An empty list clears the selection."),
		mcp.WithString("imageIds", mcp.Description("Comma-separated image IDs")),
		mcp.WithBoolean("additive", mcp.Description("Keep the current selection (default false)")),
	), s.handleSelectImages)

	// ── delete_images (destructive) ────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_images",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete images with a single approval. Requires user approval."),
		mcp.WithString("imageIds", mcp.Description("Comma-separated image IDs to delete"), mcp.Required()),
		mcp.WithBoolean("confirm", mcp.Description("Explicit confirmation, required when no user is attached")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteImages)

	// ── bring_to_front ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("bring_to_front",
		mcp.WithDescription("Raise an image above all others"),
		mcp.WithString("imageId", mcp.Description("Image ID"), mcp.Required()),
	), s.handleBringToFront)

	// ── arrange_images ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("arrange_images",
		mcp.WithDescription("Lay images out in non-overlapping rows"),
		mcp.WithString("imageIds", mcp.Description("Comma-separated image IDs (optional, defaults to all)")),
		mcp.WithNumber("startX", mcp.Description("Starting X position (default 0)")),
		mcp.WithNumber("startY", mcp.Description("Starting Y position (default 0)")),
	), s.handleArrangeImages)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListImages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	images := s.wb.Scene.Images()
	if req.GetBool("selectedOnly", false) {
		var sel []domain.CanvasImage
		for _, img := range images {
			if img.Selected {
				sel = append(sel, img)
			}
		}
		images = sel
	}
	return jsonResult(summarizeImages(images))
}

func (s *Server) handleAddImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	url, _ := args["url"].(string)

	var src ingest.Source
	switch {
	case path != "":
		src = ingest.FromPath(path)
	case url != "":
		src = ingest.FromURL(url)
	default:
		return nil, fmt.Errorf("path or url is required")
	}

	x, hasX := optionalNumber(args, "x")
	y, hasY := optionalNumber(args, "y")
	existing := s.wb.Scene.Images()

	img, err := s.wb.Scene.Add(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("add image: %w", err)
	}

	pos := domain.Position{X: x, Y: y}
	if !hasX || !hasY {
		auto := s.layout.NextPosition(existing, img.Size)
		if !hasX {
			pos.X = auto.X
		}
		if !hasY {
			pos.Y = auto.Y
		}
	}
	s.wb.Scene.UpdatePosition(img.ID, pos)
	img.Position = pos
	return jsonResult(summarizeImage(img))
}

func (s *Server) handleMoveImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	img, err := s.getImageForTool(args)
	if err != nil {
		return nil, err
	}
	x, okX := optionalNumber(args, "x")
	y, okY := optionalNumber(args, "y")
	if !okX || !okY {
		return nil, fmt.Errorf("x and y are required")
	}
	s.wb.Scene.UpdatePosition(img.ID, domain.Position{X: x, Y: y})
	return textResult(fmt.Sprintf("Image %s moved to (%.0f, %.0f)", img.ID, x, y)), nil
}

func (s *Server) handleResizeImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	img, err := s.getImageForTool(args)
	if err != nil {
		return nil, err
	}
	w, okW := optionalNumber(args, "width")
	h, okH := optionalNumber(args, "height")
	if !okW || !okH {
		return nil, fmt.Errorf("width and height are required")
	}
	size := domain.ClampSize(domain.Size{Width: w, Height: h})
	s.wb.Scene.UpdateSize(img.ID, size)
	return textResult(fmt.Sprintf("Image %s resized to %.0fx%.0f", img.ID, size.Width, size.Height)), nil
}

func (s *Server) handleSelectImages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := splitIDs(req.GetString("imageIds", ""))
	if len(ids) == 0 {
		s.wb.Scene.ClearSelection()
		return textResult("Selection cleared"), nil
	}
	for _, id := range ids {
		if _, err := s.wb.Scene.Image(id); err != nil {
			return nil, fmt.Errorf("image %s: %w", id, err)
		}
	}
	if req.GetBool("additive", false) {
		for _, id := range ids {
			if !s.wb.Scene.IsSelected(id) {
				s.wb.Scene.Select(id, true)
			}
		}
	} else {
		s.wb.Scene.SelectMany(ids)
	}
	return jsonResult(map[string]any{"selectedIds": s.wb.Scene.SelectedIDs()})
}

func (s *Server) handleDeleteImages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idsStr := req.GetString("imageIds", "")
	ids := splitIDs(idsStr)
	if len(ids) == 0 {
		return nil, fmt.Errorf("imageIds is required")
	}

	approved, err := s.approval.Request("delete_images",
		fmt.Sprintf("Delete %d image(s): %s", len(ids), strings.Join(ids, ", ")),
		req.GetBool("confirm", false), ids...)
	if err != nil || !approved {
		msg := "Action rejected by user"
		if err != nil {
			msg = err.Error()
		}
		return textResult(msg), nil
	}

	deleted := 0
	for _, id := range ids {
		if s.wb.Scene.Remove(id) {
			deleted++
		}
	}
	return textResult(fmt.Sprintf("Deleted %d image(s)", deleted)), nil
}

func (s *Server) handleBringToFront(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	img, err := s.getImageForTool(req.GetArguments())
	if err != nil {
		return nil, err
	}
	s.wb.Scene.BringToFront(img.ID)
	return textResult(fmt.Sprintf("Image %s brought to front", img.ID)), nil
}

func (s *Server) handleArrangeImages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	images := s.wb.Scene.Images()
	if ids := splitIDs(req.GetString("imageIds", "")); len(ids) > 0 {
		want := make(map[string]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
		var subset []domain.CanvasImage
		for _, img := range images {
			if want[img.ID] {
				subset = append(subset, img)
			}
		}
		images = subset
	}
	if len(images) == 0 {
		return textResult("No images to arrange"), nil
	}

	startX, _ := optionalNumber(args, "startX")
	startY, _ := optionalNumber(args, "startY")
	updates := s.layout.ArrangeGroup(images, domain.Position{X: startX, Y: startY})
	s.wb.Scene.UpdatePositions(updates)
	return jsonResult(updates)
}
