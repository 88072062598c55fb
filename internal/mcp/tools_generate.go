package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"workbench/internal/domain"
)

func (s *Server) registerGenerateTools() {
	// ── generate_image ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("generate_image",
		mcp.WithDescription("Generate a new image from a prompt, optionally using existing images as context. Blocks until the image is on the canvas."),
		mcp.WithString("prompt", mcp.Description("What to generate (1-5000 characters)"), mcp.Required()),
		mcp.WithString("contextImageIds", mcp.Description("Comma-separated context image IDs (optional, defaults to the current selection)")),
		mcp.WithNumber("x", mcp.Description("X position (optional, auto-layout if omitted)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, auto-layout if omitted)")),
	), s.handleGenerateImage)
}

func (s *Server) handleGenerateImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	prompt := req.GetString("prompt", "")
	if prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	ids := splitIDs(req.GetString("contextImageIds", ""))
	if len(ids) == 0 {
		ids = s.wb.Scene.SelectedIDs()
	}

	var pos *domain.Position
	x, hasX := optionalNumber(args, "x")
	y, hasY := optionalNumber(args, "y")
	if hasX && hasY {
		pos = &domain.Position{X: x, Y: y}
	} else {
		// Generated images are at most MaxImageSize on a side.
		p := s.layout.NextPosition(s.wb.Scene.Images(), domain.Size{Width: domain.MaxImageSize, Height: domain.MaxImageSize})
		pos = &p
	}

	img, err := s.wb.Generation.Generate(ctx, pos, prompt, ids)
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}
	return jsonResult(summarizeImage(img))
}
