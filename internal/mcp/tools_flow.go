package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"workbench/internal/domain"
	"workbench/internal/render"
)

func (s *Server) registerFlowTools() {
	// ── list_connections ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_connections",
		mcp.WithDescription("List derivation connections: which images were used as context to generate which"),
	), s.handleListConnections)

	// ── set_flow_visible ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_flow_visible",
		mcp.WithDescription("Show or hide the animated derivation connections"),
		mcp.WithBoolean("visible", mcp.Description("true to show, false to hide"), mcp.Required()),
	), s.handleSetFlowVisible)

	// ── get_viewport ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_viewport",
		mcp.WithDescription("Get zoom, pan offset, active tool and interaction mode"),
	), s.handleGetViewport)

	// ── export_snapshot ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("export_snapshot",
		mcp.WithDescription("Render the canvas to a PNG. Writes it to path when given, otherwise returns the image."),
		mcp.WithString("path", mcp.Description("Output file path (optional)")),
		mcp.WithNumber("scale", mcp.Description("Output pixels per canvas unit (default 1)")),
		mcp.WithBoolean("selectedOnly", mcp.Description("Only render selected images (default false)")),
	), s.handleExportSnapshot)
}

func (s *Server) handleListConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type connectionSummary struct {
		ID       string `json:"id"`
		SourceID string `json:"sourceId"`
		TargetID string `json:"targetId"`
		Prompt   string `json:"prompt"`
		Path     string `json:"svgPath"`
	}
	conns := s.wb.Flow.Connections()
	out := make([]connectionSummary, len(conns))
	for i, c := range conns {
		out[i] = connectionSummary{ID: c.ID, SourceID: c.SourceID, TargetID: c.TargetID, Prompt: c.Prompt, Path: c.SVGPath}
	}
	return jsonResult(out)
}

func (s *Server) handleSetFlowVisible(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	visible := req.GetBool("visible", true)
	s.wb.SetFlowVisible(visible)
	return textResult(fmt.Sprintf("Flow connections visible: %t", visible)), nil
}

func (s *Server) handleGetViewport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.wb.Viewport.State())
}

func (s *Server) handleExportSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := render.DefaultOptions()
	if scale, ok := optionalNumber(req.GetArguments(), "scale"); ok && scale > 0 {
		opts.Scale = scale
	}

	images := s.wb.Scene.Images()
	conns := s.wb.Flow.Connections()
	if req.GetBool("selectedOnly", false) {
		var sel []domain.CanvasImage
		keep := make(map[string]bool)
		for _, img := range images {
			if img.Selected {
				sel = append(sel, img)
				keep[img.ID] = true
			}
		}
		images = sel
		var kept []domain.Connection
		for _, c := range conns {
			if keep[c.SourceID] && keep[c.TargetID] {
				kept = append(kept, c)
			}
		}
		conns = kept
		opts.ShowSelection = false
	}

	data, err := render.Snapshot(images, conns, opts)
	if err != nil {
		return nil, fmt.Errorf("export snapshot: %w", err)
	}

	if path := req.GetString("path", ""); path != "" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("write snapshot: %w", err)
		}
		return textResult(fmt.Sprintf("Snapshot written to %s (%d bytes)", path, len(data))), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewImageContent(base64.StdEncoding.EncodeToString(data), "image/png"),
		},
	}, nil
}
