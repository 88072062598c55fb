package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	sceneURI         = "workbench://scene"
	imageURIPrefix   = "workbench://image/"
	imageURITemplate = "workbench://image/{imageId}"
)

func (s *Server) registerResources() {
	// ── workbench://scene ──────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		sceneURI,
		"Canvas Scene",
		mcp.WithResourceDescription("Images, selection, connections and viewport of the canvas"),
		mcp.WithMIMEType("application/json"),
	), s.handleSceneResource)

	// ── workbench://image/{imageId} ────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			imageURITemplate,
			"Canvas Image",
		),
		s.handleImageResource,
	)
}

func (s *Server) handleSceneResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	state := s.wb.State()
	out := map[string]any{
		"images":      summarizeImages(state.Images),
		"selectedIds": state.SelectedIDs,
		"connections": len(state.Connections),
		"viewport":    state.Viewport,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      sceneURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleImageResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := imageIDFromURI(uri)
	if id == "" {
		return nil, fmt.Errorf("could not extract imageId from URI: %s", uri)
	}
	img, err := s.wb.Scene.Image(id)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(summarizeImage(img), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// imageIDFromURI extracts the id from "workbench://image/{id}".
func imageIDFromURI(uri string) string {
	id, ok := strings.CutPrefix(uri, imageURIPrefix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
