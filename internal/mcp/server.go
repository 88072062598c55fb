package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"workbench/internal/domain"
	"workbench/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for the workbench.
// It exposes tools, resources, and prompts so AI agents can work on the canvas.
type Server struct {
	mcp      *server.MCPServer
	ctx      context.Context
	emitter  EventEmitter
	approval *ApprovalQueue
	layout   *LayoutEngine
	wb       *service.Workbench
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter   EventEmitter
	Workbench *service.Workbench
	// Interactive is set when a frontend can answer approval prompts.
	Interactive bool
}

// New creates and configures a new MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	s := &Server{
		ctx:      ctx,
		emitter:  deps.Emitter,
		approval: NewApprovalQueue(ctx, deps.Emitter, deps.Interactive),
		layout:   NewLayoutEngine(),
		wb:       deps.Workbench,
	}

	s.mcp = server.NewMCPServer(
		"workbench-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerImageTools()
	s.registerCropTools()
	s.registerFlowTools()
	s.registerGenerateTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// StartHTTP serves the streamable HTTP transport on addr in the background.
// The caller shuts the returned server down.
func (s *Server) StartHTTP(addr string) *server.StreamableHTTPServer {
	httpSrv := server.NewStreamableHTTPServer(s.mcp)
	go func() {
		log.Printf("[MCP] Listening on http://%s/mcp", addr)
		if err := httpSrv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[MCP] HTTP server error: %v", err)
		}
	}()
	return httpSrv
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	s.approval.Reject(actionID)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(v bool) *bool { return &v }

// splitIDs parses a comma-separated id list.
func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

// getImageForTool retrieves an image and validates it exists.
func (s *Server) getImageForTool(args map[string]any) (domain.CanvasImage, error) {
	id, _ := args["imageId"].(string)
	if id == "" {
		return domain.CanvasImage{}, fmt.Errorf("imageId is required")
	}
	return s.wb.Scene.Image(id)
}

// optionalNumber returns args[key] when it was supplied as a number.
func optionalNumber(args map[string]any, key string) (float64, bool) {
	v, ok := args[key].(float64)
	return v, ok
}
