package app

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/server"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"workbench/internal/config"
	"workbench/internal/inbox"
	"workbench/internal/ingest"
	mcpserver "workbench/internal/mcp"
	"workbench/internal/service"
)

// wailsEmitter forwards service events to the frontend.
type wailsEmitter struct{}

func (wailsEmitter) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context
	cfg config.Config

	wb    *service.Workbench
	inbox *inbox.Watcher

	// In-app MCP endpoint, nil unless mcp_addr is configured
	mcp     *mcpserver.Server
	mcpHTTP *server.StreamableHTTPServer
}

// New creates a new App.
func New() *App {
	return &App{}
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	a.cfg = config.Load()

	a.wb = service.NewWorkbench(ctx, wailsEmitter{}, a.cfg)
	if err := a.wb.Start(); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to start backend health checks: %v", err)
	}

	if a.cfg.InboxDir != "" {
		w, err := inbox.New(a.cfg.InboxDir, inbox.DefaultSettle, func(path string) {
			a.wb.Scene.AddAsync(ctx, ingest.FromPath(path))
		})
		if err != nil {
			wailsRuntime.LogErrorf(ctx, "Failed to watch inbox %s: %v", a.cfg.InboxDir, err)
		} else {
			a.inbox = w
			wailsRuntime.LogInfof(ctx, "Watching %s for new images", w.Dir())
		}
	}

	if a.cfg.MCPAddr != "" {
		a.mcp = mcpserver.New(ctx, mcpserver.Deps{
			Emitter:     wailsEmitter{},
			Workbench:   a.wb,
			Interactive: true,
		})
		a.mcpHTTP = a.mcp.StartHTTP(a.cfg.MCPAddr)
	}
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if a.mcpHTTP != nil {
		if err := a.mcpHTTP.Shutdown(ctx); err != nil {
			wailsRuntime.LogErrorf(a.ctx, "MCP shutdown: %v", err)
		}
	}
	if a.inbox != nil {
		a.inbox.Close()
	}
	if a.wb != nil {
		a.wb.Shutdown(ctx)
	}
}

// GetConfig returns the effective configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// ============================================================
// MCP approvals
// ============================================================

// ApproveMCPAction approves a pending destructive MCP action.
func (a *App) ApproveMCPAction(actionID string) {
	if a.mcp != nil {
		a.mcp.Approve(actionID)
	}
}

// RejectMCPAction rejects a pending destructive MCP action.
func (a *App) RejectMCPAction(actionID string) {
	if a.mcp != nil {
		a.mcp.Reject(actionID)
	}
}
