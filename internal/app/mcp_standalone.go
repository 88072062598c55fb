package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workbench/internal/config"
	mcpserver "workbench/internal/mcp"
	"workbench/internal/service"
)

// noopEmitter is a no-op EventEmitter used in MCP-only mode (no Wails frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// The canvas lives in memory for the lifetime of the process.
func ServeMCP() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	emitter := noopEmitter{}

	wb := service.NewWorkbench(ctx, emitter, cfg)
	if err := wb.Start(); err != nil {
		log.Printf("[MCP] health checks disabled: %v", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		wb.Shutdown(shutdownCtx)
	}()

	// Nobody can answer approval prompts here; destructive tools need confirm=true.
	mcpSrv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter:   emitter,
		Workbench: wb,
	})

	log.Println("[MCP] Starting standalone stdio server...")
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
