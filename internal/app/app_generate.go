package app

import (
	"workbench/internal/service"
)

// ============================================================
// Generation
// ============================================================

// OpenGenerate opens a prompt session. The generated image is placed at the
// last context-menu position when there is one.
func (a *App) OpenGenerate() string {
	return a.wb.OpenGenerate()
}

// SubmitGenerate sends the prompt with the current selection as context.
// Progress and results arrive as generate:* events.
func (a *App) SubmitGenerate(sessionID, prompt string) error {
	return a.wb.Generation.Submit(a.ctx, sessionID, prompt)
}

// CloseGenerate closes a prompt session.
func (a *App) CloseGenerate(sessionID string) {
	a.wb.Generation.Close(sessionID)
}

// GetBackendStatus returns the last health check result, running one if
// none has happened yet.
func (a *App) GetBackendStatus() service.BackendStatus {
	if st, ok := a.wb.Health.Status(); ok {
		return st
	}
	return a.wb.Health.Check(a.ctx)
}

// CheckBackend forces a health check.
func (a *App) CheckBackend() service.BackendStatus {
	return a.wb.Health.Check(a.ctx)
}

// IsGenerating reports whether a session is waiting on the backend.
func (a *App) IsGenerating(sessionID string) bool {
	return a.wb.Generation.Pending(sessionID)
}
