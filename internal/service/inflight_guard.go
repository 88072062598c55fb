package service

import (
	"context"
	"sync"
)

// ExportedInflightGuard lets the external test package exercise the guard.
type ExportedInflightGuard = inflightGuard

// ─────────────────────────────────────────────────────────────
// inflightGuard — one backend request per generation session
// ─────────────────────────────────────────────────────────────

// inflightGuard tracks which sessions have a request outstanding. The zero
// value is ready to use.
type inflightGuard struct {
	mu       sync.Mutex
	sessions map[string]struct{}
	wg       sync.WaitGroup
}

// TryLock claims sessionID. It returns false if a request for that session
// is already outstanding.
func (g *inflightGuard) TryLock(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sessions == nil {
		g.sessions = make(map[string]struct{})
	}
	if _, busy := g.sessions[sessionID]; busy {
		return false
	}
	g.sessions[sessionID] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases a session claimed by a successful TryLock.
func (g *inflightGuard) Unlock(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, sessionID)
	g.wg.Done()
}

// Busy reports whether sessionID has a request outstanding.
func (g *inflightGuard) Busy(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.sessions[sessionID]
	return busy
}

// WaitAll blocks until every outstanding request finishes or ctx is done.
func (g *inflightGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
