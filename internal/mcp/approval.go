package mcpserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventEmitter allows the approval queue to notify the frontend.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// PendingAction represents a destructive operation awaiting user approval.
type PendingAction struct {
	ID          string   `json:"id"`
	Tool        string   `json:"tool"`
	Description string   `json:"description"`
	CreatedAt   string   `json:"createdAt"`
	ImageIDs    []string `json:"imageIds,omitempty"` // highlighted while the prompt is shown
}

// actionResult is sent through the channel when user approves/rejects.
type actionResult struct {
	approved bool
}

// ApprovalQueue manages human-in-the-loop approval for destructive MCP tool calls.
// It supports two modes:
//   - Interactive (MCP inside the desktop app): the frontend is asked through
//     an event and answers through Approve/Reject.
//   - Headless (standalone MCP): nobody can answer, so the caller must have
//     confirmed explicitly or the action is refused.
type ApprovalQueue struct {
	mu          sync.Mutex
	pending     map[string]chan actionResult
	ctx         context.Context
	emitter     EventEmitter
	timeout     time.Duration
	interactive bool
}

func NewApprovalQueue(ctx context.Context, emitter EventEmitter, interactive bool) *ApprovalQueue {
	return &ApprovalQueue{
		pending:     make(map[string]chan actionResult),
		ctx:         ctx,
		emitter:     emitter,
		timeout:     120 * time.Second,
		interactive: interactive,
	}
}

// Request asks for approval and blocks until approved, rejected or timed out.
// confirmed is the caller's explicit confirm flag, honoured only in headless
// mode.
func (q *ApprovalQueue) Request(tool, description string, confirmed bool, imageIDs ...string) (bool, error) {
	if !q.interactive {
		if !confirmed {
			return false, fmt.Errorf("%s needs confirm=true when no user is attached", tool)
		}
		return true, nil
	}

	id := uuid.New().String()
	ch := make(chan actionResult, 1)

	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()
	defer q.cleanup(id)

	q.emitter.Emit(q.ctx, EventApprovalRequired, PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		ImageIDs:    imageIDs,
	})

	timer := time.NewTimer(q.timeout)
	defer timer.Stop()

	select {
	case result := <-ch:
		if !result.approved {
			return false, fmt.Errorf("action rejected by user: %s", tool)
		}
		return true, nil
	case <-timer.C:
		q.emitter.Emit(q.ctx, EventApprovalDismissed, map[string]string{"id": id})
		return false, fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
	case <-q.ctx.Done():
		return false, fmt.Errorf("context cancelled")
	}
}

// Approve marks a pending action as approved.
func (q *ApprovalQueue) Approve(actionID string) {
	q.resolve(actionID, true)
}

// Reject marks a pending action as rejected.
func (q *ApprovalQueue) Reject(actionID string) {
	q.resolve(actionID, false)
}

func (q *ApprovalQueue) resolve(actionID string, approved bool) {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	q.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- actionResult{approved: approved}:
	default: // already answered
	}
}

// Pending returns the ids of actions still waiting for an answer.
func (q *ApprovalQueue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	ids := make([]string, 0, len(q.pending))
	for id := range q.pending {
		ids = append(ids, id)
	}
	return ids
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
