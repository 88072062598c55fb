package service

import (
	"context"

	"workbench/internal/config"
	"workbench/internal/domain"
	"workbench/internal/flow"
	"workbench/internal/generate"
	"workbench/internal/ingest"
	"workbench/internal/scene"
	"workbench/internal/viewport"
)

// ─────────────────────────────────────────────────────────────
// Workbench — the owned state of one running session
// ─────────────────────────────────────────────────────────────

const EventSceneChanged = "scene:changed"

// SceneChange is the scene:changed payload. Viewport state travels
// separately on viewport:changed.
type SceneChange struct {
	Images      []domain.CanvasImage `json:"images"`
	SelectedIDs []string             `json:"selectedIds"`
}

// Backend is the generation service as the workbench uses it.
type Backend interface {
	generate.Generator
	HealthChecker
}

// Workbench wires the scene, viewport, flow animation and generation
// together. It is built once at startup and torn down by Shutdown.
type Workbench struct {
	ctx     context.Context
	emitter EventEmitter
	cfg     config.Config

	Scene      *scene.Store
	Viewport   *viewport.Controller
	Flow       *flow.Animator
	Generation *GenerationService
	Health     *HealthService
}

// NewWorkbench builds a workbench talking to the configured backend.
func NewWorkbench(ctx context.Context, emitter EventEmitter, cfg config.Config) *Workbench {
	return NewWorkbenchWith(ctx, emitter, cfg, ingest.NewService(), generate.NewClient(cfg.APIURL, cfg.RequestTimeout))
}

// NewWorkbenchWith builds a workbench from explicit collaborators.
func NewWorkbenchWith(ctx context.Context, emitter EventEmitter, cfg config.Config, decoder ingest.Decoder, backend Backend) *Workbench {
	store := scene.NewStore(decoder)
	w := &Workbench{
		ctx:        ctx,
		emitter:    emitter,
		cfg:        cfg,
		Scene:      store,
		Viewport:   viewport.NewController(ctx, store, emitter, viewportConfig(cfg)),
		Flow:       flow.NewAnimator(ctx, emitter),
		Generation: NewGenerationService(store, backend, emitter, cfg),
		Health:     NewHealthService(backend, emitter),
	}
	// Runs after the store unlocks, possibly while the controller holds its
	// own lock, so it must not touch the controller.
	store.OnChange(func() {
		images := store.Images()
		w.Flow.Sync(images)
		emitter.Emit(ctx, EventSceneChanged, SceneChange{Images: images, SelectedIDs: store.SelectedIDs()})
	})
	return w
}

func viewportConfig(cfg config.Config) viewport.Config {
	vc := viewport.DefaultConfig()
	if cfg.ResizeHandles == string(viewport.HandlesAll) {
		vc.Handles = viewport.HandlesAll
	}
	if cfg.HandleRadius > 0 {
		vc.HandleRadius = cfg.HandleRadius
	}
	return vc
}

// Start begins background work that outlives a single call.
func (w *Workbench) Start() error {
	return w.Health.Start(w.ctx, w.cfg.HealthInterval)
}

// State returns the full render payload.
func (w *Workbench) State() domain.SceneState {
	return domain.SceneState{
		Images:              w.Scene.Images(),
		SelectedIDs:         w.Scene.SelectedIDs(),
		Viewport:            w.Viewport.State(),
		Connections:         w.Flow.Connections(),
		ShowFlowConnections: w.Flow.Visible(),
	}
}

// SetFlowVisible toggles the connection overlay and its animation.
func (w *Workbench) SetFlowVisible(visible bool) {
	w.Flow.SetVisible(visible, w.Scene.Images())
}

// OpenGenerate starts a generation session anchored at the last context
// menu position, if there was one.
func (w *Workbench) OpenGenerate() string {
	if p, ok := w.Viewport.ContextPosition(); ok {
		return w.Generation.Open(&p)
	}
	return w.Generation.Open(nil)
}

// Shutdown stops the animation and health schedule, then waits for pending
// decodes and generation requests until ctx expires.
func (w *Workbench) Shutdown(ctx context.Context) {
	w.Flow.Stop()
	w.Health.Stop()
	w.Generation.WaitRunning(ctx)
	w.Scene.Wait(ctx)
}
