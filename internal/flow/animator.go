package flow

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/samber/lo"

	"workbench/internal/domain"
	"workbench/internal/geometry"
)

const (
	TickInterval    = 50 * time.Millisecond // about 20 frames per second
	ProgressPerTick = 0.015
	MaxParticles    = 3 // per connection
	SpawnAfter      = 1.0 / 3
	fadeFraction    = 0.1
)

const (
	EventFrame       = "flow:frame"
	EventConnections = "flow:connections"
)

// EventEmitter is the subset of the app's emitter the animator needs.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Frame is one animation step as sent to the frontend.
type Frame struct {
	Particles []domain.Particle `json:"particles"`
}

// ─────────────────────────────────────────────────────────────
// Animator — particles travelling along derivation connections
// ─────────────────────────────────────────────────────────────

// Animator keeps the derived connection set and drives particles along it.
// The ticker runs only while flows are visible and at least one connection
// exists.
type Animator struct {
	mu          sync.Mutex
	ctx         context.Context
	emitter     EventEmitter
	visible     bool
	connections []domain.Connection
	particles   []domain.Particle
	nextID      int

	// ticker lifecycle; lifecycle serializes start and stop decisions and is
	// taken before mu
	lifecycle sync.Mutex
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func NewAnimator(ctx context.Context, emitter EventEmitter) *Animator {
	return &Animator{ctx: ctx, emitter: emitter, visible: true}
}

// Sync re-derives connections from images and starts or stops the ticker.
func (a *Animator) Sync(images []domain.CanvasImage) {
	a.mu.Lock()
	a.connections = Derive(images, a.visible)
	a.pruneLocked()
	conns := a.connections
	a.mu.Unlock()

	a.emit(EventConnections, conns)
	a.reconcile()
}

// SetVisible toggles the flow overlay.
func (a *Animator) SetVisible(visible bool, images []domain.CanvasImage) {
	a.mu.Lock()
	a.visible = visible
	a.mu.Unlock()
	a.Sync(images)
}

func (a *Animator) Visible() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.visible
}

func (a *Animator) Connections() []domain.Connection {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Connection(nil), a.connections...)
}

func (a *Animator) Particles() []domain.Particle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Particle(nil), a.particles...)
}

// pruneLocked drops particles whose connection disappeared, and all of them
// once nothing is animating.
func (a *Animator) pruneLocked() {
	if !a.visible || len(a.connections) == 0 {
		a.particles = nil
		return
	}
	live := lo.SliceToMap(a.connections, func(c domain.Connection) (string, bool) { return c.ID, true })
	a.particles = lo.Filter(a.particles, func(p domain.Particle, _ int) bool { return live[p.ConnectionID] })
}

// Opacity fades a particle in over the first tenth of its trip and out over
// the last tenth.
func Opacity(progress float64) float64 {
	switch {
	case progress < fadeFraction:
		return progress / fadeFraction
	case progress > 1-fadeFraction:
		return (1 - progress) / fadeFraction
	default:
		return 1
	}
}

// Tick advances every particle one step, retires finished ones and spawns
// new ones on connections that have room.
func (a *Animator) Tick() Frame {
	a.mu.Lock()
	defer a.mu.Unlock()

	paths := lo.SliceToMap(a.connections, func(c domain.Connection) (string, domain.BezierPath) { return c.ID, c.Path })

	next := a.particles[:0]
	for _, p := range a.particles {
		p.Progress += ProgressPerTick
		if p.Progress > 1 {
			continue
		}
		p.Opacity = Opacity(p.Progress)
		next = append(next, p)
	}
	a.particles = next

	for _, c := range a.connections {
		var (
			count  int
			newest *domain.Particle
		)
		for i := range a.particles {
			if a.particles[i].ConnectionID == c.ID {
				count++
				newest = &a.particles[i]
			}
		}
		if count >= MaxParticles || (newest != nil && newest.Progress <= SpawnAfter) {
			continue
		}
		a.nextID++
		a.particles = append(a.particles, domain.Particle{
			ID:           c.ID + "-" + strconv.Itoa(a.nextID),
			ConnectionID: c.ID,
		})
	}

	frame := Frame{Particles: make([]domain.Particle, len(a.particles))}
	for i, p := range a.particles {
		p.Position = geometry.SampleAt(paths[p.ConnectionID], p.Progress)
		a.particles[i].Position = p.Position
		frame.Particles[i] = p
	}
	return frame
}

// reconcile starts the ticker when there is something to animate and stops
// it otherwise. Both directions are idempotent.
func (a *Animator) reconcile() {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	a.mu.Lock()
	want := a.visible && len(a.connections) > 0
	running := a.stopCh != nil
	a.mu.Unlock()

	switch {
	case want && !running:
		a.start()
	case !want && running:
		a.stop()
	}
}

// Running reports whether the ticker goroutine is active.
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopCh != nil
}

func (a *Animator) start() {
	a.mu.Lock()
	if a.stopCh != nil {
		a.mu.Unlock()
		return
	}
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	a.stopCh, a.doneCh = stopCh, doneCh
	a.mu.Unlock()

	log.Println("[Flow] animation started")
	go a.loop(stopCh, doneCh)
}

func (a *Animator) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.emit(EventFrame, a.Tick())
		}
	}
}

// Stop halts the ticker, waits for its goroutine and clears all particles.
func (a *Animator) Stop() {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()
	a.stop()
}

func (a *Animator) stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.particles = nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
	log.Println("[Flow] animation stopped")
}

func (a *Animator) emit(event string, data any) {
	if a.emitter != nil {
		a.emitter.Emit(a.ctx, event, data)
	}
}
