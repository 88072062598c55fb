package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"workbench/internal/config"
	"workbench/internal/domain"
	"workbench/internal/generate"
	"workbench/internal/ingest"
	"workbench/internal/scene"
)

// ─────────────────────────────────────────────────────────────
// Generation Service — prompt sessions against the backend
// ─────────────────────────────────────────────────────────────

const (
	EventGenerateStarted = "generate:started"
	EventGenerateDone    = "generate:done"
	EventGenerateError   = "generate:error"
)

var (
	ErrSessionClosed = errors.New("generation session is closed")
	ErrBusy          = errors.New("a generation request is already running for this session")
)

// GenerationEvent is the payload of every generate:* event.
type GenerationEvent struct {
	SessionID       string   `json:"sessionId"`
	ImageID         string   `json:"imageId,omitempty"`
	ContextImageIDs []string `json:"contextImageIds,omitempty"`
	Error           string   `json:"error,omitempty"`
}

type genSession struct {
	id       string
	position *domain.Position // nil: default random placement
	open     bool
}

// GenerationService owns generation sessions. A session mirrors the prompt
// dialog: it remembers where the result goes and allows one request at a
// time.
type GenerationService struct {
	store       *scene.Store
	client      generate.Generator
	emitter     EventEmitter
	temperature float64
	late        config.LatePolicy
	inflight    inflightGuard
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*genSession
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(store *scene.Store, client generate.Generator, emitter EventEmitter, cfg config.Config) *GenerationService {
	late := cfg.LateResults
	if late == "" {
		late = config.LateDiscard
	}
	return &GenerationService{
		store:       store,
		client:      client,
		emitter:     emitter,
		temperature: cfg.Temperature,
		late:        late,
		now:         time.Now,
		sessions:    make(map[string]*genSession),
	}
}

// Open starts a session whose result will be placed at pos, or at a random
// default position when pos is nil.
func (s *GenerationService) Open(pos *domain.Position) string {
	return s.open(pos).id
}

func (s *GenerationService) open(pos *domain.Position) *genSession {
	sess := &genSession{id: uuid.New().String(), open: true}
	if pos != nil {
		p := *pos
		sess.position = &p
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess
}

// Close ends a session. A request still in flight is handled per the late
// result policy when it returns.
func (s *GenerationService) Close(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		sess.open = false
		delete(s.sessions, sessionID)
	}
}

// IsOpen reports whether the session still exists.
func (s *GenerationService) IsOpen(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionID]
	return ok
}

// Pending reports whether the session has a request outstanding.
func (s *GenerationService) Pending(sessionID string) bool {
	return s.inflight.Busy(sessionID)
}

// Submit captures the current selection as context and sends prompt to the
// backend in the background. Validation, closed sessions and a request
// already in flight are reported synchronously; everything after that is
// reported through generate:* events.
func (s *GenerationService) Submit(ctx context.Context, sessionID, prompt string) error {
	req := generate.Request{Prompt: prompt, Settings: generate.Settings{Temperature: s.temperature}}
	if err := req.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return ErrSessionClosed
	}
	if !s.inflight.TryLock(sessionID) {
		return ErrBusy
	}

	contextImages := s.lookup(s.store.SelectedIDs())
	go func() {
		defer s.inflight.Unlock(sessionID)
		s.run(ctx, sess, req, contextImages)
	}()
	return nil
}

// Generate runs a one-shot request synchronously with explicit context
// images, for callers without a dialog. Unknown ids are skipped.
func (s *GenerationService) Generate(ctx context.Context, pos *domain.Position, prompt string, contextIDs []string) (domain.CanvasImage, error) {
	req := generate.Request{Prompt: prompt, Settings: generate.Settings{Temperature: s.temperature}}
	if err := req.Validate(); err != nil {
		return domain.CanvasImage{}, err
	}
	sess := s.open(pos)
	defer s.Close(sess.id)
	if !s.inflight.TryLock(sess.id) {
		return domain.CanvasImage{}, ErrBusy
	}
	defer s.inflight.Unlock(sess.id)
	return s.run(ctx, sess, req, s.lookup(contextIDs))
}

func (s *GenerationService) lookup(ids []string) []domain.CanvasImage {
	var out []domain.CanvasImage
	for _, id := range ids {
		if img, err := s.store.Image(id); err == nil {
			out = append(out, img)
		}
	}
	return out
}

// run performs one request and inserts the result. A result discarded under
// the late policy yields ErrSessionClosed.
func (s *GenerationService) run(ctx context.Context, sess *genSession, req generate.Request, contextImages []domain.CanvasImage) (domain.CanvasImage, error) {
	ids := make([]string, len(contextImages))
	for i, img := range contextImages {
		ids[i] = img.ID
	}
	s.emitter.Emit(ctx, EventGenerateStarted, GenerationEvent{SessionID: sess.id, ContextImageIDs: ids})

	fail := func(err error) (domain.CanvasImage, error) {
		log.Printf("[Generate] session %s: %v", sess.id, err)
		s.emitter.Emit(ctx, EventGenerateError, GenerationEvent{SessionID: sess.id, Error: err.Error()})
		return domain.CanvasImage{}, err
	}

	encoded, err := encodeContextImages(ctx, contextImages)
	if err != nil {
		return fail(err)
	}
	req.ContextImages = encoded

	resp, err := s.client.Generate(ctx, req)
	if err != nil {
		return fail(err)
	}

	if !s.accepts(sess) {
		return s.discard(sess)
	}

	url := resp.Image
	if !ingest.IsDataURL(url) {
		url = "data:image/png;base64," + url
	}
	// Checked again at insertion: a Close during decode still discards.
	opts := []scene.AddOption{
		scene.WithGate(func() bool { return s.accepts(sess) }),
		scene.WithGenerationContext(domain.GenerationContext{
			Prompt:          req.Prompt,
			ContextImageIDs: ids,
			Timestamp:       s.now(),
		}),
	}
	if sess.position != nil {
		opts = append(opts, scene.WithPosition(*sess.position))
	}
	img, err := s.store.Add(ctx, ingest.FromURL(url), opts...)
	if errors.Is(err, scene.ErrRejected) {
		return s.discard(sess)
	}
	if err != nil {
		return fail(fmt.Errorf("insert generated image: %w", err))
	}

	s.Close(sess.id)
	s.emitter.Emit(ctx, EventGenerateDone, GenerationEvent{SessionID: sess.id, ImageID: img.ID, ContextImageIDs: ids})
	return img, nil
}

// accepts reports whether a result for sess may still be inserted.
func (s *GenerationService) accepts(sess *genSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sess.open || s.late != config.LateDiscard
}

func (s *GenerationService) discard(sess *genSession) (domain.CanvasImage, error) {
	log.Printf("[Generate] session %s closed before the result arrived, discarding", sess.id)
	return domain.CanvasImage{}, ErrSessionClosed
}

// encodeContextImages prepares every context image in parallel, keeping the
// selection order.
func encodeContextImages(ctx context.Context, images []domain.CanvasImage) ([]string, error) {
	out := make([]string, len(images))
	g, _ := errgroup.WithContext(ctx)
	for i, img := range images {
		g.Go(func() error {
			b64, err := ingest.EncodeContextPNG(img)
			if err != nil {
				return fmt.Errorf("encode context image %s: %w", img.ID, err)
			}
			out[i] = b64
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// WaitRunning blocks until all in-flight requests finish or ctx is cancelled.
// Used for graceful shutdown.
func (s *GenerationService) WaitRunning(ctx context.Context) {
	s.inflight.WaitAll(ctx)
}
