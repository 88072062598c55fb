package service_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"workbench/internal/config"
	"workbench/internal/domain"
	"workbench/internal/generate"
	"workbench/internal/ingest"
	"workbench/internal/service"
)

// ─────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// fakeBackend answers with a fixed image once release is closed.
type fakeBackend struct {
	mu      sync.Mutex
	image   string
	err     error
	release chan struct{}
	reqs    []generate.Request
}

func (f *fakeBackend) Generate(ctx context.Context, req generate.Request) (*generate.Response, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &generate.Response{Success: true, Image: f.image}, nil
}

func (f *fakeBackend) Health(context.Context) (*generate.Health, error) {
	return &generate.Health{Status: "healthy"}, nil
}

func (f *fakeBackend) requests() []generate.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]generate.Request(nil), f.reqs...)
}

func newBench(t *testing.T, backend *fakeBackend, late config.LatePolicy) (*service.Workbench, *service.MockEmitter) {
	t.Helper()
	cfg := config.Default()
	cfg.LateResults = late
	em := &service.MockEmitter{}
	wb := service.NewWorkbenchWith(context.Background(), em, cfg, ingest.NewService(), backend)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		wb.Shutdown(ctx)
	})
	return wb, em
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// ─────────────────────────────────────────────────────────────
// GenerationService tests
// ─────────────────────────────────────────────────────────────

func TestGeneration_InsertsResultWithContext(t *testing.T) {
	backend := &fakeBackend{image: base64.StdEncoding.EncodeToString(pngBytes(t, 64, 32))}
	wb, em := newBench(t, backend, config.LateDiscard)
	ctx := context.Background()

	src, err := wb.Scene.Add(ctx, ingest.FromBytes(pngBytes(t, 10, 10)))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	wb.Scene.Select(src.ID, false)

	pos := domain.Position{X: 700, Y: 300}
	sid := wb.Generation.Open(&pos)
	if err := wb.Generation.Submit(ctx, sid, "make it blue"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitFor(t, func() bool { return len(em.Named(service.EventGenerateDone)) == 1 })

	if wb.Scene.Len() != 2 {
		t.Fatalf("expected the generated image to be inserted, have %d", wb.Scene.Len())
	}
	done := em.Named(service.EventGenerateDone)[0].Data.(service.GenerationEvent)
	gen, err := wb.Scene.Image(done.ImageID)
	if err != nil {
		t.Fatalf("generated image: %v", err)
	}
	if gen.Position != pos {
		t.Errorf("position got %v, want %v", gen.Position, pos)
	}
	if gen.GenerationContext == nil || gen.GenerationContext.Prompt != "make it blue" {
		t.Fatalf("generation context got %+v", gen.GenerationContext)
	}
	if ids := gen.GenerationContext.ContextImageIDs; len(ids) != 1 || ids[0] != src.ID {
		t.Errorf("context ids got %v", ids)
	}
	if gen.NaturalSize.Width != 64 || gen.NaturalSize.Height != 32 {
		t.Errorf("natural size got %+v", gen.NaturalSize)
	}

	reqs := backend.requests()
	if len(reqs) != 1 || len(reqs[0].ContextImages) != 1 || reqs[0].Settings.Temperature != 0.8 {
		t.Errorf("backend request got %+v", reqs)
	}
	if wb.Generation.IsOpen(sid) {
		t.Error("a successful generation closes its session")
	}
	if conns := wb.Flow.Connections(); len(conns) != 1 || conns[0].TargetID != gen.ID {
		t.Errorf("expected a flow connection into the generated image, got %+v", conns)
	}
}

func TestGeneration_FailureAddsNothing(t *testing.T) {
	backend := &fakeBackend{err: errors.New("quota exceeded")}
	wb, em := newBench(t, backend, config.LateDiscard)

	sid := wb.Generation.Open(nil)
	if err := wb.Generation.Submit(context.Background(), sid, "anything"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitFor(t, func() bool { return len(em.Named(service.EventGenerateError)) == 1 })

	ev := em.Named(service.EventGenerateError)[0].Data.(service.GenerationEvent)
	if ev.Error != "quota exceeded" {
		t.Errorf("error got %q", ev.Error)
	}
	if wb.Scene.Len() != 0 {
		t.Error("a failed generation must not add an image")
	}
	if !wb.Generation.IsOpen(sid) {
		t.Error("a failed generation keeps its session open for retry")
	}
}

func TestGeneration_SubmitPreconditions(t *testing.T) {
	backend := &fakeBackend{image: "x", release: make(chan struct{})}
	wb, _ := newBench(t, backend, config.LateDiscard)
	ctx := context.Background()

	if err := wb.Generation.Submit(ctx, "nope", "prompt"); !errors.Is(err, service.ErrSessionClosed) {
		t.Errorf("unknown session: got %v", err)
	}
	sid := wb.Generation.Open(nil)
	if err := wb.Generation.Submit(ctx, sid, "  "); !errors.Is(err, generate.ErrInvalidRequest) {
		t.Errorf("blank prompt: got %v", err)
	}
	if err := wb.Generation.Submit(ctx, sid, "first"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if err := wb.Generation.Submit(ctx, sid, "second"); !errors.Is(err, service.ErrBusy) {
		t.Errorf("second submit while running: got %v", err)
	}
	close(backend.release)
}

func TestGeneration_LateResultPolicy(t *testing.T) {
	tests := []struct {
		policy config.LatePolicy
		want   int
	}{
		{config.LateDiscard, 0},
		{config.LateInsert, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			backend := &fakeBackend{
				image:   base64.StdEncoding.EncodeToString(pngBytes(t, 8, 8)),
				release: make(chan struct{}),
			}
			wb, _ := newBench(t, backend, tt.policy)
			ctx := context.Background()

			sid := wb.Generation.Open(nil)
			if err := wb.Generation.Submit(ctx, sid, "late"); err != nil {
				t.Fatalf("submit: %v", err)
			}
			waitFor(t, func() bool { return len(backend.requests()) == 1 })
			wb.Generation.Close(sid)
			close(backend.release)

			wctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			wb.Generation.WaitRunning(wctx)

			if got := wb.Scene.Len(); got != tt.want {
				t.Errorf("images after late result: got %d, want %d", got, tt.want)
			}
		})
	}
}

// holdDecoder blocks every decode until release is closed, signalling on
// entered first.
type holdDecoder struct {
	inner   ingest.Decoder
	entered chan struct{}
	release chan struct{}
}

func (d *holdDecoder) Decode(ctx context.Context, src ingest.Source) (*ingest.Decoded, error) {
	d.entered <- struct{}{}
	<-d.release
	return d.inner.Decode(ctx, src)
}

func TestGeneration_CloseDuringInsertion(t *testing.T) {
	tests := []struct {
		policy config.LatePolicy
		want   int
	}{
		{config.LateDiscard, 0},
		{config.LateInsert, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			backend := &fakeBackend{image: base64.StdEncoding.EncodeToString(pngBytes(t, 8, 8))}
			dec := &holdDecoder{inner: ingest.NewService(), entered: make(chan struct{}, 1), release: make(chan struct{})}
			cfg := config.Default()
			cfg.LateResults = tt.policy
			em := &service.MockEmitter{}
			wb := service.NewWorkbenchWith(context.Background(), em, cfg, dec, backend)
			ctx := context.Background()

			sid := wb.Generation.Open(nil)
			if err := wb.Generation.Submit(ctx, sid, "late"); err != nil {
				t.Fatalf("submit: %v", err)
			}
			// The backend has answered and the result is being decoded.
			select {
			case <-dec.entered:
			case <-time.After(2 * time.Second):
				t.Fatal("result never reached the decoder")
			}
			wb.Generation.Close(sid)
			close(dec.release)

			waitFor(t, func() bool { return !wb.Generation.Pending(sid) })
			if got := wb.Scene.Len(); got != tt.want {
				t.Errorf("images after close during insertion: got %d, want %d", got, tt.want)
			}
			if got := len(em.Named(service.EventGenerateDone)); got != tt.want {
				t.Errorf("done events: got %d, want %d", got, tt.want)
			}
			if got := len(em.Named(service.EventGenerateError)); got != 0 {
				t.Errorf("a discarded result is not an error, got %d error events", got)
			}

			sctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			wb.Shutdown(sctx)
		})
	}
}

func TestGeneration_GenerateSync(t *testing.T) {
	backend := &fakeBackend{image: base64.StdEncoding.EncodeToString(pngBytes(t, 16, 16))}
	wb, _ := newBench(t, backend, config.LateDiscard)
	ctx := context.Background()

	a, _ := wb.Scene.Add(ctx, ingest.FromBytes(pngBytes(t, 10, 10)))
	img, err := wb.Generation.Generate(ctx, nil, "variation", []string{a.ID, "missing"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if ids := img.GenerationContext.ContextImageIDs; len(ids) != 1 || ids[0] != a.ID {
		t.Errorf("context ids got %v", ids)
	}
	if len(wb.Scene.SelectedIDs()) != 0 {
		t.Error("explicit context ids must not touch the selection")
	}
}
