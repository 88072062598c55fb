package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"workbench/internal/config"
	"workbench/internal/domain"
	"workbench/internal/generate"
	"workbench/internal/ingest"
	"workbench/internal/service"
)

// ─────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type stubBackend struct {
	image string
}

func (b *stubBackend) Generate(context.Context, generate.Request) (*generate.Response, error) {
	return &generate.Response{Success: true, Image: b.image}, nil
}

func (b *stubBackend) Health(context.Context) (*generate.Health, error) {
	return &generate.Health{Status: "healthy"}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	em := &service.MockEmitter{}
	backend := &stubBackend{image: base64.StdEncoding.EncodeToString(pngData(t, 200, 200))}
	wb := service.NewWorkbenchWith(ctx, em, config.Default(), ingest.NewService(), backend)
	t.Cleanup(func() {
		sctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		wb.Shutdown(sctx)
	})
	return New(ctx, Deps{Emitter: em, Workbench: wb})
}

func callReq(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func addImage(t *testing.T, s *Server, w, h int) imageSummary {
	t.Helper()
	url := ingest.DataURL("image/png", pngData(t, w, h))
	res, err := s.handleAddImage(context.Background(), callReq(map[string]any{"url": url}))
	if err != nil {
		t.Fatalf("add_image: %v", err)
	}
	var sum imageSummary
	if err := json.Unmarshal([]byte(resultText(t, res)), &sum); err != nil {
		t.Fatal(err)
	}
	return sum
}

// ─────────────────────────────────────────────────────────────
// Tools
// ─────────────────────────────────────────────────────────────

func TestAddImage_AutoLayout(t *testing.T) {
	s := newTestServer(t)

	a := addImage(t, s, 800, 400)
	if a.Width != 400 || a.Height != 200 {
		t.Errorf("expected 400x200 display size, got %.0fx%.0f", a.Width, a.Height)
	}
	if a.X != 0 || a.Y != 0 {
		t.Errorf("first image should land at the origin, got (%.0f, %.0f)", a.X, a.Y)
	}

	b := addImage(t, s, 100, 100)
	overlapX := b.X < a.X+a.Width+Padding && b.X+b.Width+Padding > a.X
	overlapY := b.Y < a.Y+a.Height+Padding && b.Y+b.Height+Padding > a.Y
	if overlapX && overlapY {
		t.Errorf("second image at (%.0f, %.0f) overlaps the first", b.X, b.Y)
	}
	if s.wb.Scene.Len() != 2 {
		t.Errorf("expected 2 images, got %d", s.wb.Scene.Len())
	}
}

func TestAddImage_RequiresSource(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.handleAddImage(context.Background(), callReq(map[string]any{})); err == nil {
		t.Error("expected error without path or url")
	}
}

func TestDeleteImages_HeadlessNeedsConfirm(t *testing.T) {
	s := newTestServer(t)
	a := addImage(t, s, 50, 50)

	res, err := s.handleDeleteImages(context.Background(), callReq(map[string]any{"imageIds": a.ID}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(t, res), "confirm=true") || s.wb.Scene.Len() != 1 {
		t.Fatalf("unconfirmed delete should be refused, got %q", resultText(t, res))
	}

	res, err = s.handleDeleteImages(context.Background(), callReq(map[string]any{"imageIds": a.ID, "confirm": true}))
	if err != nil {
		t.Fatal(err)
	}
	if s.wb.Scene.Len() != 0 {
		t.Errorf("confirmed delete should remove the image: %s", resultText(t, res))
	}
}

func TestCropImage_ApplyAndRemove(t *testing.T) {
	s := newTestServer(t)
	a := addImage(t, s, 100, 100)
	ctx := context.Background()

	_, err := s.handleCropImage(ctx, callReq(map[string]any{
		"imageId": a.ID, "action": "apply",
		"x": 10.0, "y": 10.0, "width": 80.0, "height": 80.0,
	}))
	if err != nil {
		t.Fatal(err)
	}
	img, _ := s.wb.Scene.Image(a.ID)
	if !img.IsCropped || img.IsCropping || img.Size.Width != 80 || img.Size.Height != 80 {
		t.Fatalf("expected applied 80x80 crop, got %+v", img)
	}

	if _, err := s.handleCropImage(ctx, callReq(map[string]any{"imageId": a.ID, "action": "remove"})); err != nil {
		t.Fatal(err)
	}
	img, _ = s.wb.Scene.Image(a.ID)
	if img.IsCropped || img.Size.Width != 100 || img.Size.Height != 100 {
		t.Errorf("remove should restore the original size, got %+v", img.Size)
	}
}

func TestCropImage_UpdateNeedsRect(t *testing.T) {
	s := newTestServer(t)
	a := addImage(t, s, 100, 100)
	_, err := s.handleCropImage(context.Background(), callReq(map[string]any{"imageId": a.ID, "action": "update"}))
	if err == nil {
		t.Error("expected error for update without a rectangle")
	}
}

func TestClampCrop(t *testing.T) {
	frame := domain.Size{Width: 100, Height: 50}
	tests := []struct {
		name       string
		x, y, w, h float64
		want       [4]float64
	}{
		{"inside", 10, 10, 30, 30, [4]float64{10, 10, 30, 30}},
		{"too small", 0, 0, 5, 5, [4]float64{0, 0, 20, 20}},
		{"too large", -10, -10, 500, 500, [4]float64{0, 0, 100, 50}},
		{"pushed back inside", 90, 40, 30, 30, [4]float64{70, 20, 30, 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := clampCrop(domain.Rect{X: tt.x, Y: tt.y, Width: tt.w, Height: tt.h}, frame)
			got := [4]float64{r.X, r.Y, r.Width, r.Height}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateImage_UsesSelectionAsContext(t *testing.T) {
	s := newTestServer(t)
	a := addImage(t, s, 100, 100)
	ctx := context.Background()

	if _, err := s.handleSelectImages(ctx, callReq(map[string]any{"imageIds": a.ID})); err != nil {
		t.Fatal(err)
	}
	res, err := s.handleGenerateImage(ctx, callReq(map[string]any{"prompt": "a red barn"}))
	if err != nil {
		t.Fatal(err)
	}
	var gen imageSummary
	if err := json.Unmarshal([]byte(resultText(t, res)), &gen); err != nil {
		t.Fatal(err)
	}
	if gen.Prompt != "a red barn" || len(gen.ContextImageIDs) != 1 || gen.ContextImageIDs[0] != a.ID {
		t.Errorf("unexpected generation context: %+v", gen)
	}

	conns := s.wb.Flow.Connections()
	if len(conns) != 1 || conns[0].SourceID != a.ID || conns[0].TargetID != gen.ID {
		t.Errorf("expected one connection %s -> %s, got %+v", a.ID, gen.ID, conns)
	}
}

func TestExportSnapshot_ReturnsImage(t *testing.T) {
	s := newTestServer(t)
	addImage(t, s, 60, 40)

	res, err := s.handleExportSnapshot(context.Background(), callReq(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	ic, ok := res.Content[0].(mcp.ImageContent)
	if !ok || ic.MIMEType != "image/png" {
		t.Fatalf("expected PNG image content, got %T", res.Content[0])
	}
	data, err := base64.StdEncoding.DecodeString(ic.Data)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("snapshot is not a PNG: %v", err)
	}
}

func TestImageIDFromURI(t *testing.T) {
	tests := map[string]string{
		"workbench://image/abc-123": "abc-123",
		"workbench://image/":        "",
		"workbench://image/a/b":     "",
		"workbench://scene":         "",
	}
	for uri, want := range tests {
		if got := imageIDFromURI(uri); got != want {
			t.Errorf("imageIDFromURI(%q) = %q, want %q", uri, got, want)
		}
	}
}
