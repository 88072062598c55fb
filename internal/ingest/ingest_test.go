package ingest_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"workbench/internal/domain"
	"workbench/internal/ingest"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecode_Bytes(t *testing.T) {
	svc := ingest.NewService()
	d, err := svc.Decode(context.Background(), ingest.FromBytes(pngBytes(t, 800, 400)))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Width != 800 || d.Height != 400 {
		t.Errorf("got %dx%d, want 800x400", d.Width, d.Height)
	}
	if d.Format != "png" {
		t.Errorf("format got %q, want png", d.Format)
	}
	if !strings.HasPrefix(d.URL, "data:image/png;base64,") {
		t.Errorf("expected png data URL, got %.40q", d.URL)
	}
}

func TestDecode_DataURLRoundTrip(t *testing.T) {
	raw := pngBytes(t, 12, 34)
	u := ingest.DataURL("image/png", raw)

	d, err := ingest.NewService().Decode(context.Background(), ingest.FromURL(u))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Width != 12 || d.Height != 34 {
		t.Errorf("got %dx%d, want 12x34", d.Width, d.Height)
	}
	if !bytes.Equal(d.Data, raw) {
		t.Error("decoded data differs from the original bytes")
	}
}

func TestDecode_Path(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(path, pngBytes(t, 5, 6), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := ingest.NewService().Decode(context.Background(), ingest.FromPath(path))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Width != 5 || d.Height != 6 {
		t.Errorf("got %dx%d, want 5x6", d.Width, d.Height)
	}
}

func TestDecode_Remote(t *testing.T) {
	raw := pngBytes(t, 30, 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(raw)
	}))
	defer srv.Close()

	svc := ingest.NewService()
	d, err := svc.Decode(context.Background(), ingest.FromURL(srv.URL+"/ok.png"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.URL != srv.URL+"/ok.png" {
		t.Errorf("remote URL should be kept, got %q", d.URL)
	}

	_, err = svc.Decode(context.Background(), ingest.FromURL(srv.URL+"/missing.png"))
	if !errors.Is(err, ingest.ErrFetch) {
		t.Errorf("expected ErrFetch, got %v", err)
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, err := ingest.NewService().Decode(context.Background(), ingest.FromBytes([]byte("not an image")))
	if !errors.Is(err, ingest.ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
}

func TestParseDataURL_Errors(t *testing.T) {
	for _, u := range []string{
		"http://example.com/a.png",
		"data:image/png;base64",
		"data:image/png,plain",
		"data:image/png;base64,@@@",
	} {
		if _, _, err := ingest.ParseDataURL(u); err == nil {
			t.Errorf("ParseDataURL(%q) expected error", u)
		}
	}
}

func TestIsImageFile(t *testing.T) {
	tests := map[string]bool{
		"a.png":       true,
		"B.JPEG":      true,
		"photo.webp":  true,
		"scan.tiff":   true,
		"notes.txt":   false,
		"noextension": false,
	}
	for name, want := range tests {
		if got := ingest.IsImageFile(name); got != want {
			t.Errorf("IsImageFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestCropPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 800, 400))
	// Displayed at 400x200, so every display unit is two pixels.
	r := ingest.CropPixels(img, domain.Rect{X: 50, Y: 25, Width: 100, Height: 50}, domain.Size{Width: 400, Height: 200})
	if want := image.Rect(100, 50, 300, 150); r != want {
		t.Errorf("got %v, want %v", r, want)
	}
}

func TestFit_Downscales(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4096, 1024))
	out := ingest.Fit(img, img.Bounds(), ingest.MaxContextDim)
	if b := out.Bounds(); b.Dx() != 2048 || b.Dy() != 512 {
		t.Errorf("got %dx%d, want 2048x512", b.Dx(), b.Dy())
	}
}

func TestEncodeContextPNG_Cropped(t *testing.T) {
	ci := domain.CanvasImage{
		Data:         pngBytes(t, 200, 100),
		IsCropped:    true,
		CropData:     &domain.Rect{X: 0, Y: 0, Width: 100, Height: 50},
		OriginalSize: &domain.Size{Width: 200, Height: 100},
	}
	b64, err := ingest.EncodeContextPNG(ci)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("got %dx%d, want 100x50", cfg.Width, cfg.Height)
	}
}
