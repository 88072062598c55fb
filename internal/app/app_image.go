package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"workbench/internal/domain"
	"workbench/internal/ingest"
	"workbench/internal/render"
	"workbench/internal/scene"
)

// stagger offsets images added in one batch so they do not stack exactly.
const stagger = 24.0

// placement returns add options anchoring the n-th image of a batch at pos,
// or at the last context-menu position when pos is nil. It returns nil to
// use the default placement.
func (a *App) placement(pos *domain.Position, n int) []scene.AddOption {
	var fallback *domain.Position
	if p, ok := a.wb.Viewport.ContextPosition(); ok {
		fallback = &p
	}
	p, ok := anchorAt(pos, fallback, n)
	if !ok {
		return nil
	}
	return []scene.AddOption{scene.WithPosition(p)}
}

// anchorAt picks the canvas position of the n-th image of a batch.
func anchorAt(pos, fallback *domain.Position, n int) (domain.Position, bool) {
	if pos == nil {
		pos = fallback
	}
	if pos == nil {
		return domain.Position{}, false
	}
	off := float64(n) * stagger
	return domain.Position{X: pos.X + off, Y: pos.Y + off}, true
}

// ============================================================
// Adding images
// ============================================================

// The add bindings take an optional canvas position (the drop point, the
// pointer at paste time, or the double-click spot). A null position falls
// back to the last context-menu position, then to default placement.

// AddImageData adds an image from a data URL (drag-and-drop, paste). It
// returns the id the image will have once decoding finishes.
func (a *App) AddImageData(dataURL string, pos *domain.Position) (string, error) {
	if !ingest.IsDataURL(dataURL) {
		return "", fmt.Errorf("not a data URL")
	}
	return a.wb.Scene.AddAsync(a.ctx, ingest.FromURL(dataURL), a.placement(pos, 0)...), nil
}

// AddImageURL adds an image from an http(s) URL.
func (a *App) AddImageURL(url string, pos *domain.Position) (string, error) {
	url = strings.TrimSpace(url)
	if !ingest.IsRemoteURL(url) && !ingest.IsDataURL(url) {
		return "", fmt.Errorf("unsupported image URL %q", url)
	}
	return a.wb.Scene.AddAsync(a.ctx, ingest.FromURL(url), a.placement(pos, 0)...), nil
}

// OpenImageDialog lets the user pick image files and adds each of them.
func (a *App) OpenImageDialog(pos *domain.Position) ([]string, error) {
	paths, err := wailsRuntime.OpenMultipleFilesDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title: "Add Images",
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "Images", Pattern: "*.png;*.jpg;*.jpeg;*.gif;*.webp;*.bmp;*.tiff"},
		},
	})
	if err != nil {
		return nil, err
	}
	var ids []string
	for i, p := range paths {
		if !ingest.IsImageFile(p) {
			wailsRuntime.LogWarningf(a.ctx, "Skipping non-image file %s", p)
			continue
		}
		ids = append(ids, a.wb.Scene.AddAsync(a.ctx, ingest.FromPath(p), a.placement(pos, i)...))
	}
	return ids, nil
}

// PasteClipboardURL adds the image whose URL is on the clipboard at pos.
func (a *App) PasteClipboardURL(pos *domain.Position) (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return a.AddImageURL(text, pos)
}

// ============================================================
// Scene edits
// ============================================================

func (a *App) DeleteSelected() []string {
	return a.wb.Scene.DeleteSelected()
}

func (a *App) SelectAll() {
	a.wb.Scene.SelectAll()
}

func (a *App) ClearSelection() {
	a.wb.Scene.ClearSelection()
}

func (a *App) BringToFront(imageID string) {
	a.wb.Scene.BringToFront(imageID)
}

func (a *App) ClearSelectionAreas(imageID string) {
	a.wb.Scene.ClearSelectionAreas(imageID)
}

// StartCrop enters crop mode for an image.
func (a *App) StartCrop(imageID string) bool {
	return a.wb.Viewport.StartCrop(imageID)
}

func (a *App) ApplyCrop() bool {
	return a.wb.Viewport.ApplyCrop()
}

func (a *App) CancelCrop() bool {
	return a.wb.Viewport.CancelCrop()
}

// RemoveCrop restores the uncropped image.
func (a *App) RemoveCrop(imageID string) bool {
	return a.wb.Scene.RemoveCrop(imageID)
}

// CopyPrompt puts the prompt an image was generated from on the clipboard.
func (a *App) CopyPrompt(imageID string) error {
	img, err := a.wb.Scene.Image(imageID)
	if err != nil {
		return err
	}
	if img.GenerationContext == nil || img.GenerationContext.Prompt == "" {
		return fmt.Errorf("image %s has no prompt", imageID)
	}
	return clipboard.WriteAll(img.GenerationContext.Prompt)
}

// ExportSnapshot renders the canvas and saves it where the user chooses.
// It returns the saved path, or "" if the dialog was cancelled.
func (a *App) ExportSnapshot() (string, error) {
	data, err := render.Snapshot(a.wb.Scene.Images(), a.wb.Flow.Connections(), render.DefaultOptions())
	if err != nil {
		return "", err
	}
	path, err := wailsRuntime.SaveFileDialog(a.ctx, wailsRuntime.SaveDialogOptions{
		Title:           "Export Canvas",
		DefaultFilename: "workbench.png",
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "PNG", Pattern: "*.png"},
		},
	})
	if err != nil || path == "" {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}
