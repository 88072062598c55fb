package ingest

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	"workbench/internal/domain"
)

// MaxContextDim is the longest side a context image is sent at.
const MaxContextDim = 2048

// DecodeImage fully decodes data.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// CropPixels maps a crop rectangle, expressed in display units relative to
// originalSize, onto the pixel bounds of img.
func CropPixels(img image.Image, crop domain.Rect, originalSize domain.Size) image.Rectangle {
	b := img.Bounds()
	if originalSize.Width <= 0 || originalSize.Height <= 0 {
		return b
	}
	sx := float64(b.Dx()) / originalSize.Width
	sy := float64(b.Dy()) / originalSize.Height
	r := image.Rect(
		b.Min.X+int(math.Round(crop.X*sx)),
		b.Min.Y+int(math.Round(crop.Y*sy)),
		b.Min.X+int(math.Round((crop.X+crop.Width)*sx)),
		b.Min.Y+int(math.Round((crop.Y+crop.Height)*sy)),
	)
	r = r.Intersect(b)
	if r.Empty() {
		return b
	}
	return r
}

// Fit scales img down so its longest side is at most maxDim.
func Fit(img image.Image, r image.Rectangle, maxDim int) image.Image {
	w, h := r.Dx(), r.Dy()
	if w <= maxDim && h <= maxDim {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Copy(dst, image.Point{}, img, r, draw.Src, nil)
		return dst
	}
	ratio := math.Min(float64(maxDim)/float64(w), float64(maxDim)/float64(h))
	dst := image.NewRGBA(image.Rect(0, 0, max(1, int(float64(w)*ratio)), max(1, int(float64(h)*ratio))))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, r, draw.Src, nil)
	return dst
}

// EncodeContextPNG prepares an image for the generation backend: cropped to
// its visible region when a crop is applied, bounded to MaxContextDim, PNG
// encoded and returned as bare base64.
func EncodeContextPNG(ci domain.CanvasImage) (string, error) {
	img, err := DecodeImage(ci.Data)
	if err != nil {
		return "", err
	}
	r := img.Bounds()
	if ci.IsCropped && ci.CropData != nil && ci.OriginalSize != nil {
		r = CropPixels(img, *ci.CropData, *ci.OriginalSize)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, Fit(img, r, MaxContextDim)); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
