package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrDecode means the bytes were read but are not a decodable image.
	ErrDecode = errors.New("image decode failed")
	// ErrFetch means the bytes could not be obtained at all.
	ErrFetch = errors.New("image fetch failed")
)

const maxImageBytes = 50 * 1024 * 1024

// Decoded carries what the scene needs to place an image.
type Decoded struct {
	Width  int
	Height int
	Format string
	Data   []byte
	URL    string // render source for the frontend
}

// Decoder turns a Source into intrinsic dimensions and a render URL.
type Decoder interface {
	Decode(ctx context.Context, src Source) (*Decoded, error)
}

// Service is the production Decoder.
type Service struct {
	client *http.Client
}

func NewService() *Service {
	return &Service{client: &http.Client{Timeout: 30 * time.Second}}
}

// Decode reads src and determines its dimensions. Byte and file sources are
// re-exposed as data URLs; remote URLs are kept as-is.
func (s *Service) Decode(ctx context.Context, src Source) (*Decoded, error) {
	var (
		data []byte
		url  string
		err  error
	)
	switch {
	case src.Data != nil:
		data = src.Data
	case IsDataURL(src.URL):
		if _, data, err = ParseDataURL(src.URL); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
	case IsRemoteURL(src.URL):
		if data, err = s.fetch(ctx, src.URL); err != nil {
			return nil, err
		}
		url = src.URL
	case src.Path != "":
		if data, err = os.ReadFile(src.Path); err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrFetch, src.Path, err)
		}
	default:
		return nil, fmt.Errorf("%w: empty source", ErrFetch)
	}

	d, err := DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	if url == "" {
		url = DataURL(MimeType(d.Format), data)
	}
	d.URL = url
	return d, nil
}

// DecodeBytes inspects the image header without decoding pixel data.
func DecodeBytes(data []byte) (*Decoded, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: zero dimensions", ErrDecode)
	}
	return &Decoded{Width: cfg.Width, Height: cfg.Height, Format: format, Data: data}, nil
}

func (s *Service) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrFetch, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetch, url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	return data, nil
}
