package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// ── Generation backend client ──────────────────────────────
// Talks to the image generation HTTP service:
//   POST /api/generate  {prompt, context_images?, settings{temperature}}
//   GET  /api/health

const (
	MaxPromptLength    = 5000
	DefaultTemperature = 0.8
	maxResponseBytes   = 64 * 1024 * 1024
)

var ErrInvalidRequest = errors.New("invalid generation request")

type Settings struct {
	Temperature float64 `json:"temperature"`
}

type Request struct {
	Prompt        string   `json:"prompt"`
	ContextImages []string `json:"context_images,omitempty"` // bare base64 PNG
	Settings      Settings `json:"settings"`
}

type Response struct {
	Success  bool           `json:"success"`
	Image    string         `json:"image,omitempty"` // bare base64 PNG
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Model   string `json:"model"`
}

// Generator produces an image from a prompt and context images.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Validate applies the backend's request constraints locally.
func (r Request) Validate() error {
	n := utf8.RuneCountInString(strings.TrimSpace(r.Prompt))
	if n == 0 {
		return fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if utf8.RuneCountInString(r.Prompt) > MaxPromptLength {
		return fmt.Errorf("%w: prompt exceeds %d characters", ErrInvalidRequest, MaxPromptLength)
	}
	if r.Settings.Temperature < 0 || r.Settings.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be between 0 and 2", ErrInvalidRequest)
	}
	return nil
}

// Generate posts req and returns the generated image. A response with
// success=false, a non-2xx status or a transport failure is an error whose
// message can be shown to the user as-is.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp, data)
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "image generation failed"
		}
		return nil, errors.New(msg)
	}
	if out.Image == "" {
		return nil, errors.New("generation service returned no image")
	}
	return &out, nil
}

// Health queries the backend's health endpoint.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, data)
	}
	var h Health
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parse health: %w", err)
	}
	return &h, nil
}

// statusError extracts the most useful message from an error body: the
// service's "error" field, a "detail" string, or the HTTP status.
func statusError(resp *http.Response, data []byte) error {
	var body struct {
		Error  string `json:"error"`
		Detail any    `json:"detail"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Error != "" {
			return errors.New(body.Error)
		}
		if s, ok := body.Detail.(string); ok && s != "" {
			return errors.New(s)
		}
	}
	return fmt.Errorf("generation service returned %s", resp.Status)
}
