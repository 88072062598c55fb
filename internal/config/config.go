package config

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// ─────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────
//
// Layered: built-in defaults, then ~/.workbenchrc (key = value lines,
// '#' comments), then WORKBENCH_<KEY> environment variables.

const (
	FileName  = ".workbenchrc"
	EnvPrefix = "WORKBENCH_"
)

// LatePolicy decides what happens to a generation result that arrives after
// its session was closed.
type LatePolicy string

const (
	LateDiscard LatePolicy = "discard"
	LateInsert  LatePolicy = "insert"
)

type Config struct {
	APIURL         string
	RequestTimeout time.Duration
	Temperature    float64
	LateResults    LatePolicy
	ResizeHandles  string // "corners" or "all"
	HandleRadius   float64
	InboxDir       string // empty disables the inbox watcher
	HealthInterval time.Duration
	MCPAddr        string // empty disables the in-app MCP endpoint
}

func Default() Config {
	return Config{
		APIURL:         "http://localhost:8000",
		RequestTimeout: 2 * time.Minute,
		Temperature:    0.8,
		LateResults:    LateDiscard,
		ResizeHandles:  "corners",
		HandleRadius:   6,
		HealthInterval: time.Minute,
	}
}

var keys = []string{
	"api_url", "request_timeout", "temperature", "late_results",
	"resize_handles", "handle_radius", "inbox_dir", "health_interval", "mcp_addr",
}

// Load reads ~/.workbenchrc and the environment on top of the defaults.
// Unreadable files and bad values are logged and skipped.
func Load() Config {
	cfg := Default()
	home, _ := os.UserHomeDir()

	if home != "" {
		if f, err := os.Open(filepath.Join(home, FileName)); err == nil {
			if err := cfg.Read(f, home); err != nil {
				log.Printf("[Config] %s: %v", FileName, err)
			}
			f.Close()
		}
	}
	cfg.ApplyEnv(os.LookupEnv, home)
	return cfg
}

// Read applies key = value lines from r.
func (c *Config) Read(r io.Reader, home string) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		if err := c.Set(key, strings.TrimSpace(parts[1]), home); err != nil {
			log.Printf("[Config] %v", err)
		}
	}
	return scanner.Err()
}

// ApplyEnv overrides keys from WORKBENCH_<KEY> variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool), home string) {
	for _, key := range keys {
		v, ok := lookup(EnvPrefix + strings.ToUpper(key))
		if !ok {
			continue
		}
		if err := c.Set(key, v, home); err != nil {
			log.Printf("[Config] env: %v", err)
		}
	}
}

// Set assigns a single key. Unknown keys are ignored.
func (c *Config) Set(key, value, home string) error {
	switch key {
	case "api_url", "apiurl":
		c.APIURL = strings.TrimRight(value, "/")
	case "request_timeout", "timeout":
		d, err := cast.ToDurationE(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid %s %q", key, value)
		}
		c.RequestTimeout = d
	case "temperature":
		t, err := cast.ToFloat64E(value)
		if err != nil || t < 0 || t > 2 {
			return fmt.Errorf("invalid temperature %q", value)
		}
		c.Temperature = t
	case "late_results":
		switch p := LatePolicy(strings.ToLower(value)); p {
		case LateDiscard, LateInsert:
			c.LateResults = p
		default:
			return fmt.Errorf("invalid late_results %q", value)
		}
	case "resize_handles":
		switch v := strings.ToLower(value); v {
		case "corners", "all":
			c.ResizeHandles = v
		default:
			return fmt.Errorf("invalid resize_handles %q", value)
		}
	case "handle_radius":
		r, err := cast.ToFloat64E(value)
		if err != nil || r <= 0 {
			return fmt.Errorf("invalid handle_radius %q", value)
		}
		c.HandleRadius = r
	case "inbox_dir", "inbox":
		c.InboxDir = expandPath(value, home)
	case "health_interval":
		d, err := cast.ToDurationE(value)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid health_interval %q", value)
		}
		c.HealthInterval = d
	case "mcp_addr":
		c.MCPAddr = value
	}
	return nil
}

func expandPath(p, home string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "~") && home != "" {
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	if !filepath.IsAbs(p) {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
	}
	return p
}
