package config_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"workbench/internal/config"
)

func TestRead(t *testing.T) {
	rc := `
# workbench settings
api_url = http://gen.local:9000/
request_timeout = 45s
temperature = 1.2
late_results = insert
resize_handles = all
handle_radius = 8
inbox_dir = ~/Pictures/inbox
unknown_key = whatever
not a pair
`
	cfg := config.Default()
	if err := cfg.Read(strings.NewReader(rc), "/home/u"); err != nil {
		t.Fatalf("read: %v", err)
	}

	if cfg.APIURL != "http://gen.local:9000" {
		t.Errorf("api_url got %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("request_timeout got %v", cfg.RequestTimeout)
	}
	if cfg.Temperature != 1.2 {
		t.Errorf("temperature got %v", cfg.Temperature)
	}
	if cfg.LateResults != config.LateInsert {
		t.Errorf("late_results got %q", cfg.LateResults)
	}
	if cfg.ResizeHandles != "all" || cfg.HandleRadius != 8 {
		t.Errorf("handles got %q radius %v", cfg.ResizeHandles, cfg.HandleRadius)
	}
	if cfg.InboxDir != filepath.Join("/home/u", "Pictures/inbox") {
		t.Errorf("inbox_dir got %q", cfg.InboxDir)
	}
}

func TestRead_BadValuesKeepDefaults(t *testing.T) {
	rc := "temperature = 7\nlate_results = maybe\nrequest_timeout = soon\nhandle_radius = -1\n"
	cfg := config.Default()
	cfg.Read(strings.NewReader(rc), "")

	def := config.Default()
	if cfg != def {
		t.Errorf("bad values should be ignored, got %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"WORKBENCH_API_URL":         "https://api.example.com",
		"WORKBENCH_TEMPERATURE":     "0.3",
		"WORKBENCH_HEALTH_INTERVAL": "0s",
		"WORKBENCH_MCP_ADDR":        "127.0.0.1:7331",
	}
	cfg := config.Default()
	cfg.ApplyEnv(func(k string) (string, bool) { v, ok := env[k]; return v, ok }, "")

	if cfg.APIURL != "https://api.example.com" || cfg.Temperature != 0.3 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.HealthInterval != 0 {
		t.Errorf("health_interval got %v", cfg.HealthInterval)
	}
	if cfg.MCPAddr != "127.0.0.1:7331" {
		t.Errorf("mcp_addr got %q", cfg.MCPAddr)
	}
	if cfg.LateResults != config.LateDiscard {
		t.Errorf("untouched keys should keep defaults, got %q", cfg.LateResults)
	}
}
