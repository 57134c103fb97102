package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Test default configuration
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	if cfg.Server.Addr != "0.0.0.0:8080" {
		t.Errorf("Expected default server addr to be '0.0.0.0:8080', got '%s'", cfg.Server.Addr)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.Logging.Level)
	}

	if cfg.Timeseries.MaxWindow != "1h0m0s" {
		t.Errorf("Expected default max window to be one hour, got '%s'", cfg.Timeseries.MaxWindow)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HW_CHARTS_TIMEZONE", "UTC")
	t.Setenv("HW_INGEST_PER_MINUTE", "30")
	t.Setenv("HW_CORS_ALLOW_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config with env vars: %v", err)
	}

	if cfg.Server.Addr != "0.0.0.0:9090" {
		t.Errorf("Expected server addr to be '0.0.0.0:9090', got '%s'", cfg.Server.Addr)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level to be 'debug', got '%s'", cfg.Logging.Level)
	}

	if cfg.Charts.Timezone != "UTC" {
		t.Errorf("Expected timezone to be 'UTC', got '%s'", cfg.Charts.Timezone)
	}

	if cfg.Ingest.RequestsPerMinute != 30 {
		t.Errorf("Expected 30 requests per minute, got %d", cfg.Ingest.RequestsPerMinute)
	}

	if len(cfg.Server.CORS.AllowOrigins) != 2 || cfg.Server.CORS.AllowOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected CORS origins: %v", cfg.Server.CORS.AllowOrigins)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostwatch.yaml")
	content := `
server:
  addr: "127.0.0.1:7000"
logging:
  format: console
timeseries:
  max_window: 30m
websocket:
  max_room_size: 5
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:7000" {
		t.Errorf("Expected addr from file, got '%s'", cfg.Server.Addr)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Expected console format, got '%s'", cfg.Logging.Format)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Expected env to override level, got '%s'", cfg.Logging.Level)
	}
	if cfg.WebSocket.MaxRoomSize != 5 {
		t.Errorf("Expected room size 5, got %d", cfg.WebSocket.MaxRoomSize)
	}
	// Keys missing from the file keep their defaults
	if cfg.WebSocket.MaxConnections != 500 {
		t.Errorf("Expected default max connections, got %d", cfg.WebSocket.MaxConnections)
	}

	store, err := cfg.Timeseries.StoreConfig()
	if err != nil {
		t.Fatalf("StoreConfig() error = %v", err)
	}
	if store.MaxWindow != 30*time.Minute {
		t.Errorf("Expected 30m window, got %v", store.MaxWindow)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{"valid config", func(*Config) {}, false},
		{"empty server addr", func(c *Config) { c.Server.Addr = "" }, true},
		{"relative base path", func(c *Config) { c.Server.BasePath = "monitor" }, true},
		{"nested base path", func(c *Config) { c.Server.BasePath = "/ops/monitor/" }, false},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"bad window", func(c *Config) { c.Timeseries.MaxWindow = "soon" }, true},
		{"zero points", func(c *Config) { c.Timeseries.HiResPoints = 0 }, true},
		{"unknown timezone", func(c *Config) { c.Charts.Timezone = "Mars/Olympus" }, true},
		{"named timezone", func(c *Config) { c.Charts.Timezone = "UTC" }, false},
		{"zero ingest rate", func(c *Config) { c.Ingest.RequestsPerMinute = 0 }, true},
		{"zero room size", func(c *Config) { c.WebSocket.MaxRoomSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestChartsLocation(t *testing.T) {
	loc, err := ChartsConfig{Timezone: "Local"}.Location()
	if err != nil || loc != time.Local {
		t.Errorf("Expected time.Local, got %v (%v)", loc, err)
	}

	loc, err = ChartsConfig{Timezone: "UTC"}.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("Expected UTC, got %v (%v)", loc, err)
	}
}

func TestServerPrefix(t *testing.T) {
	cases := map[string]string{
		"/":         "",
		"/monitor":  "/monitor",
		"/monitor/": "/monitor",
	}
	for in, want := range cases {
		if got := (ServerConfig{BasePath: in}).Prefix(); got != want {
			t.Errorf("Prefix(%q) = %q, want %q", in, got, want)
		}
	}
}
