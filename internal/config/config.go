package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aaronlmathis/hostwatch/internal/timeseries"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Timeseries TimeseriesConfig `yaml:"timeseries"`
	Charts     ChartsConfig     `yaml:"charts"`
	Ingest     IngestConfig     `yaml:"ingest"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
}

// ServerConfig represents the server configuration
type ServerConfig struct {
	Addr           string     `yaml:"addr"`
	BasePath       string     `yaml:"base_path"`
	RequestTimeout string     `yaml:"request_timeout"`
	CORS           CORSConfig `yaml:"cors"`
}

// CORSConfig represents the CORS configuration
type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
	AllowMethods []string `yaml:"allow_methods"`
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// TimeseriesConfig sizes the in-memory sample store
type TimeseriesConfig struct {
	MaxWindow          string `yaml:"max_window"`
	HiResStep          string `yaml:"hi_res_step"`
	HiResPoints        int    `yaml:"hi_res_points"`
	LoResStep          string `yaml:"lo_res_step"`
	LoResPoints        int    `yaml:"lo_res_points"`
	MaxSeries          int    `yaml:"max_series"`
	MaxPointsPerSeries int    `yaml:"max_points_per_series"`
	PruneInterval      string `yaml:"prune_interval"`
}

// ChartsConfig controls chart option rendering
type ChartsConfig struct {
	// Timezone used when x-axis labels are rendered server side
	Timezone string `yaml:"timezone"`
}

// IngestConfig limits how fast a single agent may push samples
type IngestConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// WebSocketConfig represents the live stream limits
type WebSocketConfig struct {
	MaxConnections int `yaml:"max_connections"`
	MaxRoomSize    int `yaml:"max_room_size"`
}

// Load loads the configuration from environment variables and defaults.
// HW_CONFIG_FILE, when set, names a YAML file to merge in.
func Load() (*Config, error) {
	return loadWithDefaults(os.Getenv("HW_CONFIG_FILE"))
}

// LoadFromFile loads configuration from a YAML file, with environment variable overrides
func LoadFromFile(configPath string) (*Config, error) {
	return loadWithDefaults(configPath)
}

// Default returns the built-in configuration without consulting the environment
func Default() *Config {
	ts := timeseries.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:           "0.0.0.0:8080",
			BasePath:       "/",
			RequestTimeout: "60s",
			CORS: CORSConfig{
				AllowOrigins: []string{"*"},
				AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Timeseries: TimeseriesConfig{
			MaxWindow:          ts.MaxWindow.String(),
			HiResStep:          ts.HiResStep.String(),
			HiResPoints:        ts.HiResPoints,
			LoResStep:          ts.LoResStep.String(),
			LoResPoints:        ts.LoResPoints,
			MaxSeries:          ts.MaxSeries,
			MaxPointsPerSeries: ts.MaxPointsPerSeries,
			PruneInterval:      "1m",
		},
		Charts: ChartsConfig{
			Timezone: "Local",
		},
		Ingest: IngestConfig{
			RequestsPerMinute: 120,
			Burst:             10,
		},
		WebSocket: WebSocketConfig{
			MaxConnections: ts.MaxWSClients,
			MaxRoomSize:    100,
		},
	}
}

// loadWithDefaults loads configuration with defaults, optionally from a file
func loadWithDefaults(configPath string) (*Config, error) {
	cfg := Default()

	// If a config file path is provided, load and merge it
	if configPath != "" {
		fileConfig, err := loadFromYAMLFile(configPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configPath, err)
		}
		cfg = fileConfig
	}

	applyEnv(cfg)
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultValue
}

// loadFromYAMLFile decodes the file over base so unset keys keep their defaults
func loadFromYAMLFile(configPath string, base *Config) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := *base
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}

// applyEnv overrides cfg with environment values. Environment variables
// take precedence over file values.
func applyEnv(cfg *Config) {
	cfg.Server.Addr = getEnv("HW_SERVER_ADDR", cfg.Server.Addr)
	cfg.Server.BasePath = getEnv("HW_BASE_PATH", cfg.Server.BasePath)
	cfg.Server.RequestTimeout = getEnv("HW_REQUEST_TIMEOUT", cfg.Server.RequestTimeout)
	cfg.Server.CORS.AllowOrigins = getEnvStringSlice("HW_CORS_ALLOW_ORIGINS", cfg.Server.CORS.AllowOrigins)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("HW_LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.File = getEnv("HW_LOG_FILE", cfg.Logging.File)

	cfg.Timeseries.MaxWindow = getEnv("HW_TIMESERIES_MAX_WINDOW", cfg.Timeseries.MaxWindow)
	cfg.Timeseries.MaxSeries = getEnvInt("HW_TIMESERIES_MAX_SERIES", cfg.Timeseries.MaxSeries)

	cfg.Charts.Timezone = getEnv("HW_CHARTS_TIMEZONE", cfg.Charts.Timezone)

	cfg.Ingest.RequestsPerMinute = getEnvInt("HW_INGEST_PER_MINUTE", cfg.Ingest.RequestsPerMinute)
	cfg.Ingest.Burst = getEnvInt("HW_INGEST_BURST", cfg.Ingest.Burst)

	cfg.WebSocket.MaxConnections = getEnvInt("HW_WS_MAX_CONNECTIONS", cfg.WebSocket.MaxConnections)
	cfg.WebSocket.MaxRoomSize = getEnvInt("HW_WS_MAX_ROOM_SIZE", cfg.WebSocket.MaxRoomSize)

	// Override port if PORT env var is set
	if port := getEnv("PORT", ""); port != "" {
		cfg.Server.Addr = "0.0.0.0:" + port
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if _, err := time.ParseDuration(c.Server.RequestTimeout); err != nil {
		return fmt.Errorf("invalid server request timeout: %w", err)
	}
	if !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("server base path must start with '/'")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging format must be 'json' or 'console'")
	}

	if _, err := c.Timeseries.StoreConfig(); err != nil {
		return err
	}
	if _, err := time.ParseDuration(c.Timeseries.PruneInterval); err != nil {
		return fmt.Errorf("invalid timeseries prune interval: %w", err)
	}

	if _, err := c.Charts.Location(); err != nil {
		return err
	}

	if c.Ingest.RequestsPerMinute <= 0 {
		return fmt.Errorf("ingest requests per minute must be positive")
	}
	if c.Ingest.Burst <= 0 {
		return fmt.Errorf("ingest burst must be positive")
	}

	if c.WebSocket.MaxConnections <= 0 || c.WebSocket.MaxRoomSize <= 0 {
		return fmt.Errorf("websocket limits must be positive")
	}

	return nil
}

// Prefix returns the base path routes are mounted under, without a trailing
// slash. The root base path yields "".
func (s ServerConfig) Prefix() string {
	return strings.TrimRight(s.BasePath, "/")
}

// Timeout returns the per-request timeout
func (s ServerConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(s.RequestTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// StoreConfig converts the section into the store's configuration
func (t TimeseriesConfig) StoreConfig() (timeseries.Config, error) {
	cfg := timeseries.DefaultConfig()

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"max window", t.MaxWindow, &cfg.MaxWindow},
		{"hi res step", t.HiResStep, &cfg.HiResStep},
		{"lo res step", t.LoResStep, &cfg.LoResStep},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return cfg, fmt.Errorf("invalid timeseries %s: %w", d.name, err)
		}
		if parsed <= 0 {
			return cfg, fmt.Errorf("timeseries %s must be positive", d.name)
		}
		*d.dst = parsed
	}

	if t.HiResPoints <= 0 || t.LoResPoints <= 0 {
		return cfg, fmt.Errorf("timeseries point counts must be positive")
	}
	if t.MaxSeries <= 0 || t.MaxPointsPerSeries <= 0 {
		return cfg, fmt.Errorf("timeseries guardrails must be positive")
	}

	cfg.HiResPoints = t.HiResPoints
	cfg.LoResPoints = t.LoResPoints
	cfg.MaxSeries = t.MaxSeries
	cfg.MaxPointsPerSeries = t.MaxPointsPerSeries
	return cfg, nil
}

// PruneEvery returns how often expired samples are dropped
func (t TimeseriesConfig) PruneEvery() time.Duration {
	d, err := time.ParseDuration(t.PruneInterval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// Location resolves the chart label timezone
func (c ChartsConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid charts timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
