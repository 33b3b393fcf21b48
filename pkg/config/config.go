// Package config loads worker pool settings from YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jzx17/taskpool/pkg/types"
	"github.com/jzx17/taskpool/pkg/worker"
)

// FileConfig is the structure of a configuration file
type FileConfig struct {
	Pool    PoolConfig    `yaml:"pool" json:"pool"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// PoolConfig holds pool settings
type PoolConfig struct {
	Name    string `yaml:"name" json:"name"`
	Workers int    `yaml:"workers" json:"workers"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MetricsConfig holds the Prometheus endpoint settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
}

// Default returns the configuration used when no file is given
func Default() *FileConfig {
	return &FileConfig{
		Pool: PoolConfig{
			Name:    "default",
			Workers: 4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Address: ":9090",
		},
	}
}

// LoadFile reads a configuration file. Fields missing from the file keep
// their Default values.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration. Worker counts above worker.MaxPoolSize
// are accepted; the pool clamps them.
func (c *FileConfig) Validate() error {
	if c.Pool.Workers < 0 {
		return fmt.Errorf("pool.workers must not be negative, got %d", c.Pool.Workers)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %s", c.Log.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return fmt.Errorf("metrics.address is required when metrics are enabled")
	}
	return nil
}

// ParseLogLevel converts a level name to a slog.Level. An empty name means info.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

// NewLogger builds the logger described by the log section
func (c *FileConfig) NewLogger(out io.Writer) *slog.Logger {
	level, err := ParseLogLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.ToLower(c.Log.Format) == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// WorkerConfig converts the pool section into a worker.Config
func (c *FileConfig) WorkerConfig(logger *slog.Logger, metrics types.MetricsRecorder) *worker.Config {
	config := worker.DefaultConfig()
	config.Name = c.Pool.Name
	config.PoolSize = c.Pool.Workers
	if logger != nil {
		config.Logger = logger
	}
	config.Metrics = metrics
	return config
}
