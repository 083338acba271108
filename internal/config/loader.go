package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults. The idle
// timeout is a pointer because an explicit 0 disables eviction.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	APIKey    string `json:"api_key" yaml:"api_key" toml:"api_key"`
	Debug     bool   `json:"debug" yaml:"debug" toml:"debug"`
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	ModelName       string `json:"model_name" yaml:"model_name" toml:"model_name"`
	ModelPath       string `json:"model_path" yaml:"model_path" toml:"model_path"`
	TokenizerPath   string `json:"tokenizer_path" yaml:"tokenizer_path" toml:"tokenizer_path"`
	ONNXLibraryPath string `json:"onnx_library_path" yaml:"onnx_library_path" toml:"onnx_library_path"`
	Backend         string `json:"backend" yaml:"backend" toml:"backend"`
	Device          string `json:"device" yaml:"device" toml:"device"`
	GPULayers       int    `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	Threads         int    `json:"threads" yaml:"threads" toml:"threads"`
	ContextSize     int    `json:"context_size" yaml:"context_size" toml:"context_size"`
	MaxTokens       int    `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	NativeDim       int    `json:"native_dim" yaml:"native_dim" toml:"native_dim"`

	MaxBatchSize         int   `json:"max_batch_size" yaml:"max_batch_size" toml:"max_batch_size"`
	DefaultBatchSize     int   `json:"default_batch_size" yaml:"default_batch_size" toml:"default_batch_size"`
	IdleTimeoutSeconds   *int  `json:"idle_timeout_seconds" yaml:"idle_timeout_seconds" toml:"idle_timeout_seconds"`
	CheckIntervalSeconds int   `json:"check_interval_seconds" yaml:"check_interval_seconds" toml:"check_interval_seconds"`
	MaxBodyBytes         int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`

	RemoteBaseURL string `json:"remote_base_url" yaml:"remote_base_url" toml:"remote_base_url"`
	RemoteAPIKey  string `json:"remote_api_key" yaml:"remote_api_key" toml:"remote_api_key"`
	RemoteModel   string `json:"remote_model" yaml:"remote_model" toml:"remote_model"`

	WatchModelFile bool `json:"watch_model_file" yaml:"watch_model_file" toml:"watch_model_file"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// IdleTimeout returns the eviction threshold; 0 disables eviction.
func (c Config) IdleTimeout() time.Duration {
	if c.IdleTimeoutSeconds == nil {
		return time.Duration(DefaultIdleTimeoutSeconds) * time.Second
	}
	return time.Duration(*c.IdleTimeoutSeconds) * time.Second
}

// CheckInterval returns the sweep period.
func (c Config) CheckInterval() time.Duration {
	if c.CheckIntervalSeconds <= 0 {
		return time.Duration(DefaultCheckIntervalSeconds) * time.Second
	}
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// AuthRequired reports whether requests must carry the API key.
func (c Config) AuthRequired() bool { return c.APIKey != "" }

// Seconds is a helper for optional integer settings.
func Seconds(n int) *int { return &n }
