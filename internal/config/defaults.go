package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"embedd/internal/common/fsutil"
	"embedd/internal/embed"
)

// Defaults applied when corresponding fields are unset.
const (
	DefaultAddr                 = ":8000"
	DefaultModelName            = "nomic-ai/nomic-embed-text-v1.5"
	DefaultBackend              = "llama"
	DefaultDevice               = "auto"
	DefaultLogLevel             = "info"
	DefaultContextSize          = 2048
	DefaultMaxTokens            = 2048
	DefaultMaxBatchSize         = 100
	DefaultBatchSize            = embed.DefaultBatchSize
	DefaultIdleTimeoutSeconds   = 3600
	DefaultCheckIntervalSeconds = 60
	DefaultMaxBodyBytes         = 8 << 20
)

// Backends lists the accepted backend names.
var Backends = []string{"llama", "onnx", "remote", "hash"}

var devices = []string{"cpu", "cuda", "auto"}

// nvidiaDeviceNode is probed by ResolveDevice.
var nvidiaDeviceNode = "/dev/nvidiactl"

// WithDefaults returns a copy of c with unset fields filled in.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
		if c.Debug {
			c.LogLevel = "debug"
		}
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
		if c.Debug {
			c.LogFormat = "console"
		}
	}
	if c.ModelName == "" {
		c.ModelName = DefaultModelName
	}
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	c.Backend = strings.ToLower(c.Backend)
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	c.Device = strings.ToLower(c.Device)
	if c.ContextSize <= 0 {
		c.ContextSize = DefaultContextSize
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.NativeDim <= 0 {
		c.NativeDim = embed.DefaultNativeDim
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = DefaultMaxBatchSize
	}
	if c.DefaultBatchSize <= 0 {
		c.DefaultBatchSize = min(DefaultBatchSize, c.MaxBatchSize)
	}
	if c.IdleTimeoutSeconds == nil {
		c.IdleTimeoutSeconds = Seconds(DefaultIdleTimeoutSeconds)
	}
	if c.CheckIntervalSeconds <= 0 {
		c.CheckIntervalSeconds = DefaultCheckIntervalSeconds
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.RemoteModel == "" {
		c.RemoteModel = c.ModelName
	}
	c.ModelPath = fsutil.ExpandHome(c.ModelPath)
	c.TokenizerPath = fsutil.ExpandHome(c.TokenizerPath)
	return c
}

// Validate checks a defaulted config for contradictions.
func (c Config) Validate() error {
	var errs []error
	if !slices.Contains(Backends, c.Backend) {
		errs = append(errs, fmt.Errorf("backend must be one of %s, got %q", strings.Join(Backends, ", "), c.Backend))
	}
	if !slices.Contains(devices, c.Device) {
		errs = append(errs, fmt.Errorf("device must be one of %s, got %q", strings.Join(devices, ", "), c.Device))
	}
	if (c.Backend == "llama" || c.Backend == "onnx") && c.ModelPath == "" {
		errs = append(errs, fmt.Errorf("model_path is required for backend %s", c.Backend))
	}
	if c.MaxBatchSize <= 0 {
		errs = append(errs, errors.New("max_batch_size must be positive"))
	}
	if c.DefaultBatchSize <= 0 || c.DefaultBatchSize > c.MaxBatchSize {
		errs = append(errs, fmt.Errorf("default_batch_size must be in 1..%d", c.MaxBatchSize))
	}
	if c.NativeDim < embed.MaxDimension {
		errs = append(errs, fmt.Errorf("native_dim must be at least %d", embed.MaxDimension))
	}
	if c.IdleTimeoutSeconds != nil && *c.IdleTimeoutSeconds < 0 {
		errs = append(errs, errors.New("idle_timeout_seconds must not be negative"))
	}
	if c.CheckIntervalSeconds < 0 {
		errs = append(errs, errors.New("check_interval_seconds must not be negative"))
	}
	switch c.LogFormat {
	case "", "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log_format must be json or console, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// ResolveDevice maps "auto" to cuda when an NVIDIA device is present and to
// cpu otherwise. Explicit values are returned unchanged.
func (c Config) ResolveDevice() string {
	if c.Device != "auto" && c.Device != "" {
		return c.Device
	}
	if fsutil.Exists(nvidiaDeviceNode) {
		return "cuda"
	}
	return "cpu"
}
