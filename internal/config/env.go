package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type envBinding struct {
	names []string
	set   func(c *Config, v string) error
}

func intVar(dst func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func boolVar(dst func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

func strVar(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = strings.TrimSpace(v)
		return nil
	}
}

// Later names win over earlier ones when both are set.
var envBindings = []envBinding{
	{[]string{"PORT"}, func(c *Config, v string) error {
		if _, err := strconv.Atoi(strings.TrimSpace(v)); err != nil {
			return err
		}
		c.Addr = ":" + strings.TrimSpace(v)
		return nil
	}},
	{[]string{"EMBEDD_ADDR"}, strVar(func(c *Config) *string { return &c.Addr })},
	{[]string{"API_KEY", "EMBEDD_API_KEY"}, strVar(func(c *Config) *string { return &c.APIKey })},
	{[]string{"DEBUG", "EMBEDD_DEBUG"}, boolVar(func(c *Config) *bool { return &c.Debug })},
	{[]string{"EMBEDD_LOG_LEVEL"}, strVar(func(c *Config) *string { return &c.LogLevel })},
	{[]string{"EMBEDD_LOG_FORMAT"}, strVar(func(c *Config) *string { return &c.LogFormat })},
	{[]string{"MODEL_NAME", "EMBEDD_MODEL_NAME"}, strVar(func(c *Config) *string { return &c.ModelName })},
	{[]string{"EMBEDD_MODEL_PATH"}, strVar(func(c *Config) *string { return &c.ModelPath })},
	{[]string{"EMBEDD_TOKENIZER_PATH"}, strVar(func(c *Config) *string { return &c.TokenizerPath })},
	{[]string{"ONNXRUNTIME_LIB", "EMBEDD_ONNX_LIBRARY_PATH"}, strVar(func(c *Config) *string { return &c.ONNXLibraryPath })},
	{[]string{"EMBEDD_BACKEND"}, strVar(func(c *Config) *string { return &c.Backend })},
	{[]string{"DEVICE", "EMBEDD_DEVICE"}, strVar(func(c *Config) *string { return &c.Device })},
	{[]string{"EMBEDD_GPU_LAYERS"}, intVar(func(c *Config) *int { return &c.GPULayers })},
	{[]string{"EMBEDD_THREADS"}, intVar(func(c *Config) *int { return &c.Threads })},
	{[]string{"EMBEDD_CONTEXT_SIZE"}, intVar(func(c *Config) *int { return &c.ContextSize })},
	{[]string{"EMBEDD_MAX_TOKENS"}, intVar(func(c *Config) *int { return &c.MaxTokens })},
	{[]string{"EMBEDD_NATIVE_DIM"}, intVar(func(c *Config) *int { return &c.NativeDim })},
	{[]string{"MAX_BATCH_SIZE", "EMBEDD_MAX_BATCH_SIZE"}, intVar(func(c *Config) *int { return &c.MaxBatchSize })},
	{[]string{"DEFAULT_BATCH_SIZE", "EMBEDD_DEFAULT_BATCH_SIZE"}, intVar(func(c *Config) *int { return &c.DefaultBatchSize })},
	{[]string{"MODEL_IDLE_TIMEOUT_SECONDS", "EMBEDD_IDLE_TIMEOUT_SECONDS"}, func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		c.IdleTimeoutSeconds = Seconds(n)
		return nil
	}},
	{[]string{"MODEL_CHECK_INTERVAL_SECONDS", "EMBEDD_CHECK_INTERVAL_SECONDS"}, intVar(func(c *Config) *int { return &c.CheckIntervalSeconds })},
	{[]string{"EMBEDD_MAX_BODY_BYTES"}, func(c *Config, v string) error {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return err
		}
		c.MaxBodyBytes = n
		return nil
	}},
	{[]string{"EMBEDD_CORS_ENABLED"}, boolVar(func(c *Config) *bool { return &c.CORSEnabled })},
	{[]string{"EMBEDD_CORS_ALLOWED_ORIGINS"}, func(c *Config, v string) error {
		c.CORSAllowedOrigins = SplitCSV(v)
		return nil
	}},
	{[]string{"EMBEDD_REMOTE_BASE_URL"}, strVar(func(c *Config) *string { return &c.RemoteBaseURL })},
	{[]string{"OPENAI_API_KEY", "EMBEDD_REMOTE_API_KEY"}, strVar(func(c *Config) *string { return &c.RemoteAPIKey })},
	{[]string{"EMBEDD_REMOTE_MODEL"}, strVar(func(c *Config) *string { return &c.RemoteModel })},
	{[]string{"EMBEDD_WATCH_MODEL_FILE"}, boolVar(func(c *Config) *bool { return &c.WatchModelFile })},
}

// FromEnv overlays environment variables onto base. Dotenv files are read
// first (".env" when none are named); a missing file is not an error and
// variables already present in the process environment are never replaced.
func FromEnv(base Config, dotenv ...string) (Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, f := range dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return base, fmt.Errorf("load %s: %w", f, err)
		}
	}
	cfg := base
	for _, b := range envBindings {
		for _, name := range b.names {
			v, ok := os.LookupEnv(name)
			if !ok || strings.TrimSpace(v) == "" {
				continue
			}
			if err := b.set(&cfg, v); err != nil {
				return base, fmt.Errorf("env %s=%q: %w", name, v, err)
			}
		}
	}
	return cfg, nil
}

// SplitCSV splits a comma-separated list, trimming blanks.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
