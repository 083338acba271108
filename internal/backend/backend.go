// Package backend builds the model handles the lifecycle manager loads and
// evicts. Each backend turns a config into a manager.Loader; the loader does
// the slow work (weights, sessions, device placement) only when called.
package backend

import (
	"context"
	"fmt"
	"runtime/debug"

	"embedd/internal/config"
	"embedd/internal/manager"
	"embedd/pkg/types"
)

// New returns the loader for cfg.Backend. cfg must already be defaulted.
func New(cfg config.Config) (manager.Loader, error) {
	device := cfg.ResolveDevice()
	switch cfg.Backend {
	case "llama":
		opts := llamaOptions{
			path:        cfg.ModelPath,
			contextSize: cfg.ContextSize,
			threads:     cfg.Threads,
			gpuLayers:   cfg.GPULayers,
			nativeDim:   cfg.NativeDim,
		}
		if device == "cuda" && opts.gpuLayers == 0 {
			opts.gpuLayers = 999
		}
		if device == "cpu" {
			opts.gpuLayers = 0
		}
		return func(ctx context.Context) (manager.Model, error) { return loadLlama(ctx, opts) }, nil
	case "onnx":
		opts := onnxOptions{
			modelPath:     cfg.ModelPath,
			tokenizerPath: cfg.TokenizerPath,
			libraryPath:   cfg.ONNXLibraryPath,
			maxTokens:     cfg.MaxTokens,
			nativeDim:     cfg.NativeDim,
			cuda:          device == "cuda",
		}
		return func(ctx context.Context) (manager.Model, error) { return loadONNX(ctx, opts) }, nil
	case "remote":
		opts := remoteOptions{
			baseURL:   cfg.RemoteBaseURL,
			apiKey:    cfg.RemoteAPIKey,
			model:     cfg.RemoteModel,
			nativeDim: cfg.NativeDim,
		}
		return func(ctx context.Context) (manager.Model, error) { return newRemote(ctx, opts) }, nil
	case "hash":
		dim := cfg.NativeDim
		return func(context.Context) (manager.Model, error) { return NewHash(dim), nil }, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Compiled reports whether the named backend is usable in this binary.
// llama needs the 'llama' build tag and onnx needs cgo.
func Compiled(name string) bool {
	switch name {
	case "llama":
		return llamaBuilt
	case "onnx":
		return onnxBuilt
	case "remote", "hash":
		return true
	}
	return false
}

// Reclaim returns the memory reclaim step run after a model is released.
// Native runtimes free their buffers in Close; this hands the freed Go heap
// back to the OS so the process footprint drops while idle.
func Reclaim() func() error {
	return func() error {
		debug.FreeOSMemory()
		return nil
	}
}

// Describe summarizes the configured model for info endpoints.
func Describe(cfg config.Config) types.ModelInfo {
	return types.ModelInfo{
		Name:      cfg.ModelName,
		Path:      cfg.ModelPath,
		Backend:   cfg.Backend,
		Device:    cfg.ResolveDevice(),
		NativeDim: cfg.NativeDim,
	}
}
