//go:build llama

package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"

	"embedd/internal/common/fsutil"
	"embedd/internal/manager"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

type llamaOptions struct {
	path        string
	contextSize int
	threads     int
	gpuLayers   int
	nativeDim   int
}

// Llama holds GGUF weights loaded through llama.cpp in embedding mode.
type Llama struct {
	mu        sync.Mutex // llama.cpp contexts are not safe for concurrent use
	model     *llama.LLama
	threads   int
	nativeDim int
}

func loadLlama(_ context.Context, o llamaOptions) (manager.Model, error) {
	if strings.TrimSpace(o.path) == "" {
		return nil, errors.New("model path is empty")
	}
	if !fsutil.IsFile(o.path) {
		return nil, manager.ErrModelNotFound(o.path)
	}
	mo := []llama.ModelOption{
		llama.EnableEmbeddings,
		llama.SetContext(o.contextSize),
	}
	if o.gpuLayers > 0 {
		mo = append(mo, llama.SetGPULayers(o.gpuLayers), llama.EnableF16Memory)
	}
	m, err := llama.New(o.path, mo...)
	if err != nil {
		return nil, fmt.Errorf("llama load %s: %w", o.path, err)
	}
	return &Llama{model: m, threads: max(1, o.threads), nativeDim: o.nativeDim}, nil
}

func (l *Llama) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.model == nil {
		return nil, errors.New("llama model not initialized")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		emb, err := l.model.Embeddings(t, llama.SetThreads(l.threads))
		if err != nil {
			return nil, fmt.Errorf("llama embeddings: %w", err)
		}
		if l.nativeDim > 0 && len(emb) > l.nativeDim {
			emb = emb[:l.nativeDim]
		}
		out[i] = emb
	}
	return out, nil
}

func (l *Llama) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.model != nil {
		l.model.Free()
		l.model = nil
	}
	return nil
}
