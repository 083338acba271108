//go:build !llama

package backend

import (
	"context"

	"embedd/internal/manager"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = false

type llamaOptions struct {
	path        string
	contextSize int
	threads     int
	gpuLayers   int
	nativeDim   int
}

// loadLlama refuses to load without the 'llama' build tag so default builds
// stay CGO-free and never serve mocked vectors.
func loadLlama(context.Context, llamaOptions) (manager.Model, error) {
	return nil, manager.ErrDependencyUnavailable("llama backend not built: rebuild with -tags=llama")
}
