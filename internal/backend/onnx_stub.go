//go:build !cgo

package backend

import (
	"context"

	"embedd/internal/manager"
)

var onnxBuilt = false

type onnxOptions struct {
	modelPath     string
	tokenizerPath string
	libraryPath   string
	maxTokens     int
	nativeDim     int
	cuda          bool
}

func loadONNX(context.Context, onnxOptions) (manager.Model, error) {
	return nil, manager.ErrDependencyUnavailable("onnx backend requires cgo: build with CGO_ENABLED=1 and onnxruntime")
}
