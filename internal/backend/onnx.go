//go:build cgo

package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"

	"embedd/internal/common/fsutil"
	"embedd/internal/manager"
)

var onnxBuilt = true

var (
	ortOnce sync.Once
	ortErr  error
)

type onnxOptions struct {
	modelPath     string
	tokenizerPath string
	libraryPath   string
	maxTokens     int
	nativeDim     int
	cuda          bool
}

// ONNX runs a transformer export with ONNX Runtime and mean-pools
// last_hidden_state under the attention mask.
type ONNX struct {
	mu        sync.Mutex
	session   *ort.DynamicAdvancedSession
	tk        *tokenizer.Tokenizer
	maxTokens int
	nativeDim int
}

func initRuntime(libraryPath string) error {
	ortOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if !ort.IsInitialized() {
			ortErr = ort.InitializeEnvironment()
		}
	})
	return ortErr
}

func loadONNX(_ context.Context, o onnxOptions) (manager.Model, error) {
	if strings.TrimSpace(o.modelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	if !fsutil.IsFile(o.modelPath) {
		return nil, manager.ErrModelNotFound(o.modelPath)
	}
	tokPath := fsutil.Sibling(o.modelPath, "tokenizer.json", o.tokenizerPath)
	if !fsutil.IsFile(tokPath) {
		return nil, manager.ErrModelNotFound(tokPath)
	}
	if err := initRuntime(o.libraryPath); err != nil {
		return nil, manager.ErrDependencyUnavailable(fmt.Sprintf("onnxruntime unavailable: %v", err))
	}
	tk, err := pretrained.FromFile(tokPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", tokPath, err)
	}

	var opts *ort.SessionOptions
	if o.cuda {
		if opts, err = cudaSessionOptions(); err != nil {
			return nil, err
		}
		defer opts.Destroy()
	}
	session, err := ort.NewDynamicAdvancedSession(o.modelPath,
		[]string{"input_ids", "token_type_ids", "attention_mask"},
		[]string{"last_hidden_state"},
		opts)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}
	return &ONNX{session: session, tk: tk, maxTokens: o.maxTokens, nativeDim: o.nativeDim}, nil
}

func cudaSessionOptions() (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	cuda, err := ort.NewCUDAProviderOptions()
	if err != nil {
		opts.Destroy()
		return nil, manager.ErrDependencyUnavailable(fmt.Sprintf("onnxruntime CUDA provider unavailable: %v", err))
	}
	defer cuda.Destroy()
	if err := opts.AppendExecutionProviderCUDA(cuda); err != nil {
		opts.Destroy()
		return nil, manager.ErrDependencyUnavailable(fmt.Sprintf("onnxruntime CUDA provider unavailable: %v", err))
	}
	return opts, nil
}

func (e *ONNX) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, errors.New("onnx session closed")
	}

	ids := make([][]int, len(texts))
	types := make([][]int, len(texts))
	masks := make([][]int, len(texts))
	for i, t := range texts {
		enc, err := e.tk.EncodeSingle(t, true)
		if err != nil {
			return nil, fmt.Errorf("tokenize text %d: %w", i, err)
		}
		ids[i] = clipTokens(enc.Ids, e.maxTokens)
		types[i] = clipTokens(enc.TypeIds, e.maxTokens)
		masks[i] = clipTokens(enc.AttentionMask, e.maxTokens)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	flatIDs, seq := packTokens(ids)
	flatTypes, _ := packTokens(types)
	flatMask, _ := packTokens(masks)
	batch := int64(len(texts))
	shape := ort.NewShape(batch, int64(seq))

	idT, err := ort.NewTensor(shape, flatIDs)
	if err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer idT.Destroy()
	typeT, err := ort.NewTensor(shape, flatTypes)
	if err != nil {
		return nil, fmt.Errorf("token_type_ids tensor: %w", err)
	}
	defer typeT.Destroy()
	maskT, err := ort.NewTensor(shape, flatMask)
	if err != nil {
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	defer maskT.Destroy()
	outT, err := ort.NewEmptyTensor[float32](ort.NewShape(batch, int64(seq), int64(e.nativeDim)))
	if err != nil {
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	defer outT.Destroy()

	if err := e.session.Run([]ort.ArbitraryTensor{idT, typeT, maskT}, []ort.ArbitraryTensor{outT}); err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}
	return meanPool(outT.GetData(), flatMask, len(texts), seq, e.nativeDim), nil
}

func (e *ONNX) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}
