// Package embed turns texts into output vectors using an already loaded
// model: task prefixing, bounded batches, per-row layer normalization,
// Matryoshka truncation and optional L2 normalization.
package embed

import (
	"context"
	"fmt"
)

// Defaults applied when corresponding Pipeline fields are unset.
const (
	DefaultNativeDim = 768
	DefaultBatchSize = 32
	DefaultEpsilon   = 1e-5
)

// Encoder maps a list of texts to one native-width vector per text.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// Request carries validated per-request parameters.
type Request struct {
	Texts          []string
	TaskType       TaskType
	Dimensionality int
	Normalize      bool
	// BatchSize of 0 selects the pipeline default.
	BatchSize int
}

// Pipeline holds the fixed post-processing parameters of the model.
type Pipeline struct {
	NativeDim        int
	DefaultBatchSize int
	Epsilon          float64
}

// New returns a Pipeline with zero fields replaced by package defaults.
func New(nativeDim, defaultBatchSize int) Pipeline {
	p := Pipeline{NativeDim: nativeDim, DefaultBatchSize: defaultBatchSize}
	return p.withDefaults()
}

func (p Pipeline) withDefaults() Pipeline {
	if p.NativeDim <= 0 {
		p.NativeDim = DefaultNativeDim
	}
	if p.DefaultBatchSize <= 0 {
		p.DefaultBatchSize = DefaultBatchSize
	}
	if p.Epsilon <= 0 {
		p.Epsilon = DefaultEpsilon
	}
	return p
}

// PrepareTexts prefixes every text with "<task>: ".
func PrepareTexts(texts []string, task TaskType) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = string(task) + ": " + t
	}
	return out
}

// Batches returns how many chunks of size n texts split into.
func Batches(n, size int) int {
	if n <= 0 {
		return 0
	}
	if size <= 0 {
		size = DefaultBatchSize
	}
	return (n + size - 1) / size
}

// Generate embeds req.Texts with enc. The result is parallel to req.Texts and
// every row has req.Dimensionality components (NativeDim when unset).
// Chunks are encoded sequentially; an encoder failure aborts the request
// and a cancelled ctx stops it before the next chunk.
func (p Pipeline) Generate(ctx context.Context, enc Encoder, req Request) ([][]float32, error) {
	p = p.withDefaults()
	task := req.TaskType
	if task == "" {
		task = DefaultTaskType
	}
	dim := req.Dimensionality
	if dim <= 0 || dim > p.NativeDim {
		dim = p.NativeDim
	}
	size := req.BatchSize
	if size <= 0 {
		size = p.DefaultBatchSize
	}

	texts := PrepareTexts(req.Texts, task)
	out := make([][]float32, 0, len(texts))
	scratch := make([]float32, p.NativeDim)
	for start := 0; start < len(texts); start += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		raw, err := enc.Encode(ctx, texts[start:end])
		if err != nil {
			return nil, &InferenceError{Offset: start, Cause: err}
		}
		if len(raw) != end-start {
			return nil, &InferenceError{Offset: start, Cause: fmt.Errorf("model returned %d vectors for %d texts", len(raw), end-start)}
		}
		for i, r := range raw {
			if len(r) != p.NativeDim {
				return nil, &InferenceError{Offset: start, Cause: fmt.Errorf("vector %d has width %d, want %d", start+i, len(r), p.NativeDim)}
			}
			copy(scratch, r)
			LayerNorm(scratch, p.Epsilon)
			row := make([]float32, dim)
			copy(row, Truncate(scratch, dim))
			if req.Normalize {
				NormalizeL2(row)
			}
			out = append(out, row)
		}
	}
	return out, nil
}
