package backend

import (
	"context"
	"hash/fnv"
	"math"
)

// Hash is a deterministic model for development and tests: each text maps to
// a fixed pseudo-random vector seeded by its FNV hash. Identical inputs give
// identical rows regardless of batch composition.
type Hash struct {
	dim int
}

// NewHash returns a hash model producing rows of width dim (768 when <= 0).
func NewHash(dim int) *Hash {
	if dim <= 0 {
		dim = 768
	}
	return &Hash{dim: dim}
}

func (h *Hash) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.row(t)
	}
	return out, nil
}

func (h *Hash) row(text string) []float32 {
	f := fnv.New64a()
	_, _ = f.Write([]byte(text))
	seed := float64(f.Sum64()%1_000_003) + 1
	row := make([]float32, h.dim)
	for i := range row {
		row[i] = float32(math.Sin(seed*float64(i+1))*0.5 + 0.01*math.Cos(seed+float64(i)))
	}
	return row
}

// Dim returns the row width.
func (h *Hash) Dim() int { return h.dim }

// Close is a no-op.
func (h *Hash) Close() error { return nil }
