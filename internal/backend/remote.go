package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"embedd/internal/manager"
)

type remoteOptions struct {
	baseURL   string
	apiKey    string
	model     string
	nativeDim int
}

// Remote delegates encoding to an OpenAI-compatible /v1/embeddings upstream,
// for example a llama-server hosting the same weights.
type Remote struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	nativeDim int
}

func newRemote(_ context.Context, o remoteOptions) (manager.Model, error) {
	if strings.TrimSpace(o.model) == "" {
		return nil, errors.New("remote model name is empty")
	}
	cfg := openai.DefaultConfig(o.apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(o.baseURL, "/")
	}
	return &Remote{
		client:    openai.NewClientWithConfig(cfg),
		model:     openai.EmbeddingModel(o.model),
		nativeDim: o.nativeDim,
	}, nil
}

func (r *Remote) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := r.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: r.model,
	})
	if err != nil {
		return nil, fmt.Errorf("remote embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("remote embeddings: got %d rows, expected %d", len(resp.Data), len(texts))
	}
	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	out := make([][]float32, len(data))
	for i, d := range data {
		if r.nativeDim > 0 && len(d.Embedding) != r.nativeDim {
			return nil, fmt.Errorf("remote embeddings: row %d has width %d, expected %d", i, len(d.Embedding), r.nativeDim)
		}
		out[i] = d.Embedding
	}
	return out, nil
}

// Close is a no-op; the HTTP client holds no per-model resources.
func (r *Remote) Close() error { return nil }
