package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"embedd/internal/backend"
	"embedd/internal/httpapi"
	"embedd/internal/manager"
	"embedd/pkg/types"
)

// countingHash wraps the hash backend so tests can see how often the model
// was built and released.
type countingHash struct {
	loads  atomic.Int32
	closes atomic.Int32
	delay  time.Duration
}

// trackedModel fails to encode once closed, like the native backends do.
type trackedModel struct {
	*backend.Hash
	closed *atomic.Bool
	closes *atomic.Int32
}

func (m trackedModel) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if m.closed.Load() {
		return nil, errors.New("model closed")
	}
	return m.Hash.Encode(ctx, texts)
}

func (m trackedModel) Close() error {
	m.closed.Store(true)
	m.closes.Add(1)
	return m.Hash.Close()
}

func (c *countingHash) load(ctx context.Context) (manager.Model, error) {
	c.loads.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return trackedModel{Hash: backend.NewHash(768), closed: new(atomic.Bool), closes: &c.closes}, nil
}

// newServer wires a real manager and HTTP mux over the hash backend.
func newServer(t *testing.T, cfg manager.Config, opts httpapi.Options) (*httptest.Server, *manager.Manager) {
	t.Helper()
	mgr := manager.New(cfg)
	if opts.Model.Name == "" {
		opts.Model = types.ModelInfo{Name: "nomic-ai/nomic-embed-text-v1.5", Backend: "hash", Device: "cpu", NativeDim: 768}
	}
	srv := httptest.NewServer(httpapi.NewMux(mgr, opts))
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.Close()
	})
	return srv, mgr
}

func postEmbed(t *testing.T, base string, body string) (int, types.EmbeddingResponse) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, base+"/embed", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	defer resp.Body.Close()
	var out types.EmbeddingResponse
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(b, &out); err != nil {
			t.Fatalf("json: %v body=%s", err, string(b))
		}
	}
	return resp.StatusCode, out
}

func getStatus(t *testing.T, base string) types.StatusResponse {
	t.Helper()
	resp, err := http.Get(base + "/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()
	var st types.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("status json: %v", err)
	}
	return st
}
