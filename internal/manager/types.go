package manager

import (
	"context"
	"time"
)

// Model is a loaded embedding model. Encode must be safe for concurrent use:
// many requests may hold the same handle at once.
//
// A Model may also implement io.Closer. Close is called once, after the handle
// has been evicted and every request that acquired it has released it.
type Model interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// Loader constructs a Model. It may be slow (weights, device placement).
type Loader func(ctx context.Context) (Model, error)

// State represents lifecycle state of the model handle.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateError    State = "error"
)

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	State      State
	Loaded     bool
	InstanceID string
	InFlight   int
	LoadedAt   time.Time
	LastUsed   time.Time
	IdleFor    time.Duration
	LastError  string

	LoadsTotal        uint64
	LoadFailuresTotal uint64
	EvictionsTotal    uint64

	IdleTimeout   time.Duration
	CheckInterval time.Duration
}
