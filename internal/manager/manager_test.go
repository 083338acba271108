package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeModel is an in-memory Model that records Close calls. Like the real
// backends it refuses to encode once closed.
type fakeModel struct {
	id       int
	closed   atomic.Bool
	closes   atomic.Int32
	closeErr error
}

func (f *fakeModel) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if f.closed.Load() {
		return nil, errors.New("model not initialized")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(f.id), float32(i)}
	}
	return out, nil
}

func (f *fakeModel) Close() error {
	f.closes.Add(1)
	f.closed.Store(true)
	return f.closeErr
}

// countingLoader hands out fresh fakeModels and counts invocations.
type countingLoader struct {
	calls    atomic.Int32
	delay    time.Duration
	fail     atomic.Int32 // number of upcoming calls that fail
	closeErr error

	mu     sync.Mutex
	models []*fakeModel
}

func (l *countingLoader) load(ctx context.Context) (Model, error) {
	n := l.calls.Add(1)
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if l.fail.Load() > 0 {
		l.fail.Add(-1)
		return nil, errors.New("weights unreadable")
	}
	fm := &fakeModel{id: int(n), closeErr: l.closeErr}
	l.mu.Lock()
	l.models = append(l.models, fm)
	l.mu.Unlock()
	return fm, nil
}

func (l *countingLoader) last() *fakeModel {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.models) == 0 {
		return nil
	}
	return l.models[len(l.models)-1]
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// acquireAndRelease takes a lease and returns it straight away.
func acquireAndRelease(ctx context.Context, m *Manager) (Model, error) {
	mdl, release, err := m.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	release()
	return mdl, nil
}

func newTestManager(t *testing.T, l *countingLoader, idle time.Duration, clk *fakeClock) *Manager {
	t.Helper()
	cfg := Config{Loader: l.load, IdleTimeout: idle}
	if clk != nil {
		cfg.Clock = clk.Now
	}
	return New(cfg)
}

func TestNewDefaults(t *testing.T) {
	m := New(Config{IdleTimeout: -time.Second})
	if m.idleTimeout != 0 {
		t.Fatalf("negative idle timeout should clamp to 0, got %v", m.idleTimeout)
	}
	if m.checkInterval != defaultCheckInterval {
		t.Fatalf("expected default check interval, got %v", m.checkInterval)
	}
	if m.Loaded() {
		t.Fatalf("expected no model before first acquire")
	}
	if !m.Ready() {
		t.Fatalf("unloaded manager should report ready")
	}
	if s := m.Snapshot(); s.State != StateUnloaded {
		t.Fatalf("expected unloaded state, got %s", s.State)
	}
}

func TestAcquireLoadsOnceAndReuses(t *testing.T) {
	l := &countingLoader{}
	m := newTestManager(t, l, time.Hour, nil)
	ctx := context.Background()

	a, err := acquireAndRelease(ctx, m)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	b, err := acquireAndRelease(ctx, m)
	if err != nil {
		t.Fatalf("acquire 2: %v", err)
	}
	if a != b {
		t.Fatalf("expected the same handle on repeated acquire")
	}
	if got := l.calls.Load(); got != 1 {
		t.Fatalf("expected 1 load, got %d", got)
	}
	s := m.Snapshot()
	if !s.Loaded || s.State != StateReady || s.InstanceID == "" || s.LoadsTotal != 1 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}

func TestConcurrentAcquireSingleLoad(t *testing.T) {
	l := &countingLoader{delay: 50 * time.Millisecond}
	m := newTestManager(t, l, time.Hour, nil)

	const n = 16
	var wg sync.WaitGroup
	handles := make([]Model, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = acquireAndRelease(context.Background(), m)
		}(i)
	}
	wg.Wait()
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("acquire %d: %v", i, errs[i])
		}
		if handles[i] != handles[0] {
			t.Fatalf("acquire %d returned a different handle", i)
		}
	}
	if got := l.calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 load under concurrency, got %d", got)
	}
}

func TestSweepEvictsIdleModelAndReloads(t *testing.T) {
	clk := newFakeClock()
	l := &countingLoader{}
	m := newTestManager(t, l, 10*time.Second, clk)
	var reclaims atomic.Int32
	m.reclaim = func() error { reclaims.Add(1); return nil }

	if _, err := acquireAndRelease(context.Background(), m); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	first := l.last()

	clk.Advance(10 * time.Second)
	if m.Sweep() {
		t.Fatalf("idle equal to the timeout must not evict")
	}
	clk.Advance(time.Second)
	if !m.Sweep() {
		t.Fatalf("expected eviction after idle timeout")
	}
	if m.Loaded() {
		t.Fatalf("expected model released")
	}
	if !first.closed.Load() {
		t.Fatalf("expected evicted model to be closed")
	}
	if reclaims.Load() != 1 {
		t.Fatalf("expected one reclaim, got %d", reclaims.Load())
	}
	if m.Sweep() {
		t.Fatalf("sweep on an unloaded manager must be a no-op")
	}

	if _, err := acquireAndRelease(context.Background(), m); err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if got := l.calls.Load(); got != 2 {
		t.Fatalf("expected reload, got %d loads", got)
	}
	if s := m.Snapshot(); s.EvictionsTotal != 1 || s.LoadsTotal != 2 {
		t.Fatalf("unexpected counters: %+v", s)
	}
}

func TestAcquireResetsIdleClock(t *testing.T) {
	clk := newFakeClock()
	l := &countingLoader{}
	m := newTestManager(t, l, 10*time.Second, clk)
	ctx := context.Background()

	if _, err := acquireAndRelease(ctx, m); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	clk.Advance(8 * time.Second)
	if _, err := acquireAndRelease(ctx, m); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	clk.Advance(8 * time.Second)
	if m.Sweep() {
		t.Fatalf("recently used model must not be evicted")
	}
}

func TestZeroIdleTimeoutNeverEvicts(t *testing.T) {
	clk := newFakeClock()
	l := &countingLoader{}
	m := newTestManager(t, l, 0, clk)

	if _, err := acquireAndRelease(context.Background(), m); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	clk.Advance(1000 * time.Hour)
	if m.Sweep() {
		t.Fatalf("eviction must be disabled with a zero timeout")
	}
	if !m.Loaded() {
		t.Fatalf("expected model to stay resident")
	}
}

func TestLoadFailureThenRetry(t *testing.T) {
	l := &countingLoader{}
	l.fail.Store(1)
	m := newTestManager(t, l, time.Hour, nil)

	_, err := acquireAndRelease(context.Background(), m)
	if err == nil {
		t.Fatalf("expected load error")
	}
	if !IsLoadFailure(err) {
		t.Fatalf("expected LoadError, got %T %v", err, err)
	}
	if m.Ready() {
		t.Fatalf("manager must not be ready after a failed load")
	}
	s := m.Snapshot()
	if s.State != StateError || s.LastError == "" || s.LoadFailuresTotal != 1 || s.Loaded {
		t.Fatalf("unexpected snapshot after failure: %+v", s)
	}

	if _, err := acquireAndRelease(context.Background(), m); err != nil {
		t.Fatalf("retry acquire: %v", err)
	}
	if !m.Ready() || !m.Loaded() {
		t.Fatalf("expected recovery after successful retry")
	}
	if s := m.Snapshot(); s.LastError != "" {
		t.Fatalf("last error should clear after success, got %q", s.LastError)
	}
}

func TestNilLoaderIsLoadFailure(t *testing.T) {
	m := New(Config{})
	if _, err := acquireAndRelease(context.Background(), m); !IsLoadFailure(err) {
		t.Fatalf("expected load failure for missing loader, got %v", err)
	}
}

func TestReleaseSwallowsCloseAndReclaimErrors(t *testing.T) {
	l := &countingLoader{closeErr: errors.New("close boom")}
	pub := NewMemoryPublisher()
	m := New(Config{
		Loader:      l.load,
		IdleTimeout: time.Hour,
		Publisher:   pub,
		Reclaim:     func() error { return errors.New("reclaim boom") },
	})
	if _, err := acquireAndRelease(context.Background(), m); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !m.Evict("admin") {
		t.Fatalf("expected evict to release the model")
	}
	if m.Loaded() {
		t.Fatalf("handle must be dropped even when close fails")
	}
	var stages []string
	var evicted bool
	for _, e := range pub.Events() {
		switch e.Name {
		case "evict_error":
			stages = append(stages, e.Fields["stage"].(string))
		case "evict":
			evicted = true
			if e.Fields["reason"] != "admin" {
				t.Fatalf("unexpected evict reason %v", e.Fields["reason"])
			}
		}
	}
	if len(stages) != 2 || stages[0] != "close" || stages[1] != "reclaim" {
		t.Fatalf("expected close and reclaim errors, got %v", stages)
	}
	if !evicted {
		t.Fatalf("expected evict event")
	}
}

func TestEvictWhenUnloadedIsNoop(t *testing.T) {
	m := newTestManager(t, &countingLoader{}, time.Hour, nil)
	if m.Evict("admin") {
		t.Fatalf("evict on an empty manager must report false")
	}
}

func TestStatusDoesNotTouchLastUsed(t *testing.T) {
	clk := newFakeClock()
	l := &countingLoader{}
	m := newTestManager(t, l, 10*time.Second, clk)
	if _, err := acquireAndRelease(context.Background(), m); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	used := m.Snapshot().LastUsed

	clk.Advance(6 * time.Second)
	st := m.Status()
	if st.IdleSeconds != 6 || st.UnloadInSeconds != 4 {
		t.Fatalf("unexpected idle accounting: %+v", st)
	}
	_ = m.Ready()
	_ = m.Loaded()
	if got := m.Snapshot().LastUsed; !got.Equal(used) {
		t.Fatalf("status must not refresh last used: %v != %v", got, used)
	}
	clk.Advance(5 * time.Second)
	if !m.Sweep() {
		t.Fatalf("status polling must not keep the model alive")
	}
}

func TestStatusDuringLoadDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	m := New(Config{Loader: func(ctx context.Context) (Model, error) {
		<-release
		return &fakeModel{id: 1}, nil
	}})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = acquireAndRelease(context.Background(), m)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for m.Snapshot().State != StateLoading {
		if time.Now().After(deadline) {
			t.Fatalf("load never started")
		}
		time.Sleep(time.Millisecond)
	}
	if m.Ready() {
		t.Fatalf("must not be ready while loading")
	}
	if st := m.Status(); st.State != string(StateLoading) {
		t.Fatalf("expected loading status, got %q", st.State)
	}
	close(release)
	<-done
	if !m.Ready() {
		t.Fatalf("expected ready after load completes")
	}
}

func TestAcquireContextCancelledWhileWaiting(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	m := New(Config{Loader: func(ctx context.Context) (Model, error) {
		calls.Add(1)
		<-release
		return &fakeModel{id: 1}, nil
	}})
	go func() { _, _ = acquireAndRelease(context.Background(), m) }()
	for m.Snapshot().State != StateLoading {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := acquireAndRelease(ctx, m); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while waiting, got %v", err)
	}
	close(release)
	if _, err := acquireAndRelease(context.Background(), m); err != nil {
		t.Fatalf("acquire after load: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single load, got %d", calls.Load())
	}
}

func TestLoadSurvivesCallerCancellation(t *testing.T) {
	m := New(Config{Loader: func(ctx context.Context) (Model, error) {
		time.Sleep(30 * time.Millisecond)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &fakeModel{id: 1}, nil
	}})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	if _, err := acquireAndRelease(ctx, m); err != nil {
		t.Fatalf("load must not observe caller cancellation: %v", err)
	}
	if !m.Loaded() {
		t.Fatalf("expected model loaded")
	}
}

func TestStartLoadsEagerly(t *testing.T) {
	l := &countingLoader{}
	m := newTestManager(t, l, time.Hour, nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !m.Loaded() {
		t.Fatalf("expected model loaded after start")
	}
	if _, err := acquireAndRelease(context.Background(), m); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if l.calls.Load() != 1 {
		t.Fatalf("acquire after start must reuse the handle")
	}
}

func TestStartFailureLeavesManagerRetryable(t *testing.T) {
	l := &countingLoader{}
	l.fail.Store(1)
	m := newTestManager(t, l, time.Hour, nil)
	if err := m.Start(context.Background()); !IsLoadFailure(err) {
		t.Fatalf("expected load failure from start, got %v", err)
	}
	if _, err := acquireAndRelease(context.Background(), m); err != nil {
		t.Fatalf("acquire should retry the load: %v", err)
	}
}

func TestRunEvictsIdleModel(t *testing.T) {
	clk := newFakeClock()
	l := &countingLoader{}
	m := New(Config{Loader: l.load, IdleTimeout: time.Second, CheckInterval: 5 * time.Millisecond, Clock: clk.Now})
	if _, err := acquireAndRelease(context.Background(), m); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	clk.Advance(2 * time.Second)
	deadline := time.Now().Add(2 * time.Second)
	for m.Loaded() {
		if time.Now().After(deadline) {
			t.Fatalf("sweeper did not evict the idle model")
		}
		time.Sleep(2 * time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}

func TestRunDisabledWaitsForCancel(t *testing.T) {
	m := newTestManager(t, &countingLoader{}, 0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	select {
	case <-done:
		t.Fatalf("run returned before cancel")
	case <-time.After(20 * time.Millisecond):
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestCloseReleasesModel(t *testing.T) {
	l := &countingLoader{}
	m := newTestManager(t, l, time.Hour, nil)
	if _, err := acquireAndRelease(context.Background(), m); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if m.Loaded() || !l.last().closed.Load() {
		t.Fatalf("expected model released on close")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestHeldHandleSurvivesSweep(t *testing.T) {
	clk := newFakeClock()
	l := &countingLoader{}
	m := newTestManager(t, l, time.Second, clk)
	var reclaims atomic.Int32
	m.reclaim = func() error { reclaims.Add(1); return nil }
	ctx := context.Background()

	mdl, release, err := m.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := mdl.Encode(ctx, []string{"chunk one"}); err != nil {
		t.Fatalf("first chunk: %v", err)
	}
	if s := m.Snapshot(); s.InFlight != 1 {
		t.Fatalf("expected one lease in flight, got %d", s.InFlight)
	}

	clk.Advance(2 * time.Second)
	if !m.Sweep() {
		t.Fatalf("expected idle eviction")
	}
	if m.Loaded() {
		t.Fatalf("evicted handle must leave the manager immediately")
	}
	if _, err := mdl.Encode(ctx, []string{"chunk two"}); err != nil {
		t.Fatalf("held handle must keep working after eviction: %v", err)
	}
	if l.last().closed.Load() || reclaims.Load() != 0 {
		t.Fatalf("close and reclaim must wait for the holder")
	}

	release()
	if !l.last().closed.Load() || reclaims.Load() != 1 {
		t.Fatalf("expected close and reclaim once the lease is released")
	}
	release()
	if n := l.last().closes.Load(); n != 1 || reclaims.Load() != 1 {
		t.Fatalf("double release must not close again: closes=%d reclaims=%d", n, reclaims.Load())
	}
}

func TestEvictWhileLeasedLoadsFreshHandle(t *testing.T) {
	l := &countingLoader{}
	m := newTestManager(t, l, time.Hour, nil)
	ctx := context.Background()

	old, releaseOld, err := m.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !m.Evict("admin") {
		t.Fatalf("expected evict to report true")
	}
	fresh, releaseFresh, err := m.Acquire(ctx)
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if fresh == old {
		t.Fatalf("expected a new handle after eviction")
	}
	if l.calls.Load() != 2 {
		t.Fatalf("expected a reload, got %d loads", l.calls.Load())
	}
	releaseFresh()
	oldFake := old.(*fakeModel)
	if oldFake.closed.Load() {
		t.Fatalf("old handle closed while still leased")
	}
	releaseOld()
	if !oldFake.closed.Load() {
		t.Fatalf("expected old handle closed after its last release")
	}
	if fresh.(*fakeModel).closed.Load() {
		t.Fatalf("current handle must stay open")
	}
}

func TestCloseDefersToLeaseHolders(t *testing.T) {
	l := &countingLoader{}
	m := newTestManager(t, l, time.Hour, nil)
	_, release, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if m.Loaded() || l.last().closed.Load() {
		t.Fatalf("expected handle dropped but not closed while leased")
	}
	release()
	if !l.last().closed.Load() {
		t.Fatalf("expected handle closed after release")
	}
}

func TestConcurrentReleasesCloseOnce(t *testing.T) {
	l := &countingLoader{}
	m := newTestManager(t, l, time.Hour, nil)

	const n = 8
	releases := make([]func(), n)
	for i := range releases {
		_, rel, err := m.Acquire(context.Background())
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		releases[i] = rel
	}
	m.Evict("admin")

	var wg sync.WaitGroup
	for _, rel := range releases {
		wg.Add(1)
		go func(rel func()) {
			defer wg.Done()
			rel()
		}(rel)
	}
	wg.Wait()
	if got := l.last().closes.Load(); got != 1 {
		t.Fatalf("expected exactly one close, got %d", got)
	}
}
