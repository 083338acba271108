// Package manager owns the lifecycle of the single in-memory embedding model.
// It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: Config and package defaults; New applies defaults.
//   - types.go: Model/Loader contracts, State and Snapshot.
//   - errors.go: error types and helpers (IsLoadFailure, IsDependencyUnavailable).
//   - ensure.go: Acquire, leases and the load path.
//   - evict.go: Sweep, Evict and handle release.
//   - run.go: Start (eager load) and Run (periodic sweeper).
//   - unload.go: Close at shutdown.
//   - status_report.go: Snapshot/Status reporting helpers.
//   - events.go, eventpub_*.go: lifecycle events and publishers.
//
// Locking: a one-slot channel serializes every read-check-act sequence on the
// model handle (load, sweep, evict). Callers waiting for it may give up via
// their context; a load that has started always runs to completion. A separate
// RWMutex guards the reporting fields so Status never waits behind a load.
// Eviction drops the handle at once but closes it only after every lease
// taken by Acquire has been released.
//
// External packages should use the public methods only (New, Start, Run,
// Acquire, Sweep, Evict, Close, Snapshot, Status, Ready).
package manager
