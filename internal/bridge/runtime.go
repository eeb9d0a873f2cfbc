package bridge

import (
	"io"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
)

var runtimeSeq atomic.Uint64

// Runtime is an isolated engine instance. Every Context created from it
// shares its lock: at most one goroutine operates on a Runtime at a time,
// though that goroutine may re-enter it from a callback.
//
// A Runtime is Created by NewRuntime and Released by Release. Terminate
// interrupts in-flight execution and moves no state.
type Runtime struct {
	id         uint64
	logger     *slog.Logger
	registry   *require.Registry
	startup    *goja.Program
	startupSrc string

	lock reentrantLock

	// guarded by lock
	contexts map[*Context]struct{}
	released bool

	handleSeq atomic.Uint64

	// termMu guards active and vms, and serializes Interrupt against
	// ClearInterrupt. It is never held while calling into the engine.
	termMu sync.Mutex
	active bool
	vms    map[*goja.Runtime]struct{}

	deferredMu sync.Mutex
	deferred   []*Value
}

// RuntimeOption configures NewRuntime.
type RuntimeOption func(*runtimeOptions)

type runtimeOptions struct {
	logger   *slog.Logger
	registry *require.Registry
}

// WithLogger sets the logger used for lifecycle events. The default
// discards everything.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(o *runtimeOptions) {
		o.logger = logger
	}
}

// WithModuleRegistry enables CommonJS require() in every Context of the
// Runtime, resolving modules through registry.
func WithModuleRegistry(registry *require.Registry) RuntimeOption {
	return func(o *runtimeOptions) {
		o.registry = registry
	}
}

// NewRuntime creates a Runtime. startupData is optional; when present it must
// have been produced by CreateSnapshot, and its script runs in every new
// Context before the Context is returned.
func NewRuntime(startupData []byte, opts ...RuntimeOption) (*Runtime, error) {
	var o runtimeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := &Runtime{
		id:       runtimeSeq.Add(1),
		registry: o.registry,
		contexts: make(map[*Context]struct{}),
		vms:      make(map[*goja.Runtime]struct{}),
	}
	r.logger = o.logger.With("runtime", r.id)

	if startupData != nil {
		prg, src, err := loadSnapshot(startupData)
		if err != nil {
			return nil, err
		}
		r.startup, r.startupSrc = prg, src
	}

	r.logger.Debug("runtime created", "snapshot", r.startup != nil)
	return r, nil
}

// scope is one entered public operation: the runtime lock, held until
// exit. Each Context owns its own engine, so entering a Context selects
// nothing beyond checking it is still live.
//
// There is no handle scope object: transient engine values are ordinary Go
// values and are collected once unreachable.
type scope struct {
	rt    *Runtime
	outer bool
}

func (r *Runtime) enter() (scope, error) {
	outer := r.lock.lock()
	if outer {
		r.setActive(true)
	}
	s := scope{rt: r, outer: outer}
	if r.released {
		s.exit()
		return scope{}, ErrReleased
	}
	return s, nil
}

func (s scope) exit() {
	r := s.rt
	if s.outer {
		r.drainDeferred()
		r.setActive(false)
	}
	r.lock.unlock()
}

// setActive records whether an operation is in flight. Leaving the
// outermost operation clears any interrupt that was requested but never
// observed, so a late Terminate cannot abort the next operation.
func (r *Runtime) setActive(active bool) {
	r.termMu.Lock()
	defer r.termMu.Unlock()
	r.active = active
	if !active {
		for vm := range r.vms {
			vm.ClearInterrupt()
		}
	}
}

// Terminate aborts the script currently executing on the Runtime, if any.
// It may be called from any goroutine and does not wait for the Runtime's
// lock. The aborted operation returns an error wrapping ErrTerminated.
// Calling it while the Runtime is idle has no effect.
func (r *Runtime) Terminate() {
	r.termMu.Lock()
	defer r.termMu.Unlock()
	if !r.active {
		return
	}
	for vm := range r.vms {
		vm.Interrupt(ErrTerminated)
	}
	r.logger.Debug("runtime terminated")
}

// Release terminates any running script, then releases every Context and
// handle of the Runtime. Later operations return ErrReleased and releasing
// handles becomes a no-op. Release is idempotent.
func (r *Runtime) Release() {
	r.Terminate()
	r.lock.lock()
	defer r.lock.unlock()
	if r.released {
		return
	}
	for c := range r.contexts {
		c.releaseLocked()
	}
	r.released = true
	r.logger.Debug("runtime released")
}

// HeapStatistics describes memory use. The engine allocates from the Go
// heap, so the memory figures are process-wide.
type HeapStatistics struct {
	TotalHeapSize           uint64
	TotalHeapSizeExecutable uint64
	TotalPhysicalSize       uint64
	TotalAvailableSize      uint64
	UsedHeapSize            uint64
	HeapSizeLimit           uint64
	MallocedMemory          uint64
	PeakMallocedMemory      uint64
	DoesZapGarbage          bool

	// Contexts and Handles count the live contexts and handles of this
	// Runtime.
	Contexts int
	Handles  int
}

// HeapStatistics reports memory statistics. A released Runtime reports
// zero contexts and handles.
func (r *Runtime) HeapStatistics() HeapStatistics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	limit := debug.SetMemoryLimit(-1)
	stats := HeapStatistics{
		TotalHeapSize:      ms.HeapSys,
		TotalPhysicalSize:  ms.HeapSys - ms.HeapReleased,
		TotalAvailableSize: ms.HeapIdle - ms.HeapReleased,
		UsedHeapSize:       ms.HeapAlloc,
		HeapSizeLimit:      uint64(limit),
		MallocedMemory:     ms.Sys,
		PeakMallocedMemory: ms.Sys,
	}

	r.lock.lock()
	defer r.lock.unlock()
	if !r.released {
		stats.Contexts = len(r.contexts)
		for c := range r.contexts {
			stats.Handles += len(c.handles)
		}
	}
	return stats
}

// LowMemoryNotification asks for garbage to be collected now and memory to
// be returned to the operating system.
func (r *Runtime) LowMemoryNotification() {
	r.drainDeferredUnlocked()
	runtime.GC()
	debug.FreeOSMemory()
	r.logger.Debug("low memory notification")
}
