package bridge

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dop251/goja"
)

var contextSeq atomic.Uint64

// Context is a global scope bound to a Runtime. Each Context has its own
// global object and builtins; values must not be moved between contexts.
type Context struct {
	rt  *Runtime
	id  uint64
	vm  *goja.Runtime
	in  *intrinsics
	log *slog.Logger

	// guarded by rt.lock
	handles  map[uint64]goja.Value
	sources  map[string]string
	released bool
}

// NewContext creates a Context. If the Runtime was created with startup
// data, its script runs in the Context first; a failure there is returned
// and the Context is discarded.
func (r *Runtime) NewContext() (*Context, error) {
	s, err := r.enter()
	if err != nil {
		return nil, err
	}
	defer s.exit()

	vm := goja.New()
	c := &Context{
		rt:      r,
		id:      contextSeq.Add(1),
		vm:      vm,
		handles: make(map[uint64]goja.Value),
		sources: make(map[string]string),
	}
	c.log = r.logger.With("context", c.id)

	in, err := captureIntrinsics(vm)
	if err != nil {
		return nil, fmt.Errorf("bridge: capture intrinsics: %w", err)
	}
	c.in = in

	if r.registry != nil {
		r.registry.Enable(vm)
	}

	r.termMu.Lock()
	r.vms[vm] = struct{}{}
	r.termMu.Unlock()
	r.contexts[c] = struct{}{}

	if r.startup != nil {
		c.sources[SnapshotFilename] = r.startupSrc
		if _, err := vm.RunProgram(r.startup); err != nil {
			err = c.exceptionError(err)
			c.releaseLocked()
			return nil, err
		}
	}

	c.log.Debug("context created")
	return c, nil
}

// Runtime returns the Runtime the Context belongs to.
func (c *Context) Runtime() *Runtime { return c.rt }

// enter enters the Runtime, then the Context.
func (c *Context) enter() (scope, error) {
	s, err := c.rt.enter()
	if err != nil {
		return scope{}, err
	}
	if c.released {
		s.exit()
		return scope{}, ErrReleased
	}
	return s, nil
}

// Release drops every handle of the Context and detaches it from its
// Runtime. It is a no-op if the Context or its Runtime is already released.
func (c *Context) Release() {
	c.rt.lock.lock()
	defer c.rt.lock.unlock()
	c.releaseLocked()
}

func (c *Context) releaseLocked() {
	if c.released {
		return
	}
	c.released = true
	clear(c.handles)
	clear(c.sources)
	delete(c.rt.contexts, c)
	c.rt.termMu.Lock()
	delete(c.rt.vms, c.vm)
	c.rt.termMu.Unlock()
	c.log.Debug("context released")
}

// Global returns a handle to the global object.
func (c *Context) Global() (*Value, error) {
	s, err := c.enter()
	if err != nil {
		return nil, err
	}
	defer s.exit()
	return c.wrap(c.vm.GlobalObject()), nil
}
