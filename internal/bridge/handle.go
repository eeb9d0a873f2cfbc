package bridge

import (
	"github.com/dop251/goja"
)

// Value is a handle to an engine value. The engine value stays reachable
// until the handle is released, whether or not script code still refers
// to it. A Value is only valid with the Context that created it.
type Value struct {
	ctx *Context
	id  uint64
}

// Context returns the Context that owns the handle.
func (v *Value) Context() *Context { return v.ctx }

// wrap registers a handle for val. The caller holds the runtime lock.
func (c *Context) wrap(val goja.Value) *Value {
	debugAssertLocked(c.rt, "wrap")
	if val == nil {
		val = goja.Undefined()
	}
	id := c.rt.handleSeq.Add(1)
	c.handles[id] = val
	return &Value{ctx: c, id: id}
}

// resolve returns the engine value behind v. The caller holds the runtime
// lock and has entered c.
func (c *Context) resolve(v *Value) (goja.Value, error) {
	if v == nil {
		return nil, ErrReleasedValue
	}
	if v.ctx != c {
		// Sibling contexts of one Runtime are separate engine instances,
		// so their values cannot be passed in either.
		debugAssertSameRuntime(c, v)
		return nil, ErrForeignValue
	}
	val, ok := c.handles[v.id]
	if !ok {
		return nil, ErrReleasedValue
	}
	return val, nil
}

// Release drops the handle. Releasing twice, or after the owning Context or
// Runtime was released, does nothing.
func (v *Value) Release() {
	if v == nil || v.ctx == nil {
		return
	}
	rt := v.ctx.rt
	rt.lock.lock()
	defer rt.lock.unlock()
	delete(v.ctx.handles, v.id)
}

// ReleaseLater queues the handle for release the next time its Runtime
// finishes an operation, without waiting for the Runtime's lock. It suits
// finalizers, which must not block.
func (v *Value) ReleaseLater() {
	if v == nil || v.ctx == nil {
		return
	}
	rt := v.ctx.rt
	rt.deferredMu.Lock()
	rt.deferred = append(rt.deferred, v)
	rt.deferredMu.Unlock()
}

// ReleaseValue releases v. It is equivalent to v.Release.
func (c *Context) ReleaseValue(v *Value) { v.Release() }

// drainDeferred releases queued handles. The caller holds the runtime lock.
func (r *Runtime) drainDeferred() {
	r.deferredMu.Lock()
	queued := r.deferred
	r.deferred = nil
	r.deferredMu.Unlock()
	for _, v := range queued {
		delete(v.ctx.handles, v.id)
	}
}

func (r *Runtime) drainDeferredUnlocked() {
	r.lock.lock()
	defer r.lock.unlock()
	r.drainDeferred()
}
