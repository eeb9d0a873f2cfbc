package jsbridge

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/joeycumines/jsbridge/internal/bridge"
)

// Loc is a location in script source. Line and Column are 1-based; a zero
// Loc means the location is unknown.
type Loc struct {
	Funcname string
	Filename string
	Line     int
	Column   int
}

// CallbackArgs is what a Callback receives.
type CallbackArgs struct {
	// Caller is the script call site, zero if the callback was invoked
	// by the host.
	Caller  Loc
	Args    []*Value
	Context *Context
}

// Arg returns argument n, or undefined if fewer were passed.
func (c *CallbackArgs) Arg(n int) *Value {
	if n < len(c.Args) && n >= 0 {
		return c.Args[n]
	}
	v, err := c.Context.Create(nil)
	if err != nil {
		return nil
	}
	return v
}

// Callback is a Go function callable from script. Returning an error
// throws an Error with the error's message at the call site; returning a
// nil Value returns undefined.
type Callback func(CallbackArgs) (*Value, error)

type binding struct {
	ctx  *Context
	name string
	cb   Callback
}

var (
	dispatcherOnce sync.Once
	// bindings maps callback ids to their bindings, across all Isolates.
	bindings sync.Map
)

// ensureDispatcher installs the process-wide dispatcher that routes
// callback invocations to bindings.
func ensureDispatcher() {
	dispatcherOnce.Do(func() {
		if err := bridge.Init(dispatch); err != nil {
			panic(fmt.Errorf("jsbridge: %w", err))
		}
	})
}

func dispatch(id string, caller bridge.CallerInfo, args []bridge.ValueTuple) bridge.Result {
	v, ok := bindings.Load(id)
	if !ok {
		return bridge.Result{Err: fmt.Errorf("no such callback: %s", id)}
	}
	b := v.(*binding)

	cargs := CallbackArgs{
		Caller: Loc{
			Funcname: caller.Funcname,
			Filename: caller.Filename,
			Line:     caller.Line,
			Column:   caller.Column,
		},
		Args:    make([]*Value, len(args)),
		Context: b.ctx,
	}
	for i, a := range args {
		cargs.Args[i] = b.ctx.newValue(a.Value, a.Kinds)
	}

	res, err := b.cb(cargs)
	if err != nil {
		b.ctx.iso.logger.Debug("callback failed", "name", b.name, "error", err)
		return bridge.Result{Err: err}
	}
	if res == nil {
		return bridge.Result{}
	}
	if res.ctx != b.ctx {
		return bridge.Result{Err: fmt.Errorf("callback %s returned a value from another context", b.name)}
	}
	return bridge.Result{Value: res.h}
}

// Bind creates a function named name that calls cb, and assigns it to the
// global object under that name.
func (c *Context) Bind(name string, cb Callback) (*Value, error) {
	fn, err := c.NewFunction(name, cb)
	if err != nil {
		return nil, err
	}
	if err := c.Global().Set(name, fn); err != nil {
		return nil, err
	}
	return fn, nil
}

// NewFunction creates a function named name that calls cb, without
// installing it anywhere.
func (c *Context) NewFunction(name string, cb Callback) (*Value, error) {
	if cb == nil {
		return nil, fmt.Errorf("jsbridge: nil callback for %q", name)
	}
	id := uuid.NewString()
	bindings.Store(id, &binding{ctx: c, name: name, cb: cb})

	h, err := c.c.RegisterCallback(name, id)
	if err != nil {
		bindings.Delete(id)
		return nil, err
	}

	c.mu.Lock()
	c.callbacks = append(c.callbacks, id)
	c.mu.Unlock()
	kinds, err := c.c.Kinds(h)
	if err != nil {
		return nil, err
	}
	return c.newValue(h, kinds), nil
}
