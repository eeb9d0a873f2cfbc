package jsbridge

import (
	"sync"

	"github.com/joeycumines/jsbridge/internal/bridge"
)

// Context is a global scope in an Isolate.
type Context struct {
	iso *Isolate
	c   *bridge.Context

	mu        sync.Mutex
	callbacks []string
}

// Isolate returns the Isolate the Context belongs to.
func (c *Context) Isolate() *Isolate { return c.iso }

// Eval runs jsCode. filename is used in error messages and stack traces;
// an empty filename is reported as "(no file)". Syntax errors and uncaught
// exceptions are returned as errors carrying the formatted exception text.
func (c *Context) Eval(jsCode, filename string) (*Value, error) {
	return c.value(c.c.Run(jsCode, filename))
}

// Global returns the global object.
func (c *Context) Global() *Value {
	h, err := c.c.Global()
	if err != nil {
		// a released handle makes every operation on it fail
		return &Value{ctx: c}
	}
	return c.newValue(h, bridge.KindObject.Mask())
}

// ParseJSON parses a JSON document into a new value.
func (c *Context) ParseJSON(json string) (*Value, error) {
	return c.value(c.c.ParseJSON(json))
}

// Release frees the Context. Its Values and bound callbacks become
// unusable.
func (c *Context) Release() {
	c.c.Release()
	c.iso.forget(c)
	c.dropBindings()
}

func (c *Context) dropBindings() {
	c.mu.Lock()
	ids := c.callbacks
	c.callbacks = nil
	c.mu.Unlock()
	for _, id := range ids {
		bindings.Delete(id)
	}
}

// value converts a bridge result. A result carrying neither a value nor
// an error yields (nil, nil).
func (c *Context) value(res bridge.Result) (*Value, error) {
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Value == nil {
		return nil, nil
	}
	return c.newValue(res.Value, res.Kinds), nil
}
