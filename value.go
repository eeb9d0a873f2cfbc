package jsbridge

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/joeycumines/jsbridge/internal/bridge"
)

// ErrNotDate is returned by Value.Date for values that are not dates.
var ErrNotDate = errors.New("jsbridge: not a date")

// ErrInvalidDate is returned by Value.Date for an Invalid Date.
var ErrInvalidDate = errors.New("jsbridge: invalid date")

// Value is a handle to a value in a Context. The engine value is kept
// alive until Release is called or the Value is garbage collected. Methods
// keep their receiver and arguments reachable until they return, so a
// collected Value can never release a handle still in use.
type Value struct {
	ctx   *Context
	h     *bridge.Value
	kinds KindMask
}

func (c *Context) newValue(h *bridge.Value, kinds KindMask) *Value {
	v := &Value{ctx: c, h: h, kinds: kinds}
	runtime.AddCleanup(v, (*bridge.Value).ReleaseLater, h)
	return v
}

// Context returns the Context the Value belongs to.
func (v *Value) Context() *Context { return v.ctx }

// IsKind reports whether the value had kind k when the Value was created.
// Kinds are not recomputed; a mutated object keeps its original kinds.
func (v *Value) IsKind(k Kind) bool { return v.kinds.Has(k) }

// Kinds returns every kind the value had when the Value was created.
func (v *Value) Kinds() KindMask { return v.kinds }

// String converts the value to a string the way String(v) does in script.
// A conversion that throws yields "".
func (v *Value) String() string {
	defer runtime.KeepAlive(v)
	return v.ctx.c.ToString(v.h)
}

// Float64 converts the value to a number. A failed conversion yields NaN.
func (v *Value) Float64() float64 {
	defer runtime.KeepAlive(v)
	return v.ctx.c.ToFloat64(v.h)
}

// Int64 converts the value to an integer, truncating toward zero.
func (v *Value) Int64() int64 {
	defer runtime.KeepAlive(v)
	return v.ctx.c.ToInt64(v.h)
}

// Bool converts the value to a boolean by truthiness.
func (v *Value) Bool() bool {
	defer runtime.KeepAlive(v)
	return v.ctx.c.ToBool(v.h)
}

// Bytes returns a copy of the contents of an ArrayBuffer, or of the
// buffer behind a typed array, and nil for anything else.
func (v *Value) Bytes() []byte {
	defer runtime.KeepAlive(v)
	return v.ctx.c.ToBytes(v.h)
}

// Date returns the time a Date value holds.
func (v *Value) Date() (time.Time, error) {
	if !v.IsKind(KindDate) {
		return time.Time{}, ErrNotDate
	}
	ms := v.Float64()
	if math.IsNaN(ms) {
		return time.Time{}, ErrInvalidDate
	}
	return time.UnixMilli(int64(ms)), nil
}

// Get reads the property name.
func (v *Value) Get(name string) (*Value, error) {
	defer runtime.KeepAlive(v)
	return v.ctx.value(v.ctx.c.GetProperty(v.h, name))
}

// GetIndex reads the element at index. For an ArrayBuffer this is the
// byte at index.
func (v *Value) GetIndex(index int) (*Value, error) {
	defer runtime.KeepAlive(v)
	return v.ctx.value(v.ctx.c.GetElement(v.h, index))
}

// Set assigns the property name.
func (v *Value) Set(name string, value *Value) error {
	defer runtime.KeepAlive(value)
	defer runtime.KeepAlive(v)
	h, err := v.ctx.handle(value)
	if err != nil {
		return err
	}
	return v.ctx.c.SetProperty(v.h, name, h)
}

// SetIndex assigns the element at index. For an ArrayBuffer, value must be
// a number and index must lie inside the buffer.
func (v *Value) SetIndex(index int, value *Value) error {
	defer runtime.KeepAlive(value)
	defer runtime.KeepAlive(v)
	h, err := v.ctx.handle(value)
	if err != nil {
		return err
	}
	return v.ctx.c.SetElement(v.h, index, h)
}

// Call calls the value as a function with this as the receiver. A nil
// this calls with the global object.
func (v *Value) Call(this *Value, args ...*Value) (*Value, error) {
	defer runtime.KeepAlive(args)
	defer runtime.KeepAlive(this)
	defer runtime.KeepAlive(v)
	var self *bridge.Value
	if this != nil {
		var err error
		if self, err = v.ctx.handle(this); err != nil {
			return nil, err
		}
	}
	hs, err := v.ctx.handles(args)
	if err != nil {
		return nil, err
	}
	return v.ctx.value(v.ctx.c.Call(v.h, self, hs...))
}

// New calls the value as a constructor.
func (v *Value) New(args ...*Value) (*Value, error) {
	defer runtime.KeepAlive(args)
	defer runtime.KeepAlive(v)
	hs, err := v.ctx.handles(args)
	if err != nil {
		return nil, err
	}
	return v.ctx.value(v.ctx.c.New(v.h, hs...))
}

// PromiseState is the settlement state of a promise.
type PromiseState = bridge.PromiseState

const (
	PromiseStatePending   = bridge.PromiseStatePending
	PromiseStateFulfilled = bridge.PromiseStateFulfilled
	PromiseStateRejected  = bridge.PromiseStateRejected
)

// PromiseInfo reports the state of a promise. For a settled promise it
// also returns the fulfilled value or the rejection reason.
func (v *Value) PromiseInfo() (PromiseState, *Value, error) {
	defer runtime.KeepAlive(v)
	res, state := v.ctx.c.PromiseInfo(v.h)
	val, err := v.ctx.value(res)
	return state, val, err
}

// MarshalJSON serializes the value with JSON.stringify.
func (v *Value) MarshalJSON() ([]byte, error) {
	defer runtime.KeepAlive(v)
	return v.ctx.c.MarshalJSON(v.h)
}

// Release frees the handle. Using the Value afterwards fails.
func (v *Value) Release() { v.h.Release() }

// handle returns the bridge handle of a value passed in from the host.
func (c *Context) handle(v *Value) (*bridge.Value, error) {
	if v == nil {
		return nil, fmt.Errorf("jsbridge: nil value")
	}
	if v.ctx != c {
		return nil, bridge.ErrForeignValue
	}
	return v.h, nil
}

func (c *Context) handles(vs []*Value) ([]*bridge.Value, error) {
	hs := make([]*bridge.Value, len(vs))
	for i, v := range vs {
		h, err := c.handle(v)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		hs[i] = h
	}
	return hs, nil
}
