package bridge

import (
	"github.com/dop251/goja"
)

// PromiseState is the settlement state of a promise.
type PromiseState int

const (
	PromiseStatePending PromiseState = iota
	PromiseStateFulfilled
	PromiseStateRejected
)

func (s PromiseState) String() string {
	switch s {
	case PromiseStatePending:
		return "pending"
	case PromiseStateFulfilled:
		return "fulfilled"
	case PromiseStateRejected:
		return "rejected"
	}
	return "unknown"
}

// PromiseInfo reports the state of the promise v. A settled promise also
// yields its value or rejection reason; a pending one yields an empty
// Result.
func (c *Context) PromiseInfo(v *Value) (Result, PromiseState) {
	s, err := c.enter()
	if err != nil {
		return c.failure(err), PromiseStatePending
	}
	defer s.exit()

	val, err := c.resolve(v)
	if err != nil {
		return c.failure(err), PromiseStatePending
	}
	obj, ok := val.(*goja.Object)
	if !ok || obj.ExportType() != typePromise {
		return c.failure(ErrNotPromise), PromiseStatePending
	}
	p, ok := obj.Export().(*goja.Promise)
	if !ok {
		return c.failure(ErrNotPromise), PromiseStatePending
	}

	switch p.State() {
	case goja.PromiseStateFulfilled:
		return c.result(p.Result()), PromiseStateFulfilled
	case goja.PromiseStateRejected:
		return c.result(p.Result()), PromiseStateRejected
	}
	return Result{}, PromiseStatePending
}
