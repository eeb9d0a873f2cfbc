package bridge

import (
	"github.com/dop251/goja"
)

// Call invokes fn with the given receiver and arguments. A nil self calls
// with the global object as receiver.
func (c *Context) Call(fn, self *Value, args ...*Value) Result {
	s, err := c.enter()
	if err != nil {
		return c.failure(err)
	}
	defer s.exit()

	fval, err := c.resolve(fn)
	if err != nil {
		return c.failure(err)
	}
	callable, ok := goja.AssertFunction(fval)
	if !ok {
		return c.failure(ErrNotFunction)
	}
	var this goja.Value = c.vm.GlobalObject()
	if self != nil {
		if this, err = c.resolve(self); err != nil {
			return c.failure(err)
		}
	}
	argv, err := c.resolveAll(args)
	if err != nil {
		return c.failure(err)
	}

	val, err := c.call(callable, this, argv...)
	if err != nil {
		return c.failure(c.exceptionError(err))
	}
	return c.result(val)
}

// New invokes fn as a constructor.
func (c *Context) New(fn *Value, args ...*Value) Result {
	s, err := c.enter()
	if err != nil {
		return c.failure(err)
	}
	defer s.exit()

	fval, err := c.resolve(fn)
	if err != nil {
		return c.failure(err)
	}
	if _, ok := goja.AssertFunction(fval); !ok {
		return c.failure(ErrNotFunction)
	}
	argv, err := c.resolveAll(args)
	if err != nil {
		return c.failure(err)
	}

	val, err := c.construct(fval, argv...)
	if err != nil {
		return c.failure(err)
	}
	return c.result(val)
}

// construct is Reflect.construct(ctor, args), with failures formatted.
func (c *Context) construct(ctor goja.Value, args ...goja.Value) (goja.Value, error) {
	list := make([]any, len(args))
	for i, a := range args {
		list[i] = a
	}
	val, err := c.call(c.in.construct, goja.Undefined(), ctor, c.vm.NewArray(list...))
	if err != nil {
		return nil, c.exceptionError(err)
	}
	return val, nil
}

func (c *Context) resolveAll(args []*Value) ([]goja.Value, error) {
	argv := make([]goja.Value, len(args))
	for i, a := range args {
		val, err := c.resolve(a)
		if err != nil {
			return nil, err
		}
		argv[i] = val
	}
	return argv, nil
}
