package bridge

import (
	"github.com/dop251/goja"
)

// MarshalJSON serializes v with JSON.stringify. Values that stringify to
// undefined, such as functions and undefined itself, serialize as null.
func (c *Context) MarshalJSON(v *Value) ([]byte, error) {
	s, err := c.enter()
	if err != nil {
		return nil, err
	}
	defer s.exit()
	val, err := c.resolve(v)
	if err != nil {
		return nil, err
	}
	out, err := c.call(c.in.stringify, goja.Undefined(), val)
	if err != nil {
		return nil, c.exceptionError(err)
	}
	if goja.IsUndefined(out) {
		return []byte("null"), nil
	}
	return []byte(out.String()), nil
}

// ParseJSON parses text with JSON.parse. Malformed input is reported as a
// formatted SyntaxError.
func (c *Context) ParseJSON(text string) Result {
	s, err := c.enter()
	if err != nil {
		return c.failure(err)
	}
	defer s.exit()
	val, err := c.call(c.in.parse, goja.Undefined(), c.vm.ToValue(text))
	if err != nil {
		return c.failure(c.exceptionError(err))
	}
	return c.result(val)
}

// Keys lists the own enumerable string keys of v, in property order.
func (c *Context) Keys(v *Value) ([]string, error) {
	s, err := c.enter()
	if err != nil {
		return nil, err
	}
	defer s.exit()
	obj, err := c.object(v)
	if err != nil {
		return nil, err
	}
	list, err := c.call(c.in.keys, goja.Undefined(), obj)
	if err != nil {
		return nil, c.exceptionError(err)
	}
	var keys []string
	if err := c.vm.ExportTo(list, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}
