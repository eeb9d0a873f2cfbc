package bridge

import (
	"math"

	"github.com/dop251/goja"
)

// ImmediateType tags an ImmediateValue.
type ImmediateType uint8

const (
	ImmediateString ImmediateType = iota
	ImmediateBool
	ImmediateFloat64
	ImmediateInt64
	ImmediateObject
	ImmediateArray
	ImmediateArrayBuffer
	ImmediateUndefined
	ImmediateDate
)

// maxDateMillis is the largest magnitude a Date's time value may have.
const maxDateMillis = 8.64e15

// ImmediateValue describes a value to construct in the engine from host
// data. Which fields are read depends on Type:
//
//	ImmediateString      Data, as UTF-8
//	ImmediateArrayBuffer Data, copied
//	ImmediateBool        Bool
//	ImmediateFloat64     Float64
//	ImmediateInt64       Int64, converted to a float64 number
//	ImmediateArray       Len, every element undefined
//	ImmediateDate        Float64, milliseconds since the Unix epoch
//	ImmediateObject      nothing, an empty object
//	ImmediateUndefined   nothing
type ImmediateValue struct {
	Type    ImmediateType
	Data    []byte
	Len     int
	Bool    bool
	Float64 float64
	Int64   int64
}

// CreateImmediate constructs a new engine value. The host keeps ownership
// of iv.Data. On error no handle is returned.
func (c *Context) CreateImmediate(iv ImmediateValue) (*Value, error) {
	s, err := c.enter()
	if err != nil {
		return nil, err
	}
	defer s.exit()

	val, err := c.immediate(iv)
	if err != nil {
		return nil, err
	}
	return c.wrap(val), nil
}

func (c *Context) immediate(iv ImmediateValue) (goja.Value, error) {
	switch iv.Type {
	case ImmediateString:
		return c.vm.ToValue(string(iv.Data)), nil
	case ImmediateArrayBuffer:
		return c.vm.ToValue(c.vm.NewArrayBuffer(append([]byte(nil), iv.Data...))), nil
	case ImmediateBool:
		return c.vm.ToValue(iv.Bool), nil
	case ImmediateFloat64:
		return c.vm.ToValue(iv.Float64), nil
	case ImmediateInt64:
		return c.vm.ToValue(float64(iv.Int64)), nil
	case ImmediateObject:
		return c.vm.NewObject(), nil
	case ImmediateArray:
		if iv.Len < 0 || iv.Len > math.MaxUint32 {
			return nil, &Error{Msg: "Invalid array length"}
		}
		return c.construct(c.in.arrayCtor, c.vm.ToValue(iv.Len))
	case ImmediateUndefined:
		return goja.Undefined(), nil
	case ImmediateDate:
		ms := iv.Float64
		if math.IsNaN(ms) || math.Abs(ms) > maxDateMillis {
			return nil, ErrDateRange
		}
		return c.construct(c.in.dateCtor, c.vm.ToValue(ms))
	}
	return nil, ErrUnknownImmediate
}
