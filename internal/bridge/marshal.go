package bridge

import (
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/dop251/goja"
)

// Result is the outcome of an operation that yields a value. On success
// Value is set and Err is nil; on failure Err is set and Value is nil.
// Both nil means the operation legitimately produced nothing, e.g. a
// pending promise.
type Result struct {
	Value *Value
	Kinds KindMask
	Err   error
}

// ValueTuple is a handle with the kinds of its value at the time it was
// created.
type ValueTuple struct {
	Value *Value
	Kinds KindMask
}

// result wraps val. The caller holds the runtime lock and has entered c.
func (c *Context) result(val goja.Value) Result {
	return Result{Value: c.wrap(val), Kinds: c.kindsOf(val)}
}

func (c *Context) failure(err error) Result {
	return Result{Err: err}
}

// Kinds computes the current kinds of v.
func (c *Context) Kinds(v *Value) (KindMask, error) {
	s, err := c.enter()
	if err != nil {
		return 0, err
	}
	defer s.exit()
	val, err := c.resolve(v)
	if err != nil {
		return 0, err
	}
	return c.kindsOf(val), nil
}

// ToString converts v with the engine's string coercion. A failed
// conversion, such as a throwing toString method, yields "".
func (c *Context) ToString(v *Value) string {
	s, err := c.enter()
	if err != nil {
		return ""
	}
	defer s.exit()
	val, err := c.resolve(v)
	if err != nil {
		return ""
	}
	return c.toString(val)
}

func (c *Context) toString(val goja.Value) string {
	if _, ok := val.(*goja.Object); !ok {
		if _, sym := val.(*goja.Symbol); !sym {
			return val.String()
		}
	}
	str, err := c.call(c.in.toString, goja.Undefined(), val)
	if err != nil {
		return ""
	}
	return str.String()
}

// ToFloat64 converts v with the engine's number coercion. A failed
// conversion yields NaN.
func (c *Context) ToFloat64(v *Value) float64 {
	s, err := c.enter()
	if err != nil {
		return math.NaN()
	}
	defer s.exit()
	val, err := c.resolve(v)
	if err != nil {
		return math.NaN()
	}
	return c.toFloat64(val)
}

func (c *Context) toFloat64(val goja.Value) float64 {
	switch val.(type) {
	case *goja.Object, *goja.Symbol:
		num, err := c.call(c.in.toNumber, goja.Undefined(), val)
		if err != nil {
			return math.NaN()
		}
		return num.ToFloat()
	}
	return val.ToFloat()
}

// ToInt64 converts v to an integer, truncating toward zero. NaN and failed
// conversions yield 0; infinities saturate.
func (c *Context) ToInt64(v *Value) int64 {
	return toInt64(c.ToFloat64(v))
}

func toInt64(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// toUint32 is the engine's ToUint32: truncate, then reduce modulo 2^32.
func toUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(f), 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return uint32(m)
}

// ToBool converts v with the engine's boolean coercion.
func (c *Context) ToBool(v *Value) bool {
	s, err := c.enter()
	if err != nil {
		return false
	}
	defer s.exit()
	val, err := c.resolve(v)
	if err != nil {
		return false
	}
	return val.ToBoolean()
}

// ToBytes returns a copy of the contents of an ArrayBuffer, or of the
// whole buffer behind a typed array. Other values yield nil.
func (c *Context) ToBytes(v *Value) []byte {
	s, err := c.enter()
	if err != nil {
		return nil
	}
	defer s.exit()
	val, err := c.resolve(v)
	if err != nil {
		return nil
	}
	ab, ok := c.arrayBuffer(val)
	if !ok {
		buf, err := c.call(c.in.buffer, goja.Undefined(), val)
		if err != nil {
			return nil
		}
		if ab, ok = c.arrayBuffer(buf); !ok {
			return nil
		}
	}
	return append([]byte(nil), ab.Bytes()...)
}

func (c *Context) arrayBuffer(val goja.Value) (goja.ArrayBuffer, bool) {
	obj, ok := val.(*goja.Object)
	if !ok || obj.ExportType() != typeArrayBuffer {
		return goja.ArrayBuffer{}, false
	}
	ab, ok := obj.Export().(goja.ArrayBuffer)
	return ab, ok
}

// GetProperty reads obj[name]. A throwing getter produces the formatted
// exception as the error.
func (c *Context) GetProperty(v *Value, name string) Result {
	if !utf8.ValidString(name) {
		return c.failure(ErrInvalidName)
	}
	s, err := c.enter()
	if err != nil {
		return c.failure(err)
	}
	defer s.exit()
	obj, err := c.object(v)
	if err != nil {
		return c.failure(err)
	}
	return c.get(obj, c.vm.ToValue(name))
}

// GetElement reads obj[index]. For an ArrayBuffer it reads the byte at
// index as a number; an index outside the buffer reads undefined.
func (c *Context) GetElement(v *Value, index int) Result {
	s, err := c.enter()
	if err != nil {
		return c.failure(err)
	}
	defer s.exit()
	obj, err := c.object(v)
	if err != nil {
		return c.failure(err)
	}
	if ab, ok := c.arrayBuffer(obj); ok {
		data := ab.Bytes()
		if index < 0 || index >= len(data) {
			return c.result(goja.Undefined())
		}
		return c.result(c.vm.ToValue(data[index]))
	}
	return c.get(obj, c.vm.ToValue(strconv.Itoa(index)))
}

func (c *Context) get(obj *goja.Object, key goja.Value) Result {
	val, err := c.call(c.in.get, goja.Undefined(), obj, key)
	if err != nil {
		return c.failure(c.exceptionError(err))
	}
	return c.result(val)
}

// SetProperty assigns obj[name] = nv.
func (c *Context) SetProperty(v *Value, name string, nv *Value) error {
	if !utf8.ValidString(name) {
		return ErrInvalidName
	}
	s, err := c.enter()
	if err != nil {
		return err
	}
	defer s.exit()
	obj, err := c.object(v)
	if err != nil {
		return err
	}
	val, err := c.resolve(nv)
	if err != nil {
		return err
	}
	return c.set(obj, c.vm.ToValue(name), val)
}

// SetElement assigns obj[index] = nv. For an ArrayBuffer, nv must be a
// number and index must be inside the buffer; the number is stored as one
// byte, reduced modulo 256.
func (c *Context) SetElement(v *Value, index int, nv *Value) error {
	s, err := c.enter()
	if err != nil {
		return err
	}
	defer s.exit()
	obj, err := c.object(v)
	if err != nil {
		return err
	}
	val, err := c.resolve(nv)
	if err != nil {
		return err
	}
	if ab, ok := c.arrayBuffer(obj); ok {
		if !c.kindsOf(val).Has(KindNumber) {
			return ErrArrayBufferNotNumber
		}
		data := ab.Bytes()
		if index < 0 || index >= len(data) {
			return ErrArrayBufferRange
		}
		data[index] = byte(toUint32(val.ToFloat()))
		return nil
	}
	return c.set(obj, c.vm.ToValue(strconv.Itoa(index)), val)
}

func (c *Context) set(obj *goja.Object, key, val goja.Value) error {
	ok, err := c.call(c.in.set, goja.Undefined(), obj, key, val)
	switch {
	case err != nil:
		c.log.Debug("set threw", "key", key.String(), "error", err)
		return ErrSetNothing
	case !ok.ToBoolean():
		return ErrSetFailed
	}
	return nil
}

// object resolves v, which must be an object.
func (c *Context) object(v *Value) (*goja.Object, error) {
	val, err := c.resolve(v)
	if err != nil {
		return nil, err
	}
	obj, ok := val.(*goja.Object)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}
