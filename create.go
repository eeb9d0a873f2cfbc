package jsbridge

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/joeycumines/jsbridge/internal/bridge"
)

var (
	valuePtrType  = reflect.TypeFor[*Value]()
	timeType      = reflect.TypeFor[time.Time]()
	callbackType  = reflect.TypeFor[Callback]()
	marshalerType = reflect.TypeFor[json.Marshaler]()
	byteSliceType = reflect.TypeFor[[]byte]()
)

// Create converts a Go value into a new value in the Context:
//
//	nil, nil pointers, maps, slices, funcs  undefined
//	bool, numbers, string                  the matching primitive
//	[]byte                                 ArrayBuffer, copied
//	time.Time                              Date
//	slices and arrays                      Array
//	maps with string keys                  Object
//	structs                                Object, fields named by json tags
//	funcs convertible to Callback          Function
//	json.Marshaler                         JSON.parse of its output
//	*Value                                 the same value
//
// Pointers and interfaces are followed. Unexported and `json:"-"` struct
// fields are skipped; embedded structs are flattened. A value that refers
// back to itself through pointers, maps or slices is an error.
func (c *Context) Create(val any) (*Value, error) {
	v, err := c.create(reflect.ValueOf(val), visited{})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// visited holds the pointers, maps and slices on the path being created.
type visited map[visitKey]struct{}

type visitKey struct {
	ptr uintptr
	len int
	typ reflect.Type
}

// enter marks rv as on the path, returning false if it already is.
func (seen visited) enter(rv reflect.Value) (visitKey, bool) {
	k := visitKey{ptr: rv.Pointer(), typ: rv.Type()}
	if rv.Kind() == reflect.Slice {
		k.len = rv.Len()
	}
	if _, ok := seen[k]; ok {
		return k, false
	}
	seen[k] = struct{}{}
	return k, true
}

func (c *Context) create(rv reflect.Value, seen visited) (*Value, error) {
	if !rv.IsValid() {
		return c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateUndefined})
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateUndefined})
		}
		return c.create(rv.Elem(), seen)
	}

	switch rv.Type() {
	case valuePtrType:
		v := rv.Interface().(*Value)
		if v == nil {
			return c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateUndefined})
		}
		if v.ctx != c {
			return nil, bridge.ErrForeignValue
		}
		return v, nil
	case timeType:
		t := rv.Interface().(time.Time)
		return c.immediate(bridge.ImmediateValue{
			Type:    bridge.ImmediateDate,
			Float64: float64(t.UnixMilli()),
		})
	case byteSliceType:
		if rv.IsNil() {
			break
		}
		return c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateArrayBuffer, Data: rv.Bytes()})
	}

	if rv.Type().ConvertibleTo(callbackType) && rv.Kind() == reflect.Func {
		if rv.IsNil() {
			return c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateUndefined})
		}
		cb := rv.Convert(callbackType).Interface().(Callback)
		return c.NewFunction("", cb)
	}

	if rv.Type().Implements(marshalerType) && (rv.Kind() != reflect.Pointer || !rv.IsNil()) {
		b, err := rv.Interface().(json.Marshaler).MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("jsbridge: %s: %w", rv.Type(), err)
		}
		return c.ParseJSON(string(b))
	}

	switch rv.Kind() {
	case reflect.Bool:
		return c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateBool, Bool: rv.Bool()})
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateInt64, Int64: rv.Int()})
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateFloat64, Float64: float64(rv.Uint())})
	case reflect.Float32, reflect.Float64:
		return c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateFloat64, Float64: rv.Float()})
	case reflect.String:
		return c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateString, Data: []byte(rv.String())})

	case reflect.Pointer:
		if rv.IsNil() {
			return c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateUndefined})
		}
		vk, ok := seen.enter(rv)
		if !ok {
			return nil, cycleError(rv)
		}
		defer delete(seen, vk)
		return c.create(rv.Elem(), seen)

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateUndefined})
		}
		if rv.Kind() == reflect.Slice && rv.Len() > 0 {
			vk, ok := seen.enter(rv)
			if !ok {
				return nil, cycleError(rv)
			}
			defer delete(seen, vk)
		}
		arr, err := c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateArray, Len: rv.Len()})
		if err != nil {
			return nil, err
		}
		for i := range rv.Len() {
			elem, err := c.create(rv.Index(i), seen)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			if err := arr.SetIndex(i, elem); err != nil {
				return nil, err
			}
		}
		return arr, nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("jsbridge: cannot create value from %s: map keys must be strings", rv.Type())
		}
		if rv.IsNil() {
			return c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateUndefined})
		}
		vk, ok := seen.enter(rv)
		if !ok {
			return nil, cycleError(rv)
		}
		defer delete(seen, vk)
		obj, err := c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateObject})
		if err != nil {
			return nil, err
		}
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int { return strings.Compare(a.String(), b.String()) })
		for _, k := range keys {
			elem, err := c.create(rv.MapIndex(k), seen)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k.String(), err)
			}
			if err := obj.Set(k.String(), elem); err != nil {
				return nil, err
			}
		}
		return obj, nil

	case reflect.Struct:
		obj, err := c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateObject})
		if err != nil {
			return nil, err
		}
		if err := c.setFields(obj, rv, seen); err != nil {
			return nil, err
		}
		return obj, nil

	case reflect.Func:
		if rv.IsNil() {
			return c.immediate(bridge.ImmediateValue{Type: bridge.ImmediateUndefined})
		}
	}
	return nil, fmt.Errorf("jsbridge: cannot create value from %s", rv.Type())
}

func (c *Context) setFields(obj *Value, rv reflect.Value, seen visited) error {
	t := rv.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("json") == "" {
			if err := c.setFields(obj, rv.Field(i), seen); err != nil {
				return err
			}
			continue
		}
		name, opts := fieldName(f)
		if name == "-" {
			continue
		}
		fv := rv.Field(i)
		if slices.Contains(opts, "omitempty") && fv.IsZero() {
			continue
		}
		elem, err := c.create(fv, seen)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		if err := obj.Set(name, elem); err != nil {
			return err
		}
	}
	return nil
}

func cycleError(rv reflect.Value) error {
	return fmt.Errorf("jsbridge: cannot create value from %s: cycle via %#x", rv.Type(), rv.Pointer())
}

// fieldName returns the property name of a struct field and its json tag
// options.
func fieldName(f reflect.StructField) (string, []string) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "-", nil
	}
	name, rest, _ := strings.Cut(tag, ",")
	var opts []string
	if rest != "" {
		opts = strings.Split(rest, ",")
	}
	if name == "" {
		name = f.Name
	}
	return name, opts
}

func (c *Context) immediate(iv bridge.ImmediateValue) (*Value, error) {
	h, err := c.c.CreateImmediate(iv)
	if err != nil {
		return nil, err
	}
	kinds, err := c.c.Kinds(h)
	if err != nil {
		return nil, err
	}
	return c.newValue(h, kinds), nil
}
