package jsbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"slices"
	"strconv"
	"strings"
)

var unmarshalerType = reflect.TypeFor[json.Unmarshaler]()

// maxReadLength bounds the length ReadInto allocates a slice for.
const maxReadLength = 1 << 26

// ReadInto stores the value v into the variable dst points to, converting
// by the type of the variable. It is the reverse of Context.Create:
// objects are read into maps with string keys and structs (fields named by
// json tags), arrays and array-like objects into slices and arrays,
// ArrayBuffers and typed arrays into []byte, dates into time.Time, and
// anything into an empty interface through its JSON form. A
// json.Unmarshaler receives the JSON form of the value.
//
// Undefined and null store the zero value. maxDepth bounds how deep
// nested objects are followed; exceeding it is an error.
func ReadInto(dst any, v *Value, maxDepth int) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("jsbridge: ReadInto destination must be a non-nil pointer")
	}
	return readInto(rv.Elem(), v, nil, maxDepth)
}

type readError struct {
	path []string
	msg  string
}

func (e *readError) Error() string {
	if len(e.path) == 0 {
		return "jsbridge: " + e.msg
	}
	return fmt.Sprintf("jsbridge: reading %s: %s", strings.Join(e.path, "."), e.msg)
}

func readInto(dst reflect.Value, v *Value, path []string, maxDepth int) error {
	if len(path) > maxDepth {
		return &readError{path: path, msg: fmt.Sprintf("max depth of %d exceeded", maxDepth)}
	}
	fail := func(format string, args ...any) error {
		return &readError{path: slices.Clone(path), msg: fmt.Sprintf(format, args...)}
	}

	t := dst.Type()
	if v.IsKind(KindUndefined) || v.IsKind(KindNull) {
		dst.SetZero()
		return nil
	}

	switch t {
	case timeType:
		when, err := v.Date()
		if err != nil {
			return fail("%v", err)
		}
		dst.Set(reflect.ValueOf(when))
		return nil
	case byteSliceType:
		if v.IsKind(KindArrayBuffer) || v.IsKind(KindTypedArray) {
			dst.SetBytes(v.Bytes())
			return nil
		}
	}

	if reflect.PointerTo(t).Implements(unmarshalerType) {
		b, err := v.MarshalJSON()
		if err != nil {
			return err
		}
		return dst.Addr().Interface().(json.Unmarshaler).UnmarshalJSON(b)
	}

	switch t.Kind() {
	case reflect.Bool:
		dst.SetBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetInt(v.Int64())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		dst.SetUint(uint64(v.Int64()))
	case reflect.Float32, reflect.Float64:
		dst.SetFloat(v.Float64())
	case reflect.String:
		dst.SetString(v.String())

	case reflect.Interface:
		if t.NumMethod() != 0 {
			return fail("cannot read into %s", t)
		}
		b, err := v.MarshalJSON()
		if err != nil {
			return err
		}
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			return fail("%v", err)
		}
		if out != nil {
			dst.Set(reflect.ValueOf(out))
		} else {
			dst.SetZero()
		}

	case reflect.Pointer:
		elem := reflect.New(t.Elem())
		if err := readInto(elem.Elem(), v, path, maxDepth); err != nil {
			return err
		}
		dst.Set(elem)

	case reflect.Map:
		if !v.IsKind(KindObject) {
			return fail("value to be read into a map is not an object")
		}
		if t.Key().Kind() != reflect.String {
			return fail("only string type keys are supported for maps")
		}
		keys, err := GetObjKeys(v)
		if err != nil {
			return err
		}
		m := reflect.MakeMapWithSize(t, len(keys))
		for _, k := range keys {
			prop, err := v.Get(k)
			if err != nil {
				return err
			}
			elem := reflect.New(t.Elem()).Elem()
			if err := readInto(elem, prop, append(path, k), maxDepth); err != nil {
				return err
			}
			m.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), elem)
		}
		dst.Set(m)

	case reflect.Slice, reflect.Array:
		if !v.IsKind(KindObject) {
			return fail("value to be read into a %s is not an array or object", t.Kind())
		}
		lv, err := v.Get("length")
		if err != nil {
			return err
		}
		n := int(lv.Int64())
		if n < 0 {
			n = 0
		}
		if t.Kind() == reflect.Slice {
			if n > maxReadLength {
				return fail("length %d exceeds the limit of %d", n, maxReadLength)
			}
			dst.Set(reflect.MakeSlice(t, n, n))
		} else {
			dst.SetZero()
			n = min(n, dst.Len())
		}
		for i := range n {
			elem, err := v.GetIndex(i)
			if err != nil {
				return err
			}
			if err := readInto(dst.Index(i), elem, append(path, strconv.Itoa(i)), maxDepth); err != nil {
				return err
			}
		}

	case reflect.Struct:
		if !v.IsKind(KindObject) {
			return fail("value to be read into a struct is not an object")
		}
		return readFields(dst, v, path, maxDepth)

	default:
		return fail("%s not supported", t.Kind())
	}
	return nil
}

func readFields(dst reflect.Value, v *Value, path []string, maxDepth int) error {
	t := dst.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("json") == "" {
			if err := readFields(dst.Field(i), v, path, maxDepth); err != nil {
				return err
			}
			continue
		}
		name, _ := fieldName(f)
		if name == "-" {
			continue
		}
		prop, err := v.Get(name)
		if err != nil {
			return err
		}
		if err := readInto(dst.Field(i), prop, append(path, f.Name), maxDepth); err != nil {
			return err
		}
	}
	return nil
}

// GetObjKeys returns the own enumerable string keys of the object v, as
// Object.keys would.
func GetObjKeys(v *Value) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	defer runtime.KeepAlive(v)
	return v.ctx.c.Keys(v.h)
}
