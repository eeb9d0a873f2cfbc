package bridge

import (
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// Kind is one category of engine value. Categories overlap: a Uint8Array
// is also an Object, an ArrayBufferView and a TypedArray.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindName
	KindString
	KindSymbol
	KindFunction
	KindArray
	KindObject
	KindBoolean
	KindNumber
	KindExternal
	KindInt32
	KindUint32
	KindDate
	KindArgumentsObject
	KindBooleanObject
	KindNumberObject
	KindStringObject
	KindSymbolObject
	KindNativeError
	KindRegExp
	KindAsyncFunction
	KindGeneratorFunction
	KindGeneratorObject
	KindPromise
	KindMap
	KindSet
	KindMapIterator
	KindSetIterator
	KindWeakMap
	KindWeakSet
	KindArrayBuffer
	KindArrayBufferView
	KindTypedArray
	KindUint8Array
	KindUint8ClampedArray
	KindInt8Array
	KindUint16Array
	KindInt16Array
	KindUint32Array
	KindInt32Array
	KindFloat32Array
	KindFloat64Array
	KindDataView
	KindSharedArrayBuffer
	KindProxy
	KindWebAssemblyCompiledModule

	kNumKinds
)

var kindNames = [kNumKinds]string{
	"Undefined", "Null", "Name", "String", "Symbol", "Function", "Array",
	"Object", "Boolean", "Number", "External", "Int32", "Uint32", "Date",
	"ArgumentsObject", "BooleanObject", "NumberObject", "StringObject",
	"SymbolObject", "NativeError", "RegExp", "AsyncFunction",
	"GeneratorFunction", "GeneratorObject", "Promise", "Map", "Set",
	"MapIterator", "SetIterator", "WeakMap", "WeakSet", "ArrayBuffer",
	"ArrayBufferView", "TypedArray", "Uint8Array", "Uint8ClampedArray",
	"Int8Array", "Uint16Array", "Int16Array", "Uint32Array", "Int32Array",
	"Float32Array", "Float64Array", "DataView", "SharedArrayBuffer", "Proxy",
	"WebAssemblyCompiledModule",
}

func (k Kind) String() string {
	if k < kNumKinds {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// KindMask is a set of Kinds.
type KindMask uint64

// Mask returns the set containing only k.
func (k Kind) Mask() KindMask { return 1 << k }

// Has reports whether k is in the set.
func (m KindMask) Has(k Kind) bool { return m&k.Mask() != 0 }

// Kinds lists the members of the set in Kind order.
func (m KindMask) Kinds() []Kind {
	var kinds []Kind
	for k := Kind(0); k < kNumKinds; k++ {
		if m.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (m KindMask) String() string {
	kinds := m.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return "[" + strings.Join(names, " ") + "]"
}

var (
	typeArrayBuffer = reflect.TypeOf(goja.ArrayBuffer{})
	typePromise     = reflect.TypeOf((*goja.Promise)(nil))
	typeProxy       = reflect.TypeOf(goja.Proxy{})
	typeTime        = reflect.TypeOf(time.Time{})
	typeBigInt      = reflect.TypeOf((*big.Int)(nil))
)

// valueFacts is what the kind predicates look at: facts about one value,
// gathered once per ComputeKindMask call.
type valueFacts struct {
	val goja.Value
	obj *goja.Object

	// primitives
	prim   reflect.Kind
	number float64
	bigint bool

	// objects
	class    string
	export   reflect.Type
	callable bool

	// from the intrinsics classifier
	array, view, async, genFn, gen bool
	element, tag                   string
}

func (p *valueFacts) is(name string) bool {
	return p.obj != nil && (p.class == name || p.tag == name)
}

func (p *valueFacts) isNumber() bool {
	return p.obj == nil && (p.prim == reflect.Int64 || p.prim == reflect.Float64)
}

func (p *valueFacts) integral() bool {
	f := p.number
	return p.isNumber() && f == math.Trunc(f) && !math.IsInf(f, 0) && !(f == 0 && math.Signbit(f))
}

func (p *valueFacts) typed(name string) bool {
	return p.view && p.element == name
}

// kindTable is evaluated in full for every value: each predicate is tested
// independently and every match contributes its bit.
var kindTable = [...]struct {
	kind Kind
	test func(*valueFacts) bool
}{
	{KindUndefined, func(p *valueFacts) bool { return goja.IsUndefined(p.val) }},
	{KindNull, func(p *valueFacts) bool { return goja.IsNull(p.val) }},
	{KindName, func(p *valueFacts) bool { return p.obj == nil && p.prim == reflect.String || isSymbol(p.val) }},
	{KindString, func(p *valueFacts) bool { return p.obj == nil && p.prim == reflect.String }},
	{KindSymbol, func(p *valueFacts) bool { return isSymbol(p.val) }},
	{KindFunction, func(p *valueFacts) bool { return p.callable }},
	{KindArray, func(p *valueFacts) bool { return p.array }},
	{KindObject, func(p *valueFacts) bool { return p.obj != nil }},
	{KindBoolean, func(p *valueFacts) bool { return p.obj == nil && p.prim == reflect.Bool }},
	{KindNumber, func(p *valueFacts) bool { return p.isNumber() }},
	{KindExternal, func(*valueFacts) bool { return false }},
	{KindInt32, func(p *valueFacts) bool {
		return p.integral() && p.number >= math.MinInt32 && p.number <= math.MaxInt32
	}},
	{KindUint32, func(p *valueFacts) bool { return p.integral() && p.number >= 0 && p.number <= math.MaxUint32 }},
	{KindDate, func(p *valueFacts) bool { return p.export == typeTime || p.is("Date") }},
	{KindArgumentsObject, func(p *valueFacts) bool { return p.is("Arguments") }},
	{KindBooleanObject, func(p *valueFacts) bool { return p.class == "Boolean" }},
	{KindNumberObject, func(p *valueFacts) bool { return p.class == "Number" }},
	{KindStringObject, func(p *valueFacts) bool { return p.class == "String" }},
	{KindSymbolObject, func(p *valueFacts) bool { return p.class == "Symbol" }},
	{KindNativeError, func(p *valueFacts) bool { return p.is("Error") }},
	{KindRegExp, func(p *valueFacts) bool { return p.is("RegExp") }},
	{KindAsyncFunction, func(p *valueFacts) bool { return p.async }},
	{KindGeneratorFunction, func(p *valueFacts) bool { return p.genFn }},
	{KindGeneratorObject, func(p *valueFacts) bool { return p.gen }},
	{KindPromise, func(p *valueFacts) bool { return p.export == typePromise }},
	{KindMap, func(p *valueFacts) bool { return p.is("Map") }},
	{KindSet, func(p *valueFacts) bool { return p.is("Set") }},
	{KindMapIterator, func(p *valueFacts) bool { return p.is("Map Iterator") }},
	{KindSetIterator, func(p *valueFacts) bool { return p.is("Set Iterator") }},
	{KindWeakMap, func(p *valueFacts) bool { return p.is("WeakMap") }},
	{KindWeakSet, func(p *valueFacts) bool { return p.is("WeakSet") }},
	{KindArrayBuffer, func(p *valueFacts) bool { return p.export == typeArrayBuffer }},
	{KindArrayBufferView, func(p *valueFacts) bool { return p.view }},
	{KindTypedArray, func(p *valueFacts) bool { return p.view && p.element != "" }},
	{KindUint8Array, func(p *valueFacts) bool { return p.typed("Uint8Array") }},
	{KindUint8ClampedArray, func(p *valueFacts) bool { return p.typed("Uint8ClampedArray") }},
	{KindInt8Array, func(p *valueFacts) bool { return p.typed("Int8Array") }},
	{KindUint16Array, func(p *valueFacts) bool { return p.typed("Uint16Array") }},
	{KindInt16Array, func(p *valueFacts) bool { return p.typed("Int16Array") }},
	{KindUint32Array, func(p *valueFacts) bool { return p.typed("Uint32Array") }},
	{KindInt32Array, func(p *valueFacts) bool { return p.typed("Int32Array") }},
	{KindFloat32Array, func(p *valueFacts) bool { return p.typed("Float32Array") }},
	{KindFloat64Array, func(p *valueFacts) bool { return p.typed("Float64Array") }},
	{KindDataView, func(p *valueFacts) bool { return p.view && p.element == "" }},
	{KindSharedArrayBuffer, func(*valueFacts) bool { return false }},
	{KindProxy, func(p *valueFacts) bool { return p.export == typeProxy }},
	{KindWebAssemblyCompiledModule, func(*valueFacts) bool { return false }},
}

func isSymbol(v goja.Value) bool {
	_, ok := v.(*goja.Symbol)
	return ok
}

// kindsOf computes the kind mask of val. It never fails: a classifier that
// throws (a hostile getter, say) leaves the affected bits unset. The
// caller holds the runtime lock and has entered c.
func (c *Context) kindsOf(val goja.Value) KindMask {
	p := valueFacts{val: val}
	switch v := val.(type) {
	case nil:
		return KindUndefined.Mask()
	case *goja.Object:
		p.obj = v
		p.export = v.ExportType()
		_, p.callable = goja.AssertFunction(v)
		// A proxy is opaque: it is not classified by its target, and
		// probing it could run traps.
		if p.export != typeProxy {
			p.class = v.ClassName()
			c.classify(&p)
		}
	case *goja.Symbol:
	default:
		if !goja.IsUndefined(v) && !goja.IsNull(v) {
			if t := v.ExportType(); t != nil {
				p.prim = t.Kind()
				if t == typeBigInt {
					p.prim = reflect.Invalid
				}
			}
			if p.prim == reflect.Int64 || p.prim == reflect.Float64 {
				p.number = v.ToFloat()
			}
		}
	}

	var mask KindMask
	for _, row := range kindTable {
		if row.test(&p) {
			mask |= row.kind.Mask()
		}
	}
	return mask
}

func (c *Context) classify(p *valueFacts) {
	res, err := c.call(c.in.classify, goja.Undefined(), p.obj)
	if err != nil {
		return
	}
	arr, ok := res.(*goja.Object)
	if !ok {
		return
	}
	at := func(i int) goja.Value { return arr.Get(strconv.Itoa(i)) }
	p.array = at(0).ToBoolean()
	p.view = at(1).ToBoolean()
	if e := at(2); e != nil && !goja.IsUndefined(e) {
		p.element = e.String()
	}
	p.tag = at(3).String()
	p.async = at(4).ToBoolean()
	p.genFn = at(5).ToBoolean()
	p.gen = at(6).ToBoolean()
}
