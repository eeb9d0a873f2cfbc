package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKinds(t *testing.T) {
	_, c := newContext(t)

	for _, tc := range []struct {
		src  string
		want []Kind
		not  []Kind
	}{
		{src: `undefined`, want: []Kind{KindUndefined}, not: []Kind{KindObject, KindNull}},
		{src: `null`, want: []Kind{KindNull}, not: []Kind{KindObject, KindUndefined}},
		{src: `"str"`, want: []Kind{KindString, KindName}, not: []Kind{KindObject, KindSymbol}},
		{src: `Symbol("s")`, want: []Kind{KindSymbol, KindName}, not: []Kind{KindString, KindObject}},
		{src: `true`, want: []Kind{KindBoolean}, not: []Kind{KindBooleanObject}},
		{src: `42`, want: []Kind{KindNumber, KindInt32, KindUint32}},
		{src: `-7`, want: []Kind{KindNumber, KindInt32}, not: []Kind{KindUint32}},
		{src: `4294967295`, want: []Kind{KindNumber, KindUint32}, not: []Kind{KindInt32}},
		{src: `1.5`, want: []Kind{KindNumber}, not: []Kind{KindInt32, KindUint32}},
		{src: `-0`, want: []Kind{KindNumber}, not: []Kind{KindInt32, KindUint32}},
		{src: `({})`, want: []Kind{KindObject}, not: []Kind{KindArray, KindFunction}},
		{src: `[1, 2]`, want: []Kind{KindObject, KindArray}},
		{src: `(function f() {})`, want: []Kind{KindObject, KindFunction}, not: []Kind{KindAsyncFunction, KindGeneratorFunction}},
		{src: `(async function f() {})`, want: []Kind{KindObject, KindFunction, KindAsyncFunction}},
		{src: `(function* g() {})`, want: []Kind{KindObject, KindFunction, KindGeneratorFunction}},
		{src: `(function* g() {})()`, want: []Kind{KindObject, KindGeneratorObject}},
		{src: `(function () { return arguments; })(1)`, want: []Kind{KindObject, KindArgumentsObject}, not: []Kind{KindArray}},
		{src: `new Boolean(false)`, want: []Kind{KindObject, KindBooleanObject}, not: []Kind{KindBoolean}},
		{src: `new Number(1)`, want: []Kind{KindObject, KindNumberObject}, not: []Kind{KindNumber}},
		{src: `new String("s")`, want: []Kind{KindObject, KindStringObject}, not: []Kind{KindString}},
		{src: `new Date(0)`, want: []Kind{KindObject, KindDate}},
		{src: `new TypeError("x")`, want: []Kind{KindObject, KindNativeError}},
		{src: `/x/g`, want: []Kind{KindObject, KindRegExp}},
		{src: `Promise.resolve(1)`, want: []Kind{KindObject, KindPromise}},
		{src: `new Map()`, want: []Kind{KindObject, KindMap}, not: []Kind{KindSet, KindWeakMap}},
		{src: `new Set()`, want: []Kind{KindObject, KindSet}, not: []Kind{KindMap}},
		{src: `new WeakMap()`, want: []Kind{KindObject, KindWeakMap}, not: []Kind{KindMap}},
		{src: `new WeakSet()`, want: []Kind{KindObject, KindWeakSet}, not: []Kind{KindSet}},
		{src: `new Map([[1, 2]]).entries()`, want: []Kind{KindObject, KindMapIterator}},
		{src: `new Set([1]).values()`, want: []Kind{KindObject, KindSetIterator}},
		{src: `new ArrayBuffer(8)`, want: []Kind{KindObject, KindArrayBuffer}, not: []Kind{KindArrayBufferView, KindSharedArrayBuffer}},
		{src: `new Uint8Array(4)`, want: []Kind{KindObject, KindArrayBufferView, KindTypedArray, KindUint8Array}, not: []Kind{KindArray, KindDataView, KindInt8Array}},
		{src: `new Uint8ClampedArray(1)`, want: []Kind{KindTypedArray, KindUint8ClampedArray}},
		{src: `new Int8Array(1)`, want: []Kind{KindTypedArray, KindInt8Array}},
		{src: `new Uint16Array(1)`, want: []Kind{KindTypedArray, KindUint16Array}},
		{src: `new Int16Array(1)`, want: []Kind{KindTypedArray, KindInt16Array}},
		{src: `new Uint32Array(1)`, want: []Kind{KindTypedArray, KindUint32Array}},
		{src: `new Int32Array(1)`, want: []Kind{KindTypedArray, KindInt32Array}},
		{src: `new Float32Array(1)`, want: []Kind{KindTypedArray, KindFloat32Array}},
		{src: `new Float64Array(1)`, want: []Kind{KindTypedArray, KindFloat64Array}},
		{src: `new DataView(new ArrayBuffer(2))`, want: []Kind{KindObject, KindArrayBufferView, KindDataView}, not: []Kind{KindTypedArray}},
		{src: `new Proxy({}, {})`, want: []Kind{KindObject, KindProxy}},
		{src: `new Proxy(function () {}, {})`, want: []Kind{KindObject, KindProxy, KindFunction}},
	} {
		t.Run(tc.src, func(t *testing.T) {
			res := c.Run(tc.src, "kinds.js")
			require.NoError(t, res.Err)
			for _, k := range tc.want {
				assert.True(t, res.Kinds.Has(k), "%s: want %s in %s", tc.src, k, res.Kinds)
			}
			for _, k := range tc.not {
				assert.False(t, res.Kinds.Has(k), "%s: unexpected %s in %s", tc.src, k, res.Kinds)
			}
			for _, k := range []Kind{KindExternal, KindSharedArrayBuffer, KindWebAssemblyCompiledModule} {
				assert.False(t, res.Kinds.Has(k))
			}
		})
	}
}

func TestKinds_RecomputedEachCrossing(t *testing.T) {
	_, c := newContext(t)
	v := mustRun(t, c, `var p = new Promise(function () {}); p`)
	k1, err := c.Kinds(v)
	require.NoError(t, err)
	require.True(t, k1.Has(KindPromise))

	// overriding globals does not fool classification
	mustRun(t, c, `Array.isArray = function () { return true; }; Object.prototype.toString = function () { return "[object Map]"; };`)
	k2, err := c.Kinds(v)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	obj := mustRun(t, c, `({})`)
	k3, err := c.Kinds(obj)
	require.NoError(t, err)
	assert.False(t, k3.Has(KindArray))
	assert.False(t, k3.Has(KindMap))
}

func TestKinds_HostileToStringTag(t *testing.T) {
	_, c := newContext(t)
	res := c.Run(`({ get [Symbol.toStringTag]() { throw new Error("no"); } })`, "hostile.js")
	require.NoError(t, res.Err)
	assert.True(t, res.Kinds.Has(KindObject))
}

func TestKindMask_String(t *testing.T) {
	m := KindObject.Mask() | KindArray.Mask()
	assert.Equal(t, "[Array Object]", m.String())
	assert.Equal(t, []Kind{KindArray, KindObject}, m.Kinds())
	assert.Equal(t, "WebAssemblyCompiledModule", KindWebAssemblyCompiledModule.String())
	assert.Equal(t, "Kind(200)", Kind(200).String())
	assert.Equal(t, KindMask(1), KindUndefined.Mask())
}
