package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall(t *testing.T) {
	_, c := newContext(t)
	add := mustRun(t, c, `(function (a, b) { return a + b; })`)
	res := c.Call(add, nil, immediateNumber(t, c, 1), immediateNumber(t, c, 2))
	require.NoError(t, res.Err)
	assert.Equal(t, int64(3), c.ToInt64(res.Value))

	who := mustRun(t, c, `(function () { return this; })`)
	res = c.Call(who, nil)
	require.NoError(t, res.Err)
	isGlobal := mustRun(t, c, `(function (v) { return v === globalThis; })`)
	check := c.Call(isGlobal, nil, res.Value)
	assert.True(t, c.ToBool(check.Value))

	self := mustRun(t, c, `({ name: "self" })`)
	method := mustRun(t, c, `(function () { return this.name; })`)
	res = c.Call(method, self)
	require.NoError(t, res.Err)
	assert.Equal(t, "self", c.ToString(res.Value))
}

func TestCall_Errors(t *testing.T) {
	_, c := newContext(t)
	res := c.Call(mustRun(t, c, `({})`), nil)
	assert.ErrorIs(t, res.Err, ErrNotFunction)
	assert.Equal(t, "Not a function", res.Err.Error())

	thrower := mustRun(t, c, "(function () {\n  throw new TypeError(\"bad call\");\n})")
	res = c.Call(thrower, nil)
	assert.Nil(t, res.Value)
	requireUncaught(t, res.Err, "TypeError: bad call", "\n    throw new TypeError(\"bad call\");\n")
}

func TestNew(t *testing.T) {
	_, c := newContext(t)
	ctor := mustRun(t, c, `(class Point { constructor(x, y) { this.x = x; this.y = y; } })`)
	res := c.New(ctor, immediateNumber(t, c, 3), immediateNumber(t, c, 4))
	require.NoError(t, res.Err)
	assert.True(t, res.Kinds.Has(KindObject))
	assert.Equal(t, int64(4), c.ToInt64(c.GetProperty(res.Value, "y").Value))

	res = c.New(mustRun(t, c, `Date`), immediateNumber(t, c, 0))
	require.NoError(t, res.Err)
	assert.True(t, res.Kinds.Has(KindDate))

	assert.ErrorIs(t, c.New(mustRun(t, c, `42`)).Err, ErrNotFunction)
	requireUncaught(t, c.New(mustRun(t, c, `(() => 1)`)).Err, "TypeError")
}

func TestPromiseInfo(t *testing.T) {
	_, c := newContext(t)

	pending := mustRun(t, c, `var resolveIt; var p = new Promise(function (r) { resolveIt = r; }); p`)
	res, state := c.PromiseInfo(pending)
	assert.Equal(t, PromiseStatePending, state)
	assert.Nil(t, res.Value)
	assert.NoError(t, res.Err)

	mustRun(t, c, `resolveIt(7); 0`)
	res, state = c.PromiseInfo(pending)
	assert.Equal(t, PromiseStateFulfilled, state)
	require.NoError(t, res.Err)
	assert.Equal(t, int64(7), c.ToInt64(res.Value))

	rejected := mustRun(t, c, `var r = Promise.reject(new Error("nope")); r.catch(function () {}); r`)
	res, state = c.PromiseInfo(rejected)
	assert.Equal(t, PromiseStateRejected, state)
	require.NoError(t, res.Err)
	assert.Equal(t, "Error: nope", c.ToString(res.Value))

	res, _ = c.PromiseInfo(mustRun(t, c, `({ then: function () {} })`))
	assert.ErrorIs(t, res.Err, ErrNotPromise)
	assert.Equal(t, "Not a promise", res.Err.Error())
}

func TestPromiseInfo_AsyncFunction(t *testing.T) {
	_, c := newContext(t)
	p := mustRun(t, c, `(async function () { return "done"; })()`)
	res, state := c.PromiseInfo(p)
	require.Equal(t, PromiseStateFulfilled, state)
	assert.Equal(t, "done", c.ToString(res.Value))
}

func TestPromiseState_String(t *testing.T) {
	assert.Equal(t, "pending", PromiseStatePending.String())
	assert.Equal(t, "fulfilled", PromiseStateFulfilled.String())
	assert.Equal(t, "rejected", PromiseStateRejected.String())
	assert.Equal(t, "unknown", PromiseState(9).String())
}
