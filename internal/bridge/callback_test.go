package bridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallback_ArgumentsAndCaller(t *testing.T) {
	_, c := newContext(t)

	var (
		gotCaller CallerInfo
		gotArgs   []ValueTuple
	)
	bind(t, c, "record", func(id string, caller CallerInfo, args []ValueTuple) Result {
		gotCaller, gotArgs = caller, args
		return Result{Value: args[0].Value, Kinds: args[0].Kinds}
	})

	src := "function callSite() {\n  return record(7, \"two\");\n}\ncallSite();"
	res := c.Run(src, "callback.js")
	require.NoError(t, res.Err)
	assert.Equal(t, int64(7), c.ToInt64(res.Value))

	assert.Equal(t, "callSite", gotCaller.Funcname)
	assert.Equal(t, "callback.js", gotCaller.Filename)
	assert.Equal(t, 2, gotCaller.Line)
	assert.Positive(t, gotCaller.Column)

	require.Len(t, gotArgs, 2)
	assert.True(t, gotArgs[0].Kinds.Has(KindNumber))
	assert.Equal(t, 7.0, c.ToFloat64(gotArgs[0].Value))
	assert.True(t, gotArgs[1].Kinds.Has(KindString))
	assert.Equal(t, "two", c.ToString(gotArgs[1].Value))
}

func TestCallback_Name(t *testing.T) {
	_, c := newContext(t)
	bind(t, c, "namedThing", func(string, CallerInfo, []ValueTuple) Result { return Result{} })
	v := mustRun(t, c, `namedThing.name + ":" + typeof namedThing`)
	assert.Equal(t, "namedThing:function", c.ToString(v))
}

func TestCallback_ArgumentCountMirrorsCall(t *testing.T) {
	_, c := newContext(t)
	var counts []int
	bind(t, c, "count", func(_ string, _ CallerInfo, args []ValueTuple) Result {
		counts = append(counts, len(args))
		for _, a := range args {
			a.Value.Release()
		}
		return Result{}
	})
	mustRun(t, c, `count(); count(undefined); count(1, 2, 3, 4, 5); 0`)
	assert.Equal(t, []int{0, 1, 5}, counts)
}

func TestCallback_ReturnsUndefined(t *testing.T) {
	_, c := newContext(t)
	bind(t, c, "nothing", func(string, CallerInfo, []ValueTuple) Result { return Result{} })
	v := mustRun(t, c, `typeof nothing()`)
	assert.Equal(t, "undefined", c.ToString(v))
}

func TestCallback_ErrorBecomesThrow(t *testing.T) {
	_, c := newContext(t)
	bind(t, c, "fail", func(string, CallerInfo, []ValueTuple) Result {
		return Result{Err: errors.New("host said no")}
	})

	v := mustRun(t, c, `
		var caught;
		try { fail(); } catch (e) { caught = (e instanceof Error) + ":" + e.message; }
		caught`)
	assert.Equal(t, "true:host said no", c.ToString(v))

	res := c.Run(`fail()`, "uncaught.js")
	requireUncaught(t, res.Err, "Error: host said no", "at uncaught.js:1:")
}

func TestCallback_Reentrant(t *testing.T) {
	_, c := newContext(t)
	bind(t, c, "reenter", func(_ string, _ CallerInfo, args []ValueTuple) Result {
		inner := c.Run(`base * 2`, "inner.js")
		if inner.Err != nil {
			return inner
		}
		sum := c.ToFloat64(inner.Value) + c.ToFloat64(args[0].Value)
		v, err := c.CreateImmediate(ImmediateValue{Type: ImmediateFloat64, Float64: sum})
		return Result{Value: v, Err: err}
	})
	v := mustRun(t, c, `var base = 20; reenter(2)`)
	assert.Equal(t, int64(42), c.ToInt64(v))
}

func TestCallback_NestedCallbacks(t *testing.T) {
	_, c := newContext(t)
	bind(t, c, "outer", func(_ string, _ CallerInfo, args []ValueTuple) Result {
		return c.Call(args[0].Value, nil)
	})
	bind(t, c, "leaf", func(string, CallerInfo, []ValueTuple) Result {
		v, err := c.CreateImmediate(ImmediateValue{Type: ImmediateString, Data: []byte("leaf")})
		return Result{Value: v, Err: err}
	})
	v := mustRun(t, c, `outer(function () { return leaf() + "!"; })`)
	assert.Equal(t, "leaf!", c.ToString(v))
}

func TestCallback_CallerInfoZeroFromHost(t *testing.T) {
	_, c := newContext(t)
	var got CallerInfo
	called := false
	bind(t, c, "direct", func(_ string, caller CallerInfo, _ []ValueTuple) Result {
		got, called = caller, true
		return Result{}
	})
	fn := mustRun(t, c, `direct`)
	res := c.Call(fn, nil)
	require.NoError(t, res.Err)
	require.True(t, called)
	assert.Equal(t, CallerInfo{}, got)
}

func TestCallback_UnknownID(t *testing.T) {
	_, c := newContext(t)
	cb, err := c.RegisterCallback("ghost", "no-such-id")
	require.NoError(t, err)
	res := c.Call(cb, nil)
	requireUncaught(t, res.Err, `no callback registered for "no-such-id"`)
}

func TestCallback_InvalidName(t *testing.T) {
	_, c := newContext(t)
	_, err := c.RegisterCallback(string([]byte{0xff}), "id")
	assert.ErrorIs(t, err, ErrInvalidName)
}
