package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/dop251/goja"
	gojarequire "github.com/dop251/goja_nodejs/require"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntime_TerminateInfiniteLoop(t *testing.T) {
	rt, c := newContext(t)

	done := make(chan Result, 1)
	go func() {
		done <- c.Run(`for (;;) {}`, "loop.js")
	}()

	var res Result
	require.Eventually(t, func() bool {
		rt.Terminate()
		select {
		case res = <-done:
			return true
		default:
			return false
		}
	}, 10*time.Second, 10*time.Millisecond)

	require.Nil(t, res.Value)
	requireUncaught(t, res.Err, "execution terminated", "at loop.js:1:")
	require.ErrorIs(t, res.Err, ErrTerminated)

	var ie *goja.InterruptedError
	require.True(t, errors.As(res.Err, &ie))

	// the interrupt does not outlive the terminated operation
	v := mustRun(t, c, `40 + 2`)
	assert.Equal(t, int64(42), c.ToInt64(v))
}

func TestRuntime_TerminateIdleIsNoop(t *testing.T) {
	rt, c := newContext(t)
	rt.Terminate()
	v := mustRun(t, c, `"still running"`)
	assert.Equal(t, "still running", c.ToString(v))
}

func TestRuntime_TerminateDuringCallback(t *testing.T) {
	rt, c := newContext(t)
	bind(t, c, "stop", func(string, CallerInfo, []ValueTuple) Result {
		rt.Terminate()
		return Result{}
	})
	res := c.Run(`stop(); for (;;) {}`, "stop.js")
	require.ErrorIs(t, res.Err, ErrTerminated)
}

func TestRuntime_Release(t *testing.T) {
	rt, err := NewRuntime(nil)
	require.NoError(t, err)
	c, err := rt.NewContext()
	require.NoError(t, err)
	v := mustRun(t, c, `({a: 1})`)

	rt.Release()
	rt.Release()

	res := c.Run(`1`, "")
	require.ErrorIs(t, res.Err, ErrReleased)
	_, err = rt.NewContext()
	require.ErrorIs(t, err, ErrReleased)

	// handles of a released runtime release as a no-op
	v.Release()
	v.Release()
	c.Release()
	assert.Equal(t, "", c.ToString(v))
	assert.Zero(t, rt.HeapStatistics().Handles)
}

func TestContext_Release(t *testing.T) {
	rt, c := newContext(t)
	other, err := rt.NewContext()
	require.NoError(t, err)

	v := mustRun(t, c, `[1, 2, 3]`)
	c.Release()
	c.Release()
	v.Release()

	require.ErrorIs(t, c.Run(`1`, "").Err, ErrReleased)
	// siblings are unaffected
	w := mustRun(t, other, `"ok"`)
	assert.Equal(t, "ok", other.ToString(w))
}

func TestRuntime_HeapStatistics(t *testing.T) {
	rt, c := newContext(t)
	before := rt.HeapStatistics()
	assert.Equal(t, 1, before.Contexts)
	assert.NotZero(t, before.TotalHeapSize)
	assert.NotZero(t, before.UsedHeapSize)

	a := mustRun(t, c, `1`)
	b := mustRun(t, c, `2`)
	assert.Equal(t, before.Handles+2, rt.HeapStatistics().Handles)

	a.Release()
	a.Release()
	assert.Equal(t, before.Handles+1, rt.HeapStatistics().Handles)

	b.ReleaseLater()
	rt.LowMemoryNotification()
	assert.Equal(t, before.Handles, rt.HeapStatistics().Handles)
}

func TestRuntime_ValueAffinity(t *testing.T) {
	_, c1 := newContext(t)
	_, c2 := newContext(t)
	v := mustRun(t, c1, `({})`)
	res := c2.GetProperty(v, "x")
	require.ErrorIs(t, res.Err, ErrForeignValue)
}

func TestRuntime_Snapshot(t *testing.T) {
	data, err := CreateSnapshot(`var greeting = "hello"; function greet(n) { return greeting + " " + n; }`)
	require.NoError(t, err)

	rt, err := NewRuntime(data)
	require.NoError(t, err)
	defer rt.Release()

	for i := 0; i < 2; i++ {
		c, err := rt.NewContext()
		require.NoError(t, err)
		v := mustRun(t, c, `greet("world")`)
		assert.Equal(t, "hello world", c.ToString(v))
	}
}

func TestRuntime_SnapshotErrors(t *testing.T) {
	_, err := CreateSnapshot(`function (`)
	requireUncaught(t, err, "SyntaxError", "at <embedded>:1:")

	_, err = NewRuntime([]byte("not a snapshot"))
	require.ErrorIs(t, err, ErrInvalidSnapshot)

	data, err := CreateSnapshot(`throw new Error("bootstrap failed")`)
	require.NoError(t, err)
	rt, err := NewRuntime(data)
	require.NoError(t, err)
	defer rt.Release()
	_, err = rt.NewContext()
	requireUncaught(t, err, "bootstrap failed", "at <embedded>:1:")
	assert.Zero(t, rt.HeapStatistics().Contexts)
}

func TestRuntime_ModuleRegistry(t *testing.T) {
	registry := gojarequire.NewRegistry()
	registry.RegisterNativeModule("answer", func(vm *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)
		_ = exports.Set("value", 42)
	})
	_, c := newContext(t, WithModuleRegistry(registry))
	v := mustRun(t, c, `require("answer").value`)
	assert.Equal(t, int64(42), c.ToInt64(v))
}
