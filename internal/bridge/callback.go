package bridge

import (
	"errors"
	"sync/atomic"
	"unicode/utf8"

	"github.com/dop251/goja"
)

// CallerInfo locates the script call site of a callback invocation. It is
// zero when the callback was not called from script, e.g. when the host
// invoked it through Context.Call.
type CallerInfo struct {
	Funcname string
	Filename string
	Line     int
	Column   int
}

// Dispatcher handles every callback invocation in the process. id is the
// value given to RegisterCallback. args holds one handle per argument, in
// order; the dispatcher owns them and should release those it does not
// keep.
//
// Returning a Result with Err set makes the script call site throw an
// Error with that message. A Result with neither Value nor Err returns
// undefined.
//
// The dispatcher runs on the goroutine executing the script, with the
// Runtime's lock held, so it may use the Context again.
type Dispatcher func(id string, caller CallerInfo, args []ValueTuple) Result

var dispatcher atomic.Pointer[Dispatcher]

// Init installs the process-wide callback dispatcher. Only the first call
// succeeds; later calls return ErrDispatcherInstalled.
func Init(d Dispatcher) error {
	if d == nil {
		return errors.New("bridge: nil dispatcher")
	}
	if !dispatcher.CompareAndSwap(nil, &d) {
		return ErrDispatcherInstalled
	}
	return nil
}

// RegisterCallback creates a function that forwards its calls to the
// dispatcher with the given id. name becomes the function's name property.
// The function is not installed anywhere; assign it with SetProperty.
func (c *Context) RegisterCallback(name, id string) (*Value, error) {
	if !utf8.ValidString(name) {
		return nil, ErrInvalidName
	}
	s, err := c.enter()
	if err != nil {
		return nil, err
	}
	defer s.exit()

	fn, ok := c.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return c.invoke(id, call)
	}).(*goja.Object)
	if !ok {
		return nil, errors.New("bridge: native function is not an object")
	}
	if err := fn.DefineDataProperty("name", c.vm.ToValue(name), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		return nil, err
	}
	return c.wrap(fn), nil
}

func (c *Context) invoke(id string, call goja.FunctionCall) goja.Value {
	d := dispatcher.Load()
	if d == nil {
		panic(c.newError(ErrNoDispatcher.Msg))
	}

	// The script that called us entered the Runtime on this goroutine, so
	// this only nests.
	s, err := c.enter()
	if err != nil {
		panic(c.newError(err.Error()))
	}
	defer s.exit()

	caller := c.callerInfo()
	args := make([]ValueTuple, len(call.Arguments))
	for i, a := range call.Arguments {
		args[i] = ValueTuple{Value: c.wrap(a), Kinds: c.kindsOf(a)}
	}

	res := (*d)(id, caller, args)
	if res.Err != nil {
		panic(c.newError(res.Err.Error()))
	}
	if res.Value == nil {
		return goja.Undefined()
	}
	val, err := c.resolve(res.Value)
	if err != nil {
		panic(c.newError(err.Error()))
	}
	return val
}

// callerInfo captures the nearest script frame. Frames of native functions,
// including the callback itself, are skipped.
func (c *Context) callerInfo() CallerInfo {
	frames := c.vm.CaptureCallStack(0, nil)
	for len(frames) > 0 && frames[0].SrcName() == "<native>" {
		frames = frames[1:]
	}
	if len(frames) == 0 {
		return CallerInfo{}
	}
	f := &frames[0]
	p := f.Position()
	info := CallerInfo{
		Funcname: f.FuncName(),
		Filename: f.SrcName(),
		Line:     p.Line,
		Column:   p.Column,
	}
	if info.Funcname == "<anonymous>" {
		info.Funcname = ""
	}
	return info
}

// newError builds an Error object with the context's own Error
// constructor, for throwing from native code.
func (c *Context) newError(msg string) goja.Value {
	obj, err := c.construct(c.in.errorCtor, c.vm.ToValue(msg))
	if err != nil {
		return c.vm.ToValue(msg)
	}
	return obj
}
