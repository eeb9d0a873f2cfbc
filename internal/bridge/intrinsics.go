package bridge

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// intrinsicsProgram captures builtins while a context is still pristine,
// so that later scripts replacing globals (Array, Reflect, ...) cannot
// change how the bridge classifies or mutates values.
var intrinsicsProgram = goja.MustCompile("<intrinsics>", `(function () {
	"use strict";
	var apply = Reflect.apply;
	var getProto = Object.getPrototypeOf;
	var desc = Object.getOwnPropertyDescriptor;
	var isArray = Array.isArray;
	var isView = ArrayBuffer.isView;
	var objectToString = Object.prototype.toString;
	var isProtoOf = Object.prototype.isPrototypeOf;
	var taProto = getProto(Uint8Array.prototype);
	var taTag = (desc(taProto, Symbol.toStringTag) || {}).get;
	var taBuffer = desc(taProto, "buffer").get;
	var asyncProto, genFnProto, genProto;
	try {
		asyncProto = getProto(Function("return async function () {}")());
	} catch (e) {}
	try {
		genFnProto = getProto(Function("return function* () {}")());
		genProto = genFnProto.prototype;
	} catch (e) {}
	function elementType(v) {
		return taTag ? apply(taTag, v, []) : undefined;
	}
	return {
		classify: function (v) {
			var view = isView(v);
			var fn = typeof v === "function";
			var tag;
			try {
				tag = apply(objectToString, v, []);
			} catch (e) {
				tag = "";
			}
			return [
				isArray(v),
				view,
				view ? elementType(v) : undefined,
				tag.slice(8, -1),
				fn && asyncProto !== undefined && getProto(v) === asyncProto,
				fn && genFnProto !== undefined && getProto(v) === genFnProto,
				genProto !== undefined && apply(isProtoOf, genProto, [v])
			];
		},
		buffer: function (v) {
			if (!isView(v) || elementType(v) === undefined) {
				return undefined;
			}
			return apply(taBuffer, v, []);
		},
		get: Reflect.get,
		set: Reflect.set,
		construct: Reflect.construct,
		toString: String,
		toNumber: Number,
		keys: Object.keys,
		Error: Error,
		Array: Array,
		Date: Date,
		stringify: JSON.stringify,
		parse: JSON.parse
	};
})()`, false)

// intrinsics are the builtins of one context, captured at creation.
type intrinsics struct {
	classify  goja.Callable
	buffer    goja.Callable
	get       goja.Callable
	set       goja.Callable
	construct goja.Callable
	toString  goja.Callable
	toNumber  goja.Callable
	keys      goja.Callable
	stringify goja.Callable
	parse     goja.Callable

	errorCtor *goja.Object
	arrayCtor *goja.Object
	dateCtor  *goja.Object
}

func captureIntrinsics(vm *goja.Runtime) (*intrinsics, error) {
	v, err := vm.RunProgram(intrinsicsProgram)
	if err != nil {
		return nil, err
	}
	obj := v.ToObject(vm)
	in := new(intrinsics)
	for name, dst := range map[string]*goja.Callable{
		"classify":  &in.classify,
		"buffer":    &in.buffer,
		"get":       &in.get,
		"set":       &in.set,
		"construct": &in.construct,
		"toString":  &in.toString,
		"toNumber":  &in.toNumber,
		"keys":      &in.keys,
		"stringify": &in.stringify,
		"parse":     &in.parse,
	} {
		fn, ok := goja.AssertFunction(obj.Get(name))
		if !ok {
			return nil, fmt.Errorf("intrinsic %s is not a function", name)
		}
		*dst = fn
	}
	for name, dst := range map[string]**goja.Object{
		"Error": &in.errorCtor,
		"Array": &in.arrayCtor,
		"Date":  &in.dateCtor,
	} {
		ctor, ok := obj.Get(name).(*goja.Object)
		if !ok {
			return nil, fmt.Errorf("intrinsic %s is not an object", name)
		}
		*dst = ctor
	}
	return in, nil
}

// call invokes an intrinsic. Callables catch every engine error, including
// an interrupt from Terminate that happened to land inside the intrinsic;
// such an interrupt is re-armed so that it still aborts the script the
// intrinsic was called from.
func (c *Context) call(fn goja.Callable, this goja.Value, args ...goja.Value) (goja.Value, error) {
	v, err := fn(this, args...)
	if err != nil {
		var ie *goja.InterruptedError
		if errors.As(err, &ie) {
			c.vm.Interrupt(ie.Value())
		}
		return nil, err
	}
	return v, nil
}
