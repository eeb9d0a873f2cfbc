// Package uuid provides the jsrun:uuid module.
package uuid

import (
	"github.com/dop251/goja"
	googleuuid "github.com/google/uuid"
)

// Require is the module loader.
//
//	const uuid = require('jsrun:uuid');
//	uuid.v4();             // random
//	uuid.v7();             // time-ordered
//	uuid.validate('...');  // boolean
func Require(runtime *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").(*goja.Object)

	_ = exports.Set("v4", func(goja.FunctionCall) goja.Value {
		return runtime.ToValue(googleuuid.NewString())
	})

	_ = exports.Set("v7", func(goja.FunctionCall) goja.Value {
		id, err := googleuuid.NewV7()
		if err != nil {
			panic(runtime.NewGoError(err))
		}
		return runtime.ToValue(id.String())
	})

	_ = exports.Set("validate", func(call goja.FunctionCall) goja.Value {
		a := call.Argument(0)
		if goja.IsUndefined(a) || goja.IsNull(a) {
			return runtime.ToValue(false)
		}
		return runtime.ToValue(googleuuid.Validate(a.String()) == nil)
	})

	_ = exports.Set("nil", googleuuid.Nil.String())
}
