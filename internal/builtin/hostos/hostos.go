// Package hostos provides the jsrun:os module, giving scripts read access
// to the host: files, environment variables and their own arguments.
package hostos

import (
	"os"

	"github.com/dop251/goja"
)

// Require returns the loader for jsrun:os. args is exposed as os.args.
func Require(args []string) func(runtime *goja.Runtime, module *goja.Object) {
	return func(runtime *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)

		argv := make([]any, len(args))
		for i, a := range args {
			argv[i] = a
		}
		_ = exports.Set("args", runtime.NewArray(argv...))

		// readFile(path): {content, error, message}
		_ = exports.Set("readFile", func(call goja.FunctionCall) goja.Value {
			path := pathArg(call)
			if path == "" {
				return readResult(runtime, "", "empty path")
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return readResult(runtime, "", err.Error())
			}
			return readResult(runtime, string(data), "")
		})

		_ = exports.Set("fileExists", func(call goja.FunctionCall) goja.Value {
			path := pathArg(call)
			if path == "" {
				return runtime.ToValue(false)
			}
			_, err := os.Stat(path)
			return runtime.ToValue(err == nil)
		})

		// getenv(key): string, empty when unset
		_ = exports.Set("getenv", func(call goja.FunctionCall) goja.Value {
			return runtime.ToValue(os.Getenv(pathArg(call)))
		})
	}
}

func pathArg(call goja.FunctionCall) string {
	a := call.Argument(0)
	if goja.IsUndefined(a) || goja.IsNull(a) {
		return ""
	}
	return a.String()
}

func readResult(runtime *goja.Runtime, content, message string) goja.Value {
	return runtime.ToValue(map[string]any{
		"content": content,
		"error":   message != "",
		"message": message,
	})
}
