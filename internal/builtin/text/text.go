// Package text provides the jsrun:text module: display width and
// truncation of strings as a monospace terminal renders them.
package text

import (
	"strings"

	"github.com/dop251/goja"
	"github.com/rivo/uniseg"
)

// DefaultTail is appended by truncate when no tail is given.
const DefaultTail = "..."

// Width returns the monospace display width of s.
func Width(s string) int {
	return uniseg.StringWidth(s)
}

// Truncate shortens s to at most maxWidth columns, ending it with tail when
// anything was cut. Grapheme clusters are never split. If tail alone is
// wider than maxWidth, tail is returned.
func Truncate(s string, maxWidth int, tail string) string {
	if uniseg.StringWidth(s) <= maxWidth {
		return s
	}
	budget := maxWidth - uniseg.StringWidth(tail)
	if budget < 0 {
		return tail
	}
	var b strings.Builder
	state := -1
	for used := 0; s != ""; {
		var cluster string
		var w int
		cluster, s, w, state = uniseg.FirstGraphemeClusterInString(s, state)
		if used+w > budget {
			break
		}
		used += w
		b.WriteString(cluster)
	}
	b.WriteString(tail)
	return b.String()
}

// Graphemes splits s into user-perceived characters.
func Graphemes(s string) []string {
	var out []string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// Require is the module loader.
//
//	const text = require('jsrun:text');
//	text.width('你好');             // 4
//	text.truncate('hello', 4);     // "h..."
//	text.graphemes('éx');   // ["é", "x"]
func Require(runtime *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").(*goja.Object)

	_ = exports.Set("width", func(call goja.FunctionCall) goja.Value {
		return runtime.ToValue(Width(stringArg(call, 0)))
	})

	_ = exports.Set("truncate", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(runtime.NewTypeError("truncate requires a string and a width"))
		}
		tail := DefaultTail
		if a := call.Argument(2); !goja.IsUndefined(a) {
			tail = a.String()
		}
		return runtime.ToValue(Truncate(stringArg(call, 0), int(call.Argument(1).ToInteger()), tail))
	})

	_ = exports.Set("graphemes", func(call goja.FunctionCall) goja.Value {
		parts := Graphemes(stringArg(call, 0))
		vals := make([]any, len(parts))
		for i, p := range parts {
			vals[i] = p
		}
		return runtime.NewArray(vals...)
	})
}

func stringArg(call goja.FunctionCall, n int) string {
	a := call.Argument(n)
	if goja.IsUndefined(a) || goja.IsNull(a) {
		return ""
	}
	return a.String()
}
