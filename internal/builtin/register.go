// Package builtin registers jsrun's native modules.
package builtin

import (
	"github.com/dop251/goja_nodejs/require"
	"github.com/joeycumines/jsbridge/internal/builtin/hostos"
	"github.com/joeycumines/jsbridge/internal/builtin/text"
	"github.com/joeycumines/jsbridge/internal/builtin/uuid"

	// Node core modules, available as require("buffer") and so on.
	_ "github.com/dop251/goja_nodejs/buffer"
	_ "github.com/dop251/goja_nodejs/url"
	_ "github.com/dop251/goja_nodejs/util"
)

// Prefix namespaces the native modules.
const Prefix = "jsrun:"

// Modules lists the native module names Register adds.
var Modules = []string{Prefix + "os", Prefix + "text", Prefix + "uuid"}

// Register adds the native modules to registry. args is exposed to scripts
// as require("jsrun:os").args.
func Register(registry *require.Registry, args []string) {
	registry.RegisterNativeModule(Prefix+"os", hostos.Require(args))
	registry.RegisterNativeModule(Prefix+"text", text.Require)
	registry.RegisterNativeModule(Prefix+"uuid", uuid.Require)
}
