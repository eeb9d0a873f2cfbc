//go:build !debug

package bridge

// debugAssertSameRuntime is a no-op in release builds.
func debugAssertSameRuntime(*Context, *Value) {}

// debugAssertLocked is a no-op in release builds.
func debugAssertLocked(*Runtime, string) {}
