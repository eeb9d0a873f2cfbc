//go:build debug

// Debug-only assertions for handle affinity, compiled with the "debug" build
// tag. Release builds check affinity too, but report an error instead of
// stopping the program.
//
// To enable: go test -tags debug ./...
package bridge

import (
	"fmt"
	"runtime"
)

// debugAssertSameRuntime panics if v was created by a different Runtime
// than c's.
func debugAssertSameRuntime(c *Context, v *Value) {
	if v.ctx.rt != c.rt {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		panic(fmt.Sprintf("HANDLE AFFINITY: value of runtime %d used with runtime %d\nStack:\n%s", v.ctx.rt.id, c.rt.id, buf[:n]))
	}
}

// debugAssertLocked panics if the calling goroutine does not hold the
// Runtime's lock.
func debugAssertLocked(r *Runtime, msg string) {
	if !r.lock.held() {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		panic(fmt.Sprintf("UNLOCKED ACCESS: %s - runtime %d lock not held\nStack:\n%s", msg, r.id, buf[:n]))
	}
}
