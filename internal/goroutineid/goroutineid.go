// Package goroutineid identifies the calling goroutine.
//
// The runtime deliberately hides goroutine identity. The bridge needs it for
// exactly one thing: letting a goroutine that already owns an engine lock
// re-enter it (a host callback calling back into the engine), so the id is
// recovered from the header line of runtime.Stack.
package goroutineid

import (
	"runtime"
	"sync"
)

// header is large enough for "goroutine 18446744073709551615 [".
const header = 64

var bufs = sync.Pool{
	New: func() any {
		b := make([]byte, header)
		return &b
	},
}

// Current returns the id of the calling goroutine, or 0 if it could not be
// determined. Zero is never a valid goroutine id.
func Current() uint64 {
	bp := bufs.Get().(*[]byte)
	n := runtime.Stack(*bp, false)
	id := parse((*bp)[:n])
	bufs.Put(bp)
	return id
}

// parse reads the decimal id from a stack header of the form
// "goroutine 42 [running]:". It does not allocate.
func parse(stack []byte) uint64 {
	const prefix = "goroutine "
	if len(stack) <= len(prefix) || string(stack[:len(prefix)]) != prefix {
		return 0
	}
	var id uint64
	for _, b := range stack[len(prefix):] {
		if b < '0' || b > '9' {
			if b != ' ' {
				return 0
			}
			return id
		}
		next := id*10 + uint64(b-'0')
		if next < id {
			return 0
		}
		id = next
	}
	return 0
}
