package bridge

import (
	"sync"
	"sync/atomic"

	"github.com/joeycumines/jsbridge/internal/goroutineid"
)

// reentrantLock is a mutex that the owning goroutine may acquire again
// without blocking. Engine callbacks run on the goroutine that entered the
// engine, and may call back into the same Runtime.
type reentrantLock struct {
	mu    sync.Mutex
	owner atomic.Uint64
	depth int
}

// lock acquires the lock, reporting whether this was the outermost
// acquisition by the calling goroutine.
func (l *reentrantLock) lock() (outermost bool) {
	id := goroutineid.Current()
	if id != 0 && l.owner.Load() == id {
		l.depth++
		return false
	}
	l.mu.Lock()
	l.owner.Store(id)
	l.depth = 1
	return true
}

func (l *reentrantLock) unlock() {
	l.depth--
	if l.depth == 0 {
		l.owner.Store(0)
		l.mu.Unlock()
	}
}

// held reports whether the calling goroutine owns the lock.
func (l *reentrantLock) held() bool {
	id := goroutineid.Current()
	return id != 0 && l.owner.Load() == id
}
