// Package jsbridge embeds a JavaScript engine. An Isolate is an
// independent engine instance; Contexts created from it are separate
// global scopes, and Values are handles to engine values living in one
// Context.
//
// All operations on an Isolate, and on its Contexts and Values, are
// serialized by a lock owned by the Isolate. Callbacks bound with
// Context.Bind run on the goroutine executing the script and may use the
// Context again.
package jsbridge

import (
	"log/slog"
	"sync"

	"github.com/dop251/goja_nodejs/require"
	"github.com/joeycumines/jsbridge/internal/bridge"
)

// Isolate is an engine instance.
type Isolate struct {
	rt     *bridge.Runtime
	logger *slog.Logger

	mu       sync.Mutex
	contexts map[*Context]struct{}
}

// Option configures NewIsolate.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	registry *require.Registry
}

// WithLogger sets the logger for lifecycle events and callback failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRequire enables CommonJS require() in every Context. Modules are
// loaded from the file system relative to the requiring script, then
// from folders, in order.
func WithRequire(folders ...string) Option {
	return func(o *options) {
		o.registry = require.NewRegistry(require.WithGlobalFolders(folders...))
	}
}

// WithRegistry enables require() with a caller-built registry, for
// example one with native modules registered.
func WithRegistry(registry *require.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// NewIsolate creates an Isolate.
func NewIsolate(opts ...Option) (*Isolate, error) {
	return newIsolate(nil, opts)
}

// NewIsolateWithSnapshot creates an Isolate whose Contexts start from the
// state the snapshot's script produced.
func NewIsolateWithSnapshot(s *Snapshot, opts ...Option) (*Isolate, error) {
	var data []byte
	if s != nil {
		data = s.data
	}
	return newIsolate(data, opts)
}

func newIsolate(data []byte, opts []Option) (*Isolate, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	ensureDispatcher()

	var ropts []bridge.RuntimeOption
	if o.logger != nil {
		ropts = append(ropts, bridge.WithLogger(o.logger))
	}
	if o.registry != nil {
		ropts = append(ropts, bridge.WithModuleRegistry(o.registry))
	}
	rt, err := bridge.NewRuntime(data, ropts...)
	if err != nil {
		return nil, err
	}
	iso := &Isolate{rt: rt, logger: o.logger, contexts: make(map[*Context]struct{})}
	if iso.logger == nil {
		iso.logger = slog.New(slog.DiscardHandler)
	}
	return iso, nil
}

// NewContext creates a Context. With a snapshot, the snapshot's script has
// already run in it.
func (i *Isolate) NewContext() (*Context, error) {
	c, err := i.rt.NewContext()
	if err != nil {
		return nil, err
	}
	ctx := &Context{iso: i, c: c}
	i.mu.Lock()
	i.contexts[ctx] = struct{}{}
	i.mu.Unlock()
	return ctx, nil
}

func (i *Isolate) forget(c *Context) {
	i.mu.Lock()
	delete(i.contexts, c)
	i.mu.Unlock()
}

// Terminate aborts the script currently running in the Isolate, if any.
// It may be called from any goroutine. The aborted operation fails with
// an error; the Isolate stays usable.
func (i *Isolate) Terminate() {
	i.rt.Terminate()
}

// Release terminates running script and frees the Isolate. Every Context
// and Value created from it becomes unusable, and their callbacks are
// dropped.
func (i *Isolate) Release() {
	i.rt.Release()
	i.mu.Lock()
	contexts := i.contexts
	i.contexts = make(map[*Context]struct{})
	i.mu.Unlock()
	for c := range contexts {
		c.dropBindings()
	}
}

// HeapStatistics describes memory use. See GetHeapStatistics.
type HeapStatistics = bridge.HeapStatistics

// GetHeapStatistics reports memory statistics.
func (i *Isolate) GetHeapStatistics() HeapStatistics {
	return i.rt.HeapStatistics()
}

// SendLowMemoryNotification asks the Isolate to free as much memory as
// it can.
func (i *Isolate) SendLowMemoryNotification() {
	i.rt.LowMemoryNotification()
}

// Snapshot is startup data for NewIsolateWithSnapshot.
type Snapshot struct {
	data []byte
}

// CreateSnapshot builds a Snapshot from a bootstrap script. The script is
// checked for syntax errors here and runs in every Context created from an
// Isolate using the Snapshot.
func CreateSnapshot(js string) (*Snapshot, error) {
	data, err := bridge.CreateSnapshot(js)
	if err != nil {
		return nil, err
	}
	return &Snapshot{data: data}, nil
}

// Export returns the Snapshot's serialized form.
func (s *Snapshot) Export() []byte {
	return append([]byte(nil), s.data...)
}

// RestoreSnapshotFromExport wraps data previously returned by Export. It
// is validated when an Isolate is created from it.
func RestoreSnapshotFromExport(data []byte) *Snapshot {
	return &Snapshot{data: append([]byte(nil), data...)}
}
