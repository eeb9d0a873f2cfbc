// Package logfile provides the size-rotated JSON log file used by jsrun.
package logfile

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
)

const megabyte = 1 << 20

// Writer appends to a file and rotates it once it would grow beyond a
// size limit: app.log becomes app.log.1, app.log.1 becomes app.log.2 and
// so on, and backups past the retention count are removed. A single write
// is never split across files.
//
// A Writer is safe for concurrent use.
type Writer struct {
	mu       sync.Mutex
	path     string
	limit    int64
	keep     int
	size     int64
	file     *os.File
	rotateFn func() error
}

var _ io.WriteCloser = (*Writer)(nil)

// Open opens path for appending, creating it and its directory as needed.
// maxSizeMB is clamped to at least 1 and maxFiles to at least 0; with no
// backups kept, rotation starts the file over.
func Open(path string, maxSizeMB, maxFiles int) (*Writer, error) {
	return open(path, int64(max(maxSizeMB, 1))*megabyte, max(maxFiles, 0))
}

func open(path string, limit int64, keep int) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("logfile: %w", err)
		}
	}
	w := &Writer{path: path, limit: limit, keep: keep}
	w.rotateFn = w.rotate
	if err := w.reopen(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) reopen() error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("logfile: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("logfile: %w", err)
	}
	w.file, w.size = f, info.Size()
	return nil
}

// Write appends p, rotating first if p would take the file past its limit.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.size > 0 && w.size+int64(len(p)) > w.limit {
		if err := w.rotateFn(); err != nil {
			return 0, fmt.Errorf("logfile: rotate: %w", err)
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Close closes the file. Later writes fail with os.ErrClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// rotate shifts the backups up by one. w.mu is held.
func (w *Writer) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	w.file = nil

	backups := w.backups()
	for _, n := range slices.Backward(backups) {
		if n >= w.keep {
			_ = os.Remove(w.backup(n))
		} else {
			_ = os.Rename(w.backup(n), w.backup(n+1))
		}
	}
	if w.keep > 0 {
		_ = os.Rename(w.path, w.backup(1))
	} else {
		_ = os.Remove(w.path)
	}
	return w.reopen()
}

func (w *Writer) backup(n int) string {
	return w.path + "." + strconv.Itoa(n)
}

// backups lists the numbers of the existing backups, ascending.
func (w *Writer) backups() []int {
	entries, err := os.ReadDir(filepath.Dir(w.path))
	if err != nil {
		return nil
	}
	prefix := filepath.Base(w.path) + "."
	var nums []int
	for _, e := range entries {
		suffix, ok := strings.CutPrefix(e.Name(), prefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n >= 1 {
			nums = append(nums, n)
		}
	}
	slices.Sort(nums)
	return nums
}

// ParseLevel parses debug, info, warn or error, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("logfile: invalid log level %q", s)
	}
	return level, nil
}

// NewLogger returns a logger writing JSON lines at or above level to w and
// recording the same records in mem. Either may be nil; with neither the
// logger discards everything.
func NewLogger(w io.Writer, level slog.Level, mem *Memory) *slog.Logger {
	var h slog.Handler
	if w != nil {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	switch {
	case mem != nil:
		return slog.New(mem.Handler(level, h))
	case h != nil:
		return slog.New(h)
	}
	return slog.New(slog.DiscardHandler)
}
