package logfile

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// Entry is a log record kept by a Memory.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// String renders the entry on one line.
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Time.Format(time.TimeOnly))
	b.WriteByte(' ')
	b.WriteString(e.Level.String())
	b.WriteByte(' ')
	b.WriteString(e.Message)
	for _, k := range slices.Sorted(maps.Keys(e.Attrs)) {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(e.Attrs[k])
	}
	return b.String()
}

// Memory keeps the most recent log entries so an interactive session can
// show them. Memory is shared by every handler derived from it.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
}

// NewMemory returns a Memory holding up to size entries (default 1000).
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = 1000
	}
	return &Memory{entries: make([]Entry, size)}
}

func (m *Memory) add(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.next] = e
	m.next++
	if m.next == len(m.entries) {
		m.next, m.full = 0, true
	}
}

// Recent returns up to count entries, oldest first. A count <= 0 returns
// everything held.
func (m *Memory) Recent(count int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []Entry
	if m.full {
		all = append(all, m.entries[m.next:]...)
	}
	all = append(all, m.entries[:m.next]...)
	if count > 0 && count < len(all) {
		all = all[len(all)-count:]
	}
	return all
}

// Search returns the entries whose message, attribute keys or attribute
// values contain query, ignoring case.
func (m *Memory) Search(query string) []Entry {
	query = strings.ToLower(query)
	var matches []Entry
	for _, e := range m.Recent(0) {
		if entryMatches(e, query) {
			matches = append(matches, e)
		}
	}
	return matches
}

func entryMatches(e Entry, query string) bool {
	if strings.Contains(strings.ToLower(e.Message), query) {
		return true
	}
	for k, v := range e.Attrs {
		if strings.Contains(strings.ToLower(k), query) || strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}

// Clear drops every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
	m.next, m.full = 0, false
}

// Handler returns a slog.Handler recording into m everything at or above
// level, and passing every record on to next when next is non-nil.
func (m *Memory) Handler(level slog.Leveler, next slog.Handler) slog.Handler {
	return &memoryHandler{mem: m, level: level, next: next}
}

type memoryHandler struct {
	mem    *Memory
	level  slog.Leveler
	next   slog.Handler
	attrs  []slog.Attr
	prefix string
}

func (h *memoryHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if level >= h.level.Level() {
		return true
	}
	return h.next != nil && h.next.Enabled(ctx, level)
}

func (h *memoryHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level.Level() {
		attrs := make(map[string]string, len(h.attrs)+r.NumAttrs())
		for _, a := range h.attrs {
			attrs[a.Key] = a.Value.String()
		}
		r.Attrs(func(a slog.Attr) bool {
			attrs[h.prefix+a.Key] = a.Value.String()
			return true
		})
		h.mem.add(Entry{Time: r.Time, Level: r.Level, Message: r.Message, Attrs: attrs})
	}
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *memoryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		c.attrs = append(c.attrs, a)
	}
	if h.next != nil {
		c.next = h.next.WithAttrs(attrs)
	}
	return &c
}

func (h *memoryHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	if h.next != nil {
		c.next = h.next.WithGroup(name)
	}
	return &c
}
