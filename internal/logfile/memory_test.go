package logfile

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messages(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Message)
	}
	return out
}

func TestMemory_Ring(t *testing.T) {
	mem := NewMemory(3)
	logger := slog.New(mem.Handler(slog.LevelInfo, nil))
	for i := range 5 {
		logger.Info(fmt.Sprintf("m%d", i))
	}
	logger.Debug("below level")

	assert.Equal(t, []string{"m2", "m3", "m4"}, messages(mem.Recent(0)))
	assert.Equal(t, []string{"m3", "m4"}, messages(mem.Recent(2)))
	assert.Equal(t, []string{"m2", "m3", "m4"}, messages(mem.Recent(10)))

	mem.Clear()
	assert.Empty(t, mem.Recent(0))
	logger.Info("again")
	assert.Equal(t, []string{"again"}, messages(mem.Recent(0)))
}

func TestMemory_Search(t *testing.T) {
	mem := NewMemory(0)
	logger := slog.New(mem.Handler(slog.LevelDebug, nil))
	logger.Info("script error", "file", "Boot.js")
	logger.Debug("created snapshot", "bytes", 12)
	logger.Warn("config", "issue", "unknown option")

	assert.Equal(t, []string{"script error"}, messages(mem.Search("boot")))
	assert.Equal(t, []string{"created snapshot"}, messages(mem.Search("BYTES")))
	assert.Equal(t, []string{"config"}, messages(mem.Search("unknown")))
	assert.Empty(t, mem.Search("nothing"))
}

func TestMemory_AttrsAndGroups(t *testing.T) {
	mem := NewMemory(10)
	logger := slog.New(mem.Handler(slog.LevelInfo, nil)).With("ctx", 1).WithGroup("g").With("a", "x")
	logger.Info("hello", "b", true)

	entries := mem.Recent(0)
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]string{"ctx": "1", "g.a": "x", "g.b": "true"}, entries[0].Attrs)
	line := entries[0].String()
	assert.True(t, strings.HasSuffix(line, "INFO hello ctx=1 g.a=x g.b=true"), line)
}

func TestMemory_Forwards(t *testing.T) {
	var buf bytes.Buffer
	mem := NewMemory(10)
	logger := NewLogger(&buf, slog.LevelInfo, mem)
	logger.Debug("dropped")
	logger.With("k", "v").Info("kept")

	assert.Equal(t, []string{"kept"}, messages(mem.Recent(0)))
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
	assert.NotContains(t, buf.String(), "dropped")
}
