package logfile

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestWriter_Rotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "jsrun.log")
	w, err := open(path, 10, 2)
	require.NoError(t, err)
	defer w.Close()

	for _, s := range []string{"aaaaaa\n", "bbbbbb\n", "cccccc\n", "dddddd\n"} {
		n, err := w.Write([]byte(s))
		require.NoError(t, err)
		require.Equal(t, len(s), n)
	}

	assert.Equal(t, "dddddd\n", readFile(t, path))
	assert.Equal(t, "cccccc\n", readFile(t, path+".1"))
	assert.Equal(t, "bbbbbb\n", readFile(t, path+".2"))
	assert.NoFileExists(t, path+".3")
}

func TestWriter_NoBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	w, err := open(path, 4, 0)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("one\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("two\n"))
	require.NoError(t, err)

	assert.Equal(t, "two\n", readFile(t, path))
	assert.NoFileExists(t, path+".1")
}

func TestWriter_OversizedWriteIsKeptWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	w, err := open(path, 4, 1)
	require.NoError(t, err)
	defer w.Close()

	big := strings.Repeat("z", 20)
	_, err = w.Write([]byte(big))
	require.NoError(t, err)
	assert.Equal(t, big, readFile(t, path))
}

func TestWriter_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	require.NoError(t, os.WriteFile(path, []byte("12345678"), 0o644))

	w, err := open(path, 10, 1)
	require.NoError(t, err)
	defer w.Close()
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)

	assert.Equal(t, "abc", readFile(t, path))
	assert.Equal(t, "12345678", readFile(t, path+".1"))
}

func TestWriter_RotateError(t *testing.T) {
	w, err := open(filepath.Join(t.TempDir(), "x.log"), 1, 1)
	require.NoError(t, err)
	defer w.Close()
	w.rotateFn = func() error { return errors.New("disk on fire") }

	_, err = w.Write([]byte("a"))
	require.NoError(t, err)
	_, err = w.Write([]byte("b"))
	assert.ErrorContains(t, err, "disk on fire")
}

func TestWriter_Closed(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "x.log"), 0, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(megabyte), w.limit)
	assert.Equal(t, 0, w.keep)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestWriter_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	w, err := open(path, 64, 50)
	require.NoError(t, err)
	defer w.Close()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				_, _ = w.Write([]byte("0123456789\n"))
			}
		}()
	}
	wg.Wait()

	total := 0
	for _, n := range append([]int{0}, w.backups()...) {
		name := path
		if n > 0 {
			name = w.backup(n)
		}
		total += strings.Count(readFile(t, name), "0123456789\n")
	}
	assert.Equal(t, 160, total)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug":  slog.LevelDebug,
		"INFO":   slog.LevelInfo,
		" warn ": slog.LevelWarn,
		"error":  slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn, nil)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":1`)

	NewLogger(nil, slog.LevelDebug, nil).Error("discarded")
}
