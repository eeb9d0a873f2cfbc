package goroutineid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		name  string
		stack string
		want  uint64
	}{
		{"running", "goroutine 123 [running]:\nmain.main()", 123},
		{"single digit", "goroutine 1 [running]:", 1},
		{"no prefix", "something else\n", 0},
		{"truncated", "goroutine 123", 0},
		{"garbage id", "goroutine 12a [running]:", 0},
		{"empty", "", 0},
		{"overflow", "goroutine 99999999999999999999999 [running]:", 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parse([]byte(tc.stack)))
		})
	}
}

func TestCurrent(t *testing.T) {
	id := Current()
	require.NotZero(t, id)
	require.Equal(t, id, Current())

	var (
		wg    sync.WaitGroup
		other uint64
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		other = Current()
	}()
	wg.Wait()
	require.NotZero(t, other)
	require.NotEqual(t, id, other)
}

func TestParseDoesNotAllocate(t *testing.T) {
	stack := []byte("goroutine 4242 [running]:\n")
	allocs := testing.AllocsPerRun(100, func() {
		_ = parse(stack)
	})
	require.Zero(t, allocs)
}
