package observ

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeClock(step time.Duration) func() time.Time {
	cur := time.Unix(0, 0)
	return func() time.Time {
		cur = cur.Add(step)
		return cur
	}
}

func TestTimerPhases(t *testing.T) {
	tm := NewTimer()
	tm.now = fakeClock(10 * time.Millisecond)

	load := tm.Begin("load")
	tm.End(load, "5 lines")
	compile := tm.Begin("compile")
	tm.End(compile, "")
	tm.End(42, "ignored")

	phases := tm.Phases()
	require.Len(t, phases, 2)
	assert.Equal(t, "load", phases[0].Name)
	assert.Equal(t, 10*time.Millisecond, phases[0].Dur)
	assert.Equal(t, "5 lines", phases[0].Note)
	assert.Equal(t, 20*time.Millisecond, tm.Total())

	var out strings.Builder
	require.NoError(t, tm.WriteSummary(&out))
	assert.Contains(t, out.String(), "load")
	assert.Contains(t, out.String(), "// 5 lines")
	assert.Contains(t, out.String(), "20.00 ms")
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	idx := tm.Begin("x")
	tm.End(idx, "")
	assert.Equal(t, -1, idx)
	assert.Zero(t, tm.Total())
}
