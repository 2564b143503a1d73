package callbacks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/effective-security/moodlemcp/callctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScratchpad_Run(t *testing.T) {
	sp := NewScratchpad(ModeVerbose)
	ctx := callctx.WithCallContext(context.Background(), callctx.New("42", "get_courses"))

	sp.OnToolStart(ctx, "get_courses", `{"course_name_filter":"x"}`)
	sp.OnToolEnd(ctx, "get_courses", `{"course_name_filter":"x"}`, "[]")
	sp.OnToolStart(ctx, "get_course_contents", `{}`)
	sp.OnToolError(ctx, "get_course_contents", `{}`, errors.New("invalid parameters: course_id: is required"))
	sp.OnToolNotFound(context.Background(), "get_grades")

	stats, buf := sp.EndRun()
	require.NotNil(t, stats)
	assert.Equal(t, uint32(2), stats.ToolsCalls)
	assert.Equal(t, uint32(1), stats.ToolsCallsSucceeded)
	assert.Equal(t, uint32(1), stats.ToolsCallsFailed)
	assert.Equal(t, uint32(1), stats.ToolNotFound)
	assert.Equal(t, uint64(len(`{"course_name_filter":"x"}`)+2), stats.BytesIn)
	assert.Equal(t, uint64(2), stats.BytesOut)
	assert.NotEmpty(t, stats.RunID)

	out := string(buf)
	assert.Contains(t, out, "*** Run Started ***")
	assert.Contains(t, out, "*** Run Ended ***")
	assert.Contains(t, out, stats.RunID+".42 get_courses *** Tool Start ***")
	assert.Contains(t, out, "get_courses Output: []")
	assert.Contains(t, out, "*** Tool Error *** invalid parameters: course_id: is required")
	assert.Contains(t, out, stats.RunID+" *** Tool Not Found *** get_grades")
	assert.Contains(t, out, "Tool calls: 2, Succeeded: 1, Failed: 1, Not Found: 1")
}

func TestScratchpad_Print(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC)
	orig := TimeNowFn
	TimeNowFn = func() time.Time { return now }
	defer func() { TimeNowFn = orig }()

	sp := NewScratchpad(ModeDefault)
	sp.OnToolEnd(context.Background(), "get_courses", "{}", "secret output")

	_, buf := sp.EndRun()
	lines := strings.Split(strings.TrimSpace(string(buf)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "2025-03-01 10:20:30 "+sp.stats.RunID+" *** Run Started ***", lines[0])
	assert.Equal(t, "2025-03-01 10:20:30 "+sp.stats.RunID+" get_courses *** Tool End ***", lines[1])
	assert.NotContains(t, string(buf), "secret output")
	assert.Contains(t, lines[2], "Duration: 0s")
}

func TestScratchpad_Concurrent(t *testing.T) {
	t.Parallel()
	sp := NewScratchpad(ModeDefault)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := callctx.WithCallContext(context.Background(), callctx.New("", "get_courses"))
			sp.OnToolStart(ctx, "get_courses", "{}")
			sp.OnToolEnd(ctx, "get_courses", "{}", "[]")
		}()
	}
	wg.Wait()

	stats := sp.Stats()
	assert.Equal(t, uint32(10), stats.ToolsCalls)
	assert.Equal(t, uint32(10), stats.ToolsCallsSucceeded)
}
