package callbacks

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/effective-security/moodlemcp/callctx"
)

var TimeNowFn = time.Now

// RunStats are counters of tool calls within a run
type RunStats struct {
	RunID string

	Duration            time.Duration
	ToolsCalls          uint32
	ToolsCallsSucceeded uint32
	ToolsCallsFailed    uint32
	ToolNotFound        uint32
	BytesIn             uint64
	BytesOut            uint64
}

func (s RunStats) String() string {
	return fmt.Sprintf("Tool calls: %d, Succeeded: %d, Failed: %d, Not Found: %d, Bytes In: %d, Bytes Out: %d, Duration: %s",
		s.ToolsCalls,
		s.ToolsCallsSucceeded,
		s.ToolsCallsFailed,
		s.ToolNotFound,
		s.BytesIn,
		s.BytesOut,
		s.Duration,
	)
}

// Scratchpad records a transcript and stats of tool calls of one run,
// for example a server session or a single CLI call.
type Scratchpad struct {
	mode    Mode
	started time.Time
	stats   RunStats

	w    bytes.Buffer
	lock sync.Mutex
}

func NewScratchpad(mode Mode) *Scratchpad {
	l := &Scratchpad{
		mode:    mode,
		started: TimeNowFn(),
		stats: RunStats{
			RunID: callctx.NewCallID(),
		},
	}
	l.print("", "*** Run Started ***")
	return l
}

// EndRun returns the stats and the transcript of the run
func (l *Scratchpad) EndRun() (*RunStats, []byte) {
	stats := l.Stats()
	l.print("", stats.String())
	l.print("", "*** Run Ended ***")

	l.lock.Lock()
	defer l.lock.Unlock()
	return &stats, bytes.Clone(l.w.Bytes())
}

// Stats returns a snapshot of the stats
func (l *Scratchpad) Stats() RunStats {
	return RunStats{
		RunID:               l.stats.RunID,
		Duration:            TimeNowFn().Sub(l.started),
		ToolsCalls:          atomic.LoadUint32(&l.stats.ToolsCalls),
		ToolsCallsSucceeded: atomic.LoadUint32(&l.stats.ToolsCallsSucceeded),
		ToolsCallsFailed:    atomic.LoadUint32(&l.stats.ToolsCallsFailed),
		ToolNotFound:        atomic.LoadUint32(&l.stats.ToolNotFound),
		BytesIn:             atomic.LoadUint64(&l.stats.BytesIn),
		BytesOut:            atomic.LoadUint64(&l.stats.BytesOut),
	}
}

func (l *Scratchpad) OnToolStart(ctx context.Context, tool, input string) {
	atomic.AddUint32(&l.stats.ToolsCalls, 1)
	atomic.AddUint64(&l.stats.BytesIn, uint64(len(input)))
	l.print(callctx.GetCallID(ctx), tool, "*** Tool Start ***")
	l.print(callctx.GetCallID(ctx), tool, "Input:", input)
}

func (l *Scratchpad) OnToolEnd(ctx context.Context, tool, input, output string) {
	atomic.AddUint32(&l.stats.ToolsCallsSucceeded, 1)
	atomic.AddUint64(&l.stats.BytesOut, uint64(len(output)))
	if l.mode == ModeVerbose {
		l.print(callctx.GetCallID(ctx), tool, "Output:", output)
	}
	l.print(callctx.GetCallID(ctx), tool, "*** Tool End ***")
}

func (l *Scratchpad) OnToolError(ctx context.Context, tool, input string, err error) {
	atomic.AddUint32(&l.stats.ToolsCallsFailed, 1)
	l.print(callctx.GetCallID(ctx), tool, "*** Tool Error ***", err.Error())
}

func (l *Scratchpad) OnToolNotFound(ctx context.Context, tool string) {
	atomic.AddUint32(&l.stats.ToolNotFound, 1)
	l.print(callctx.GetCallID(ctx), "*** Tool Not Found ***", tool)
}

// print writes the entries to the transcript.
// The entries are written in the following format:
// [timestamp runID.callID] entry entry\n
func (l *Scratchpad) print(callID string, entries ...string) {
	l.lock.Lock()
	defer l.lock.Unlock()

	ts := TimeNowFn().Format("2006-01-02 15:04:05")

	_, _ = l.w.WriteString(ts)
	_, _ = l.w.WriteString(" ")
	_, _ = l.w.WriteString(l.stats.RunID)
	if callID != "" {
		_, _ = l.w.WriteString(".")
		_, _ = l.w.WriteString(callID)
	}
	_, _ = l.w.WriteString(" ")
	_, _ = l.w.WriteString(strings.Join(entries, " "))
	_, _ = l.w.WriteString("\n")
}
