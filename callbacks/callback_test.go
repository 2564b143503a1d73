package callbacks_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/effective-security/moodlemcp/callbacks"
	"github.com/effective-security/moodlemcp/callctx"
	"github.com/effective-security/xlog"
	"github.com/stretchr/testify/assert"
)

func TestCallback(t *testing.T) {
	var buf bytes.Buffer
	cb := callbacks.NewPrinter(&buf, callbacks.ModeVerbose)

	ctx := callctx.WithCallContext(context.Background(), callctx.New("1234", "get_courses"))
	cb.OnToolStart(ctx, "get_courses", `{"course_name_filter":"bio"}`)
	cb.OnToolEnd(ctx, "get_courses", `{"course_name_filter":"bio"}`, "[]")
	cb.OnToolError(ctx, "get_courses", "{}", errors.New("test error"))
	cb.OnToolNotFound(ctx, "get_grades")

	res := buf.String()
	assert.Contains(t, res, "Tool Start: get_courses [1234]")
	assert.Contains(t, res, `Input: {"course_name_filter":"bio"}`)
	assert.Contains(t, res, "Tool End: get_courses [1234]")
	assert.Contains(t, res, "Output: []")
	assert.Contains(t, res, "Tool Error: get_courses [1234]: test error")
	assert.Contains(t, res, "Tool Not Found: get_grades")

	buf.Reset()
	cb = callbacks.NewPrinter(&buf, callbacks.ModeDefault)
	cb.OnToolEnd(ctx, "get_courses", "{}", "[]")
	assert.NotContains(t, buf.String(), "Output:")
}

func TestFanout(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	fan := callbacks.NewFanout(callbacks.NewPrinter(&buf1, callbacks.ModeDefault))
	fan.Add(callbacks.NewPrinter(&buf2, callbacks.ModeDefault))
	fan.Add(callbacks.NewNoop())
	fan.Add(callbacks.NewPackageLogger(xlog.NewPackageLogger("github.com/effective-security/moodlemcp", "callbacks_test")))

	ctx := context.Background()
	fan.OnToolStart(ctx, "get_courses", "{}")
	fan.OnToolEnd(ctx, "get_courses", "{}", "[]")
	fan.OnToolError(ctx, "get_courses", "{}", errors.New("failed"))
	fan.OnToolNotFound(ctx, "get_grades")

	assert.Equal(t, buf1.String(), buf2.String())
	assert.Contains(t, buf1.String(), "Tool Start: get_courses []")
	assert.Contains(t, buf1.String(), "Tool Not Found: get_grades")
}

func TestPackageLogger_Metadata(t *testing.T) {
	var buf bytes.Buffer
	prev := xlog.GetFormatter()
	xlog.SetFormatter(xlog.NewStringFormatter(&buf))
	defer xlog.SetFormatter(prev)

	pl := xlog.NewPackageLogger("github.com/effective-security/moodlemcp", "callbacks_metadata")
	xlog.SetPackageLogLevel("github.com/effective-security/moodlemcp", "callbacks_metadata", xlog.DEBUG)

	cc := callctx.New("77", "fetch_activity_content")
	cc.SetMetadata(callctx.MetaActivityID, int64(101))
	cc.SetMetadata(callctx.MetaModName, "page")
	cc.SetMetadata(callctx.MetaContentType, "html_cleaned")
	ctx := callctx.WithCallContext(context.Background(), cc)

	callbacks.NewPackageLogger(pl).OnToolEnd(ctx, "fetch_activity_content", "{}", "{}")

	res := buf.String()
	assert.Contains(t, res, "event=")
	assert.Contains(t, res, "activity_id=101")
	assert.Contains(t, res, "modname=")
	assert.Contains(t, res, "page")
	assert.Contains(t, res, "content_type=")
	assert.Contains(t, res, "html_cleaned")
}
