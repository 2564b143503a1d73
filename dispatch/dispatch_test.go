package dispatch_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/moodlemcp/callctx"
	"github.com/effective-security/moodlemcp/dispatch"
	"github.com/effective-security/moodlemcp/mocks/mockmoodle"
	"github.com/effective-security/moodlemcp/moodle"
	"github.com/effective-security/moodlemcp/toolerr"
	"github.com/effective-security/moodlemcp/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/mock/gomock"
)

const token = "secret-token"

type recorder struct {
	lock   sync.Mutex
	events []string
	inputs []string
}

func (r *recorder) add(event, input string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, event)
	r.inputs = append(r.inputs, input)
}

func (r *recorder) OnToolStart(_ context.Context, tool, input string) {
	r.add("start:"+tool, input)
}

func (r *recorder) OnToolEnd(_ context.Context, tool, input, _ string) {
	r.add("end:"+tool, input)
}

func (r *recorder) OnToolError(_ context.Context, tool, input string, _ error) {
	r.add("error:"+tool, input)
}

func (r *recorder) OnToolNotFound(_ context.Context, tool string) {
	r.add("not_found:"+tool, "")
}

type fixture struct {
	api     *mockmoodle.MockAPI
	d       *dispatch.Dispatcher
	cb      *recorder
	clients atomic.Int32
	tokens  sync.Map
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		api: mockmoodle.NewMockAPI(ctrl),
		cb:  &recorder{},
	}
	f.api.EXPECT().SiteURL().Return("https://moodle.example.org").AnyTimes()

	d, err := dispatch.New(func(tk string) moodle.API {
		f.clients.Add(1)
		f.tokens.Store(tk, true)
		return f.api
	}, dispatch.WithCallback(f.cb))
	require.NoError(t, err)
	f.d = d
	return f
}

func requireKind(t *testing.T, err error, kind toolerr.Kind) *toolerr.Error {
	t.Helper()
	require.Error(t, err)
	te, ok := err.(*toolerr.Error)
	require.True(t, ok, "expected *toolerr.Error, got %T", err)
	assert.Equal(t, kind, te.Kind, te.Error())
	return te
}

func TestNew(t *testing.T) {
	_, err := dispatch.New(nil)
	require.Error(t, err)
	assert.Equal(t, "client factory is required", err.Error())

	f := newFixture(t)
	assert.Same(t, tools.Default(), f.d.Registry())
}

func TestDispatch_UnknownTool(t *testing.T) {
	f := newFixture(t)

	_, err := f.d.Dispatch(context.Background(), "get_grades", map[string]any{"moodle_token": token})
	te := requireKind(t, err, toolerr.KindMethodNotFound)
	assert.Equal(t, mcp.METHOD_NOT_FOUND, te.Code())
	assert.Equal(t, `method not found: tool "get_grades" is not registered`, te.Error())
	assert.Equal(t, []string{"not_found:get_grades"}, f.cb.events)
	assert.Zero(t, f.clients.Load())
}

func TestDispatch_ValidationTotality(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// no upstream expectations are set, any client call fails the test
	tcases := map[string][]map[string]any{
		tools.GetCourses: {
			{},
			{"course_name_filter": "bio"},
			{"moodle_token": ""},
		},
		tools.GetCourseContents: {
			{"course_id": 6},
			{"moodle_token": token},
			{"moodle_token": token, "course_id": -1},
		},
		tools.GetCourseActivities: {
			{"course_id": 6},
			{"moodle_token": token},
		},
		tools.GetPageModuleContent: {
			{"page_content_url": "https://moodle.example.org/mod/page/view.php?id=1"},
			{"moodle_token": token},
		},
		tools.GetResourceFileContent: {
			{"moodle_token": token, "mimetype": "text/plain"},
			{"moodle_token": token, "resource_file_url": "https://moodle.example.org/f.txt"},
		},
		tools.GetActivityDetails: {
			{"activity_id": 5},
			{"moodle_token": token},
			{"moodle_token": token, "activity_id": 5, "course_id": 6, "activity_name": "Quiz"},
		},
		tools.FetchActivityContent: {
			{"moodle_token": token, "course_id": 6},
			{"moodle_token": token, "activity_name": "Quiz"},
			{"moodle_token": token, "activity_id": 5, "activity_name": "Quiz"},
		},
	}

	for tool, list := range tcases {
		for i, args := range list {
			_, err := f.d.Dispatch(ctx, tool, args)
			te := requireKind(t, err, toolerr.KindInvalidParams)
			assert.Equal(t, mcp.INVALID_PARAMS, te.Code(), "%s[%d]", tool, i)
		}
	}
	assert.Zero(t, f.clients.Load())
}

func TestDispatch_GetCourses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var courses []*moodle.Course
	for i := 0; i < 40; i++ {
		courses = append(courses, &moodle.Course{
			ID:        int64(i + 1),
			FullName:  gofakeit.Company(),
			ShortName: fmt.Sprintf("%s-%d", gofakeit.LetterN(3), gofakeit.Number(1, 99)),
		})
	}
	courses = append(courses,
		&moodle.Course{ID: 100, FullName: "Biology 6", ShortName: "BIO"},
		&moodle.Course{ID: 101, FullName: "Zyxwvut Studies", ShortName: "ZYX-6A"},
		&moodle.Course{ID: 102, FullName: "Physics", ShortName: "PHY"},
	)
	f.api.EXPECT().ListCourses(gomock.Any()).Return(courses, nil).Times(4)

	var exp []int64
	for _, c := range courses {
		if strings.Contains(strings.ToLower(c.FullName), "6") || strings.Contains(strings.ToLower(c.ShortName), "6") {
			exp = append(exp, c.ID)
		}
	}

	res, err := f.d.Dispatch(ctx, tools.GetCourses, map[string]any{
		"moodle_token":       token,
		"course_name_filter": "6",
	})
	require.NoError(t, err)
	var got []int64
	for _, id := range gjson.Get(res.Text, "#.id").Array() {
		got = append(got, id.Int())
	}
	assert.Equal(t, exp, got)
	assert.Contains(t, got, int64(100))
	assert.Contains(t, got, int64(101))
	assert.NotContains(t, got, int64(102))

	res, err = f.d.Dispatch(ctx, tools.GetCourses, map[string]any{
		"moodle_token":       token,
		"course_name_filter": " zyxw ",
	})
	require.NoError(t, err)
	assert.Equal(t, `[101]`, gjson.Get(res.Text, "#.id").Raw)

	// idempotent without filter
	first, err := f.d.Dispatch(ctx, tools.GetCourses, map[string]any{"moodle_token": token})
	require.NoError(t, err)
	second, err := f.d.Dispatch(ctx, tools.GetCourses, map[string]any{"moodle_token": token})
	require.NoError(t, err)
	assert.Equal(t, first.Text, second.Text)
	assert.Len(t, first.Data, len(courses))

	assert.EqualValues(t, 4, f.clients.Load())
	_, ok := f.tokens.Load(token)
	assert.True(t, ok)
}

func TestFilterCourses(t *testing.T) {
	assert.Equal(t, []*moodle.Course{}, dispatch.FilterCourses(nil, "x"))
	list := []*moodle.Course{{ID: 1, FullName: "Go"}, nil, {ID: 2, ShortName: "go-2"}}
	assert.Len(t, dispatch.FilterCourses(list, ""), 2)
	assert.Len(t, dispatch.FilterCourses(list, "GO"), 2)
	assert.Len(t, dispatch.FilterCourses(list, "2"), 1)
}

func TestDispatch_CourseActivities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.api.EXPECT().ListCourseContents(gomock.Any(), int64(6)).Return([]*moodle.Section{
		{
			ID:   1,
			Name: "Week 1",
			Modules: []*moodle.CourseModule{
				{ID: 101, ModName: "assign", Name: "Activity 1"},
				{
					ID:      102,
					ModName: "quiz",
					Name:    "Activity 2",
					URL:     "https://moodle.example.org/mod/quiz/view.php?id=102",
					Contents: []*moodle.ModuleContent{
						{Type: "file", FileName: "q.pdf", FileURL: "https://moodle.example.org/q.pdf", TimeModified: 1700000000},
					},
				},
			},
		},
	}, nil)

	res, err := f.d.Dispatch(ctx, tools.GetCourseActivities, map[string]any{
		"moodle_token": token,
		"course_id":    float64(6),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id":101,"name":"Activity 1","modname":"assign","url":null,"fileurl":null,"timemodified":0},
		{"id":102,"name":"Activity 2","modname":"quiz","url":"https://moodle.example.org/mod/quiz/view.php?id=102","fileurl":"https://moodle.example.org/q.pdf","timemodified":1700000000}
	]`, res.Text)

	list, ok := res.Data.([]tools.ActivitySummary)
	require.True(t, ok)
	assert.Nil(t, list[0].URL)
}

func TestDispatch_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	args := map[string]any{"moodle_token": token, "course_id": 6}

	f.api.EXPECT().ListCourseContents(gomock.Any(), int64(6)).
		Return(nil, toolerr.UpstreamFault("invalidrecord", "Can't find data record in database table course."))
	_, err := f.d.Dispatch(ctx, tools.GetCourseActivities, args)
	te := requireKind(t, err, toolerr.KindUpstreamFault)
	assert.Equal(t, toolerr.CodeUpstreamFault, te.Code())
	assert.Equal(t, "invalidrecord", te.UpstreamCode)

	f.api.EXPECT().ListCourseContents(gomock.Any(), int64(6)).
		Return(nil, toolerr.UpstreamShape("Moodle function %s returned non-array response", moodle.FnGetContents))
	_, err = f.d.Dispatch(ctx, tools.GetCourseContents, args)
	requireKind(t, err, toolerr.KindUpstreamShape)

	f.api.EXPECT().ListCourses(gomock.Any()).Return(nil, errors.New("boom"))
	_, err = f.d.Dispatch(ctx, tools.GetCourses, map[string]any{"moodle_token": token})
	te = requireKind(t, err, toolerr.KindInternal)
	assert.Equal(t, "error executing tool 'get_courses': boom", te.Error())
	assert.Equal(t, mcp.INTERNAL_ERROR, te.Code())

	f.api.EXPECT().ListCourses(gomock.Any()).DoAndReturn(func(context.Context) ([]*moodle.Course, error) {
		panic("unexpected")
	})
	_, err = f.d.Dispatch(ctx, tools.GetCourses, map[string]any{"moodle_token": token})
	te = requireKind(t, err, toolerr.KindInternal)
	assert.Contains(t, te.Error(), "panic: unexpected")

	f.api.EXPECT().GetCourseModule(gomock.Any(), int64(404)).
		Return(nil, toolerr.NotFound("activity with id %d not found", 404))
	_, err = f.d.Dispatch(ctx, tools.FetchActivityContent, map[string]any{"moodle_token": token, "activity_id": 404})
	te = requireKind(t, err, toolerr.KindNotFound)
	assert.Equal(t, toolerr.CodeNotFound, te.Code())
}

func TestDispatch_TextResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.api.EXPECT().FetchPageText(gomock.Any(), "https://moodle.example.org/mod/page/view.php?id=1").
		Return("Welcome to the course", nil)
	res, err := f.d.Dispatch(ctx, tools.GetPageModuleContent, map[string]any{
		"moodle_token":     token,
		"page_content_url": "https://moodle.example.org/mod/page/view.php?id=1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to the course", res.Text)
	assert.Nil(t, res.Data)

	f.api.EXPECT().FetchResourceText(gomock.Any(), "https://moodle.example.org/f.pdf", "application/pdf").
		Return(moodle.PlaceholderPDF, nil)
	res, err = f.d.Dispatch(ctx, tools.GetResourceFileContent, map[string]any{
		"moodle_token":      token,
		"resource_file_url": "https://moodle.example.org/f.pdf",
		"mimetype":          "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, moodle.PlaceholderPDF, res.Text)
}

func TestDispatch_Activities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sections := []*moodle.Section{
		{ID: 1, Modules: []*moodle.CourseModule{
			{ID: 101, ModName: "assign", Name: "Activity 1", Instance: 1},
			{ID: 102, ModName: "quiz", Name: "Activity 2", Instance: 2},
		}},
	}
	f.api.EXPECT().ListCourseContents(gomock.Any(), int64(6)).Return(sections, nil).Times(2)

	// tie-break: the first module in section order
	res, err := f.d.Dispatch(ctx, tools.GetActivityDetails, map[string]any{
		"moodle_token":  token,
		"course_id":     6,
		"activity_name": "activity",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(101), gjson.Get(res.Text, "id").Int())
	assert.Equal(t, "assign", gjson.Get(res.Text, "modname").String())

	// unsupported module type still has the uniform shape
	res, err = f.d.Dispatch(ctx, tools.FetchActivityContent, map[string]any{
		"moodle_token":  token,
		"course_id":     6,
		"activity_name": "Activity 2",
	})
	require.NoError(t, err)
	assert.Equal(t, "Activity 2", gjson.Get(res.Text, "activityName").String())
	assert.Equal(t, "quiz", gjson.Get(res.Text, "activityType").String())
	assert.Equal(t, "https://moodle.example.org/mod/quiz/view.php?id=102", gjson.Get(res.Text, "activityUrl").String())
	assert.Equal(t, "empty", gjson.Get(res.Text, "contentType").String())
	assert.NotEmpty(t, gjson.Get(res.Text, "content").String())
	assert.True(t, gjson.Get(res.Text, "files").IsArray())
	assert.Equal(t, `[]`, gjson.Get(res.Text, "files").Raw)
}

func TestDispatch_Callback(t *testing.T) {
	f := newFixture(t)
	ctx := callctx.WithCallContext(context.Background(), callctx.New("call-1", tools.GetCourses))

	f.api.EXPECT().ListCourses(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]*moodle.Course, error) {
		assert.Equal(t, "call-1", callctx.GetCallID(ctx))
		return []*moodle.Course{}, nil
	})
	res, err := f.d.Dispatch(ctx, tools.GetCourses, map[string]any{
		"moodle_token":       token,
		"course_name_filter": "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "[]", res.Text)

	_, err = f.d.Dispatch(ctx, tools.GetCourses, map[string]any{"moodle_token": 1})
	require.Error(t, err)

	assert.Equal(t, []string{
		"start:get_courses", "end:get_courses",
		"start:get_courses", "error:get_courses",
	}, f.cb.events)
	for _, in := range f.cb.inputs {
		assert.NotContains(t, in, token)
		assert.NotContains(t, in, "moodle_token")
	}
	assert.JSONEq(t, `{"course_name_filter":"x"}`, f.cb.inputs[0])
}

func TestRedactArgs(t *testing.T) {
	assert.Equal(t, `{}`, dispatch.RedactArgs(nil))
	assert.JSONEq(t, `{"course_id":6}`, dispatch.RedactArgs(map[string]any{"moodle_token": token, "course_id": 6}))
	assert.Equal(t, `{}`, dispatch.RedactArgs(map[string]any{"bad": func() {}}))
}

func TestDispatch_Concurrent(t *testing.T) {
	f := newFixture(t)
	f.api.EXPECT().ListCourses(gomock.Any()).Return([]*moodle.Course{{ID: 1, FullName: "Go"}}, nil).Times(16)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.d.Dispatch(context.Background(), tools.GetCourses, map[string]any{
				"moodle_token": fmt.Sprintf("token-%d", i),
			})
			assert.NoError(t, err)
			assert.Equal(t, int64(1), gjson.Get(res.Text, "0.id").Int())
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 16, f.clients.Load())
}
