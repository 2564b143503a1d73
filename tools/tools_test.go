package tools_test

import (
	"testing"

	"github.com/effective-security/moodlemcp/tools"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := tools.NewRegistry()
	exp := []string{
		tools.GetCourses,
		tools.GetCourseContents,
		tools.GetCourseActivities,
		tools.GetPageModuleContent,
		tools.GetResourceFileContent,
		tools.GetActivityDetails,
		tools.FetchActivityContent,
	}
	assert.Equal(t, exp, r.Names())

	list := r.ListTools()
	require.Len(t, list, len(exp))
	for i, d := range list {
		assert.Equal(t, exp[i], d.Name)
		assert.NotEmpty(t, d.Description)
		assert.NotEmpty(t, d.OutputSchema)

		js := string(d.InputSchema)
		assert.Equal(t, "object", gjson.Get(js, "type").String(), d.Name)
		assert.True(t, gjson.Get(js, `required.#(=="moodle_token")`).Exists(), d.Name)
		assert.Equal(t, int64(1), gjson.Get(js, "properties.moodle_token.minLength").Int(), d.Name)

		got, ok := r.Get(d.Name)
		require.True(t, ok)
		assert.Equal(t, d.Name, got.Name)
		assert.NotContains(t, got.ParamNames(), tools.TokenField)
	}

	// deterministic and free of side effects
	again := r.ListTools()
	if diff := cmp.Diff(list, again,
		cmpopts.IgnoreUnexported(tools.Definition{}),
		cmpopts.IgnoreFields(tools.Definition{}, "InputType", "ParamsType"),
	); diff != "" {
		t.Errorf("ListTools mismatch (-first +second):\n%s", diff)
	}
	list[0].Name = "changed"
	assert.Equal(t, tools.GetCourses, r.ListTools()[0].Name)

	_, ok := r.Get("GET_COURSES")
	assert.False(t, ok)
	_, ok = r.Get("unknown")
	assert.False(t, ok)

	assert.Same(t, tools.Default(), tools.Default())
}

func TestActivityReferenceSchema(t *testing.T) {
	t.Parallel()

	r := tools.Default()
	for _, name := range []string{tools.GetActivityDetails, tools.FetchActivityContent} {
		d, ok := r.Get(name)
		require.True(t, ok)
		assert.True(t, d.ActivityReference)
		assert.Equal(t, []string{"activity_id", "course_id", "activity_name"}, d.ParamNames())

		js := string(d.InputSchema)
		assert.Equal(t, `["moodle_token"]`, gjson.Get(js, "required").Raw)
		assert.Equal(t, `["activity_id"]`, gjson.Get(js, "oneOf.0.required").Raw)
		assert.Equal(t, `["course_id","activity_name"]`, gjson.Get(js, "oneOf.1.required").Raw)
		assert.Equal(t, int64(1), gjson.Get(js, "properties.activity_id.minimum").Int())

		p, ok := d.NewParams().(*tools.ActivityReference)
		require.True(t, ok)
		assert.False(t, p.ByID())
	}

	d, _ := r.Get(tools.GetCourses)
	assert.False(t, d.ActivityReference)
	assert.Equal(t, []string{"course_name_filter"}, d.ParamNames())
	js := string(d.InputSchema)
	assert.Equal(t, `["moodle_token"]`, gjson.Get(js, "required").Raw)
	assert.Equal(t, "null", gjson.Get(js, "properties.course_name_filter.oneOf.1.type").String())

	d, _ = r.Get(tools.GetResourceFileContent)
	assert.Equal(t, []string{"resource_file_url", "mimetype"}, d.ParamNames())
	_, ok := d.NewParams().(*tools.ResourceParams)
	assert.True(t, ok)
}

func TestOutputSchema(t *testing.T) {
	t.Parallel()

	r := tools.Default()

	d, _ := r.Get(tools.GetCourseActivities)
	js := string(d.OutputSchema)
	assert.Equal(t, "array", gjson.Get(js, "type").String())
	assert.Equal(t, "null", gjson.Get(js, "items.properties.url.oneOf.1.type").String())
	assert.Equal(t, "integer", gjson.Get(js, "items.properties.timemodified.type").String())

	d, _ = r.Get(tools.FetchActivityContent)
	js = string(d.OutputSchema)
	assert.Equal(t, "object", gjson.Get(js, "type").String())
	assert.Equal(t, "array", gjson.Get(js, "properties.files.type").String())
	assert.Equal(t, int64(6), gjson.Get(js, "properties.contentType.enum.#").Int())

	d, _ = r.Get(tools.GetPageModuleContent)
	assert.JSONEq(t, `{"type":"string"}`, string(d.OutputSchema))
}
