package tools

import (
	"encoding/json"
	"reflect"
	"sync"

	"github.com/effective-security/moodlemcp/moodle"
	"github.com/effective-security/moodlemcp/schema"
	"github.com/invopop/jsonschema"
)

// Tool names
const (
	GetCourses             = "get_courses"
	GetCourseContents      = "get_course_contents"
	GetCourseActivities    = "get_course_activities"
	GetPageModuleContent   = "get_page_module_content"
	GetResourceFileContent = "get_resource_file_content"
	GetActivityDetails     = "get_activity_details"
	FetchActivityContent   = "fetch_activity_content"
)

// TokenField is the name of the argument carrying the caller's token
const TokenField = "moodle_token"

// Definition describes a tool with its input and output contracts
type Definition struct {
	Name         string          `json:"name" yaml:"name"`
	Description  string          `json:"description" yaml:"description"`
	InputSchema  json.RawMessage `json:"inputSchema" yaml:"-"`
	OutputSchema json.RawMessage `json:"outputSchema,omitempty" yaml:"-"`

	// InputType is the type of the advertised input, with the token
	InputType reflect.Type `json:"-" yaml:"-"`
	// ParamsType is the type of domain parameters, without the token
	ParamsType reflect.Type `json:"-" yaml:"-"`
	// ActivityReference is set for tools taking the activity union
	ActivityReference bool `json:"-" yaml:"-"`

	input *schema.Schema
}

// NewParams returns a pointer to a new value of ParamsType
func (d *Definition) NewParams() any {
	return reflect.New(d.ParamsType).Interface()
}

// ParamNames returns names of domain parameters in declaration order
func (d *Definition) ParamNames() []string {
	var names []string
	for _, n := range d.input.PropertyNames() {
		if n != TokenField {
			names = append(names, n)
		}
	}
	return names
}

// Registry holds tool definitions, it is immutable after creation
type Registry struct {
	list   []*Definition
	byName map[string]*Definition
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// Default returns the registry of all tools
func Default() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry builds the registry of all tools
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*Definition),
	}
	r.add(GetCourses,
		"Lists the courses available to the user. Optionally filters by a case-insensitive substring of the course full name or short name.",
		GetCoursesInput{}, GetCoursesParams{}, arrayOf(moodle.Course{}), false)
	r.add(GetCourseContents,
		"Returns the sections of a course with their modules, as reported by Moodle.",
		CourseInput{}, CourseParams{}, arrayOf(moodle.Section{}), false)
	r.add(GetCourseActivities,
		"Lists all activities of a course in section order, with id, name, view URL, first file URL and modification time.",
		CourseInput{}, CourseParams{}, arrayOf(ActivitySummary{}), false)
	r.add(GetPageModuleContent,
		"Fetches a page by URL and returns the readable text of its main content.",
		PageInput{}, PageParams{}, stringSchema(), false)
	r.add(GetResourceFileContent,
		"Fetches a resource file by URL and returns its text. Formats without a text extractor return a placeholder.",
		ResourceInput{}, ResourceParams{}, stringSchema(), false)
	r.add(GetActivityDetails,
		"Returns the details of an activity, identified by activity_id or by course_id and activity_name.",
		ActivityInput{}, ActivityReference{}, objectOf(moodle.CourseModule{}), true)
	r.add(FetchActivityContent,
		"Resolves an activity, identified by activity_id or by course_id and activity_name, and returns its content as text with attached files.",
		ActivityInput{}, ActivityReference{}, objectOf(EnrichedActivityContent{}), true)
	return r
}

func (r *Registry) add(name, description string, input, params any, output *jsonschema.Schema, activityRef bool) {
	in := schema.MustNew(reflect.TypeOf(input))
	out, _ := json.Marshal(output)
	d := &Definition{
		Name:              name,
		Description:       description,
		InputSchema:       in.JSON(),
		OutputSchema:      out,
		InputType:         reflect.TypeOf(input),
		ParamsType:        reflect.TypeOf(params),
		ActivityReference: activityRef,
		input:             in,
	}
	r.list = append(r.list, d)
	r.byName[name] = d
}

// ListTools returns definitions in registration order
func (r *Registry) ListTools() []Definition {
	list := make([]Definition, len(r.list))
	for i, d := range r.list {
		list[i] = *d
	}
	return list
}

// Get returns the definition by exact name
func (r *Registry) Get(name string) (*Definition, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns tool names in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.list))
	for i, d := range r.list {
		names[i] = d.Name
	}
	return names
}

func objectOf(v any) *jsonschema.Schema {
	return schema.MustNew(reflect.TypeOf(v)).Parameters
}

func arrayOf(v any) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:  "array",
		Items: objectOf(v),
	}
}

func stringSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string"}
}
