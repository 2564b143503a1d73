package tools

import "strings"

// Auth carries the caller's Moodle token, required by every tool
type Auth struct {
	MoodleToken string `json:"moodle_token" yaml:"moodle_token" fake:"{lettern:32}" jsonschema:"title=Moodle Token,description=Moodle web service token of the caller,minLength=1"`
}

// GetCoursesParams are parameters of get_courses
type GetCoursesParams struct {
	CourseNameFilter string `json:"course_name_filter,omitempty" yaml:"course_name_filter,omitempty" fake:"{word}" jsonschema:"title=Course Name Filter,description=Case-insensitive substring matched against the course full name and short name,oneof_type=string;null"`
}

// CourseParams are parameters of tools scoped to one course
type CourseParams struct {
	CourseID int64 `json:"course_id" yaml:"course_id" validate:"gt=0" fake:"{number:2,500}" jsonschema:"title=Course ID,description=Moodle course id,minimum=1"`
}

// PageParams are parameters of get_page_module_content
type PageParams struct {
	PageContentURL string `json:"page_content_url" yaml:"page_content_url" fake:"{url}" validate:"required,url" jsonschema:"title=Page Content URL,description=URL of the page or its HTML content file,minLength=1"`
}

// ResourceParams are parameters of get_resource_file_content
type ResourceParams struct {
	ResourceFileURL string `json:"resource_file_url" yaml:"resource_file_url" fake:"{url}" validate:"required,url" jsonschema:"title=Resource File URL,description=URL of the resource file,minLength=1"`
	MimeType        string `json:"mimetype" yaml:"mimetype" fake:"text/plain" validate:"notblank" jsonschema:"title=MIME Type,description=MIME type of the resource file,minLength=1"`
}

// ActivityReference identifies an activity either by its course module id,
// or by the course id and a case-insensitive substring of the activity name.
type ActivityReference struct {
	ActivityID   int64  `json:"activity_id,omitempty" yaml:"activity_id,omitempty" fake:"{number:2,5000}" validate:"omitempty,gt=0" jsonschema:"title=Activity ID,description=Course module id (cmid) of the activity,oneof_required=by_id,minimum=1"`
	CourseID     int64  `json:"course_id,omitempty" yaml:"course_id,omitempty" fake:"skip" validate:"omitempty,gt=0" jsonschema:"title=Course ID,description=Moodle course id to search the activity in,oneof_required=by_name,minimum=1"`
	ActivityName string `json:"activity_name,omitempty" yaml:"activity_name,omitempty" fake:"skip" validate:"omitempty,notblank" jsonschema:"title=Activity Name,description=Case-insensitive substring of the activity name,oneof_required=by_name,minLength=1"`
}

// ByID returns true when the reference names the course module id
func (r *ActivityReference) ByID() bool {
	return r.ActivityID > 0
}

// Inputs advertised to the client: token plus domain parameters

type GetCoursesInput struct {
	Auth
	GetCoursesParams
}

type CourseInput struct {
	Auth
	CourseParams
}

type PageInput struct {
	Auth
	PageParams
}

type ResourceInput struct {
	Auth
	ResourceParams
}

type ActivityInput struct {
	Auth
	ActivityReference
}

// Normalize trims the filter
func (p *GetCoursesParams) Normalize() {
	p.CourseNameFilter = strings.TrimSpace(p.CourseNameFilter)
}

// Normalize trims the URL
func (p *PageParams) Normalize() {
	p.PageContentURL = strings.TrimSpace(p.PageContentURL)
}

// Normalize trims the URL and mimetype
func (p *ResourceParams) Normalize() {
	p.ResourceFileURL = strings.TrimSpace(p.ResourceFileURL)
	p.MimeType = strings.TrimSpace(p.MimeType)
}

// Normalize trims the activity name
func (r *ActivityReference) Normalize() {
	r.ActivityName = strings.TrimSpace(r.ActivityName)
}
