package tools

// ContentType classifies content of EnrichedActivityContent
type ContentType string

const (
	ContentText            ContentType = "text"
	ContentHTMLCleaned     ContentType = "html_cleaned"
	ContentFilePlaceholder ContentType = "file_placeholder"
	ContentURLDetails      ContentType = "url_details"
	ContentError           ContentType = "error"
	ContentEmpty           ContentType = "empty"
)

// FileRef is a file attached to an activity
type FileRef struct {
	FileName string `json:"filename" yaml:"filename" jsonschema:"title=File Name"`
	FileURL  string `json:"fileurl" yaml:"fileurl" jsonschema:"title=File URL"`
	MimeType string `json:"mimetype" yaml:"mimetype" jsonschema:"title=MIME Type"`
}

// EnrichedActivityContent is the uniform result of fetch_activity_content.
// Content is never empty, absence of content is a bracketed placeholder.
type EnrichedActivityContent struct {
	ActivityName string      `json:"activityName" yaml:"activityName" jsonschema:"title=Activity Name"`
	ActivityType string      `json:"activityType" yaml:"activityType" jsonschema:"title=Activity Type,description=Moodle module type (modname)"`
	ActivityURL  string      `json:"activityUrl" yaml:"activityUrl" jsonschema:"title=Activity URL"`
	ContentType  ContentType `json:"contentType" yaml:"contentType" jsonschema:"title=Content Type,enum=text,enum=html_cleaned,enum=file_placeholder,enum=url_details,enum=error,enum=empty"`
	Content      string      `json:"content" yaml:"content" jsonschema:"title=Content"`
	Files        []FileRef   `json:"files" yaml:"files" jsonschema:"title=Files"`
}

// ActivitySummary is an item of get_course_activities result
type ActivitySummary struct {
	ID           int64   `json:"id" yaml:"id" jsonschema:"title=Activity ID"`
	Name         string  `json:"name" yaml:"name" jsonschema:"title=Name"`
	ModName      string  `json:"modname,omitempty" yaml:"modname,omitempty" jsonschema:"title=Module Type"`
	URL          *string `json:"url" yaml:"url" jsonschema:"title=URL,oneof_type=string;null"`
	FileURL      *string `json:"fileurl" yaml:"fileurl" jsonschema:"title=File URL,oneof_type=string;null"`
	TimeModified int64   `json:"timemodified" yaml:"timemodified" jsonschema:"title=Time Modified,description=Unix time of the first content item or 0"`
}
