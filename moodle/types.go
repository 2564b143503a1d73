package moodle

// Course is a course returned by core_course_get_courses
type Course struct {
	ID           int64  `json:"id" yaml:"id"`
	ShortName    string `json:"shortname" yaml:"shortname"`
	FullName     string `json:"fullname" yaml:"fullname"`
	DisplayName  string `json:"displayname,omitempty" yaml:"displayname,omitempty"`
	CategoryID   int64  `json:"categoryid,omitempty" yaml:"categoryid,omitempty"`
	Summary      string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Format       string `json:"format,omitempty" yaml:"format,omitempty"`
	StartDate    int64  `json:"startdate,omitempty" yaml:"startdate,omitempty"`
	EndDate      int64  `json:"enddate,omitempty" yaml:"enddate,omitempty"`
	Visible      int    `json:"visible,omitempty" yaml:"visible,omitempty"`
	TimeModified int64  `json:"timemodified,omitempty" yaml:"timemodified,omitempty"`
}

// Section is a course section returned by core_course_get_contents
type Section struct {
	ID            int64           `json:"id" yaml:"id"`
	Name          string          `json:"name" yaml:"name"`
	Section       int             `json:"section,omitempty" yaml:"section,omitempty"`
	Summary       string          `json:"summary,omitempty" yaml:"summary,omitempty"`
	SummaryFormat int             `json:"summaryformat,omitempty" yaml:"summaryformat,omitempty"`
	Visible       int             `json:"visible,omitempty" yaml:"visible,omitempty"`
	Modules       []*CourseModule `json:"modules" yaml:"modules"`
}

// CourseModule is an activity within a course.
// ModName is the type tag used to select content extraction.
type CourseModule struct {
	ID          int64            `json:"id" yaml:"id"`
	Course      int64            `json:"course,omitempty" yaml:"course,omitempty"`
	ModName     string           `json:"modname" yaml:"modname"`
	ModPlural   string           `json:"modplural,omitempty" yaml:"modplural,omitempty"`
	Instance    int64            `json:"instance" yaml:"instance"`
	Name        string           `json:"name" yaml:"name"`
	URL         string           `json:"url,omitempty" yaml:"url,omitempty"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Intro       string           `json:"intro,omitempty" yaml:"intro,omitempty"`
	Visible     int              `json:"visible,omitempty" yaml:"visible,omitempty"`
	Contents    []*ModuleContent `json:"contents,omitempty" yaml:"contents,omitempty"`
}

// ModuleContent is a file or embedded resource attached to a module
type ModuleContent struct {
	Type         string `json:"type" yaml:"type"`
	FileName     string `json:"filename,omitempty" yaml:"filename,omitempty"`
	FilePath     string `json:"filepath,omitempty" yaml:"filepath,omitempty"`
	FileSize     int64  `json:"filesize,omitempty" yaml:"filesize,omitempty"`
	FileURL      string `json:"fileurl,omitempty" yaml:"fileurl,omitempty"`
	MimeType     string `json:"mimetype,omitempty" yaml:"mimetype,omitempty"`
	TimeCreated  int64  `json:"timecreated,omitempty" yaml:"timecreated,omitempty"`
	TimeModified int64  `json:"timemodified,omitempty" yaml:"timemodified,omitempty"`
}

// Assignment is returned by mod_assign_get_assignments
type Assignment struct {
	ID         int64            `json:"id"`
	CMID       int64            `json:"cmid"`
	Course     int64            `json:"course"`
	Name       string           `json:"name"`
	Intro      string           `json:"intro,omitempty"`
	IntroFiles []*ModuleContent `json:"introfiles,omitempty"`
	DueDate    int64            `json:"duedate,omitempty"`
}

// Discussion is a forum discussion summary
type Discussion struct {
	ID           int64  `json:"id"`
	Discussion   int64  `json:"discussion,omitempty"`
	Name         string `json:"name"`
	Subject      string `json:"subject,omitempty"`
	UserFullName string `json:"userfullname"`
	NumReplies   int    `json:"numreplies"`
	TimeModified int64  `json:"timemodified,omitempty"`
}

// ForumDigest is a page of forum discussions
type ForumDigest struct {
	Discussions []*Discussion `json:"discussions"`
}

// DigestQuery specifies ordering and paging of forum discussions
type DigestQuery struct {
	SortBy   string
	SortDir  string
	Page     int
	PageSize int
}

// Defaults for forum digest
const (
	DefaultDigestSortBy   = "timemodified"
	DefaultDigestSortDir  = "DESC"
	DefaultDigestPageSize = 5
)

// FlattenModules returns modules of all sections in section order
func FlattenModules(sections []*Section) []*CourseModule {
	var list []*CourseModule
	for _, s := range sections {
		if s == nil {
			continue
		}
		for _, m := range s.Modules {
			if m != nil {
				list = append(list, m)
			}
		}
	}
	return list
}
