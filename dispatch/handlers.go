package dispatch

import (
	"context"
	"strings"

	"github.com/effective-security/moodlemcp/moodle"
	"github.com/effective-security/moodlemcp/tools"
)

func getCourses(ctx context.Context, api moodle.API, params any) (any, error) {
	p := params.(*tools.GetCoursesParams)
	list, err := api.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	return FilterCourses(list, p.CourseNameFilter), nil
}

// FilterCourses returns courses whose full name or short name
// contains the filter, ignoring case. Empty filter returns all courses.
func FilterCourses(list []*moodle.Course, filter string) []*moodle.Course {
	res := []*moodle.Course{}
	filter = strings.ToLower(strings.TrimSpace(filter))
	for _, c := range list {
		if c == nil {
			continue
		}
		if filter == "" ||
			strings.Contains(strings.ToLower(c.FullName), filter) ||
			strings.Contains(strings.ToLower(c.ShortName), filter) {
			res = append(res, c)
		}
	}
	return res
}

func getCourseContents(ctx context.Context, api moodle.API, params any) (any, error) {
	p := params.(*tools.CourseParams)
	sections, err := api.ListCourseContents(ctx, p.CourseID)
	if err != nil {
		return nil, err
	}
	if sections == nil {
		sections = []*moodle.Section{}
	}
	return sections, nil
}

func getCourseActivities(ctx context.Context, api moodle.API, params any) (any, error) {
	p := params.(*tools.CourseParams)
	sections, err := api.ListCourseContents(ctx, p.CourseID)
	if err != nil {
		return nil, err
	}
	return Summarize(moodle.FlattenModules(sections)), nil
}

// Summarize returns summaries of the modules in the given order.
// Missing url and file url are null, missing modification time is 0.
func Summarize(modules []*moodle.CourseModule) []tools.ActivitySummary {
	list := make([]tools.ActivitySummary, 0, len(modules))
	for _, m := range modules {
		s := tools.ActivitySummary{
			ID:      m.ID,
			Name:    m.Name,
			ModName: m.ModName,
		}
		if m.URL != "" {
			u := m.URL
			s.URL = &u
		}
		if len(m.Contents) > 0 && m.Contents[0] != nil {
			first := m.Contents[0]
			if first.FileURL != "" {
				u := first.FileURL
				s.FileURL = &u
			}
			s.TimeModified = first.TimeModified
		}
		list = append(list, s)
	}
	return list
}

func getPageModuleContent(ctx context.Context, api moodle.API, params any) (any, error) {
	p := params.(*tools.PageParams)
	return api.FetchPageText(ctx, p.PageContentURL)
}

func getResourceFileContent(ctx context.Context, api moodle.API, params any) (any, error) {
	p := params.(*tools.ResourceParams)
	return api.FetchResourceText(ctx, p.ResourceFileURL, p.MimeType)
}

func (d *Dispatcher) getActivityDetails(ctx context.Context, api moodle.API, params any) (any, error) {
	return d.resolver.Details(ctx, api, params.(*tools.ActivityReference))
}

func (d *Dispatcher) fetchActivityContent(ctx context.Context, api moodle.API, params any) (any, error) {
	return d.resolver.Fetch(ctx, api, params.(*tools.ActivityReference))
}
