package moodle

import (
	"context"
	"net/url"
	"strconv"

	"github.com/effective-security/moodlemcp/toolerr"
	"github.com/effective-security/x/values"
	"github.com/tidwall/gjson"
)

// Web service functions
const (
	FnGetCourses          = "core_course_get_courses"
	FnGetContents         = "core_course_get_contents"
	FnGetCourseModule     = "core_course_get_course_module"
	FnGetAssignments      = "mod_assign_get_assignments"
	FnGetForumDiscussions = "mod_forum_get_forum_discussions_paginated"
)

// ListCourses returns all courses visible to the token
func (c *Client) ListCourses(ctx context.Context) ([]*Course, error) {
	var list []*Course
	if err := c.callArray(ctx, FnGetCourses, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListCourseContents returns sections of the course,
// every module is stamped with the course id.
func (c *Client) ListCourseContents(ctx context.Context, courseID int64) ([]*Section, error) {
	params := url.Values{
		"courseid": {itoa(courseID)},
	}
	var list []*Section
	if err := c.callArray(ctx, FnGetContents, params, &list); err != nil {
		return nil, err
	}
	stampCourse(list, courseID)
	return list, nil
}

// GetCourseModule returns base details of the module by cmid
func (c *Client) GetCourseModule(ctx context.Context, cmid int64) (*CourseModule, error) {
	params := url.Values{
		"cmid": {itoa(cmid)},
	}
	body, err := c.Raw(ctx, FnGetCourseModule, params)
	if err != nil {
		if te, ok := toolerr.As(err); ok && te.UpstreamCode == "invalidrecord" {
			return nil, toolerr.NotFound("activity with id %d not found", cmid)
		}
		return nil, err
	}

	cm := gjson.GetBytes(body, "cm")
	if !cm.IsObject() {
		return nil, toolerr.NotFound("activity with id %d not found", cmid)
	}
	res := new(CourseModule)
	if err = decode(FnGetCourseModule, []byte(cm.Raw), res); err != nil {
		return nil, err
	}
	return res, nil
}

// GetModuleContents returns the module with its contents,
// using the cmid filter of core_course_get_contents.
func (c *Client) GetModuleContents(ctx context.Context, courseID, cmid int64) (*CourseModule, error) {
	params := url.Values{
		"courseid":          {itoa(courseID)},
		"options[0][name]":  {"cmid"},
		"options[0][value]": {itoa(cmid)},
	}
	var list []*Section
	if err := c.callArray(ctx, FnGetContents, params, &list); err != nil {
		return nil, err
	}
	stampCourse(list, courseID)
	for _, m := range FlattenModules(list) {
		if m.ID == cmid {
			return m, nil
		}
	}
	return nil, toolerr.NotFound("activity with id %d not found in course %d", cmid, courseID)
}

type assignmentsResponse struct {
	Courses []struct {
		ID          int64         `json:"id"`
		Assignments []*Assignment `json:"assignments"`
	} `json:"courses"`
}

// GetAssignment returns the assignment with the instance id from the course
func (c *Client) GetAssignment(ctx context.Context, courseID, instanceID int64) (*Assignment, error) {
	params := url.Values{
		"courseids[0]": {itoa(courseID)},
	}
	var res assignmentsResponse
	if err := c.Call(ctx, FnGetAssignments, params, &res); err != nil {
		return nil, err
	}
	for _, course := range res.Courses {
		for _, a := range course.Assignments {
			if a != nil && a.ID == instanceID {
				return a, nil
			}
		}
	}
	return nil, toolerr.NotFound("assignment %d not found in course %d", instanceID, courseID)
}

// GetForumDigest returns a page of discussions of the forum,
// by default five most recently modified.
func (c *Client) GetForumDigest(ctx context.Context, forumID int64, q *DigestQuery) (*ForumDigest, error) {
	if q == nil {
		q = &DigestQuery{}
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = DefaultDigestPageSize
	}
	params := url.Values{
		"forumid":       {itoa(forumID)},
		"sortby":        {values.StringsCoalesce(q.SortBy, DefaultDigestSortBy)},
		"sortdirection": {values.StringsCoalesce(q.SortDir, DefaultDigestSortDir)},
		"page":          {strconv.Itoa(max(q.Page, 0))},
		"perpage":       {strconv.Itoa(pageSize)},
	}
	res := new(ForumDigest)
	if err := c.Call(ctx, FnGetForumDiscussions, params, res); err != nil {
		return nil, err
	}
	return res, nil
}

func stampCourse(sections []*Section, courseID int64) {
	for _, m := range FlattenModules(sections) {
		if m.Course == 0 {
			m.Course = courseID
		}
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
