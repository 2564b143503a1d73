// Package resolver turns an activity reference into uniform activity content.
//
// Resolution runs in two steps. Base details of the course module are resolved
// first, and failures of this step are returned as errors. Then the content is
// extracted by the strategy registered for the module type, and failures of
// this step are reported in-band as bracketed placeholders.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/effective-security/moodlemcp/callctx"
	"github.com/effective-security/moodlemcp/moodle"
	"github.com/effective-security/moodlemcp/pkg/metricskey"
	"github.com/effective-security/moodlemcp/toolerr"
	"github.com/effective-security/moodlemcp/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/moodlemcp", "resolver")

// Extract is the content produced by a strategy
type Extract struct {
	Content string
	// Kind is optional, when not set it is derived from Content
	Kind  tools.ContentType
	Files []tools.FileRef
}

// Strategy extracts content of a course module.
// A strategy must not fail, failures are returned as placeholders.
type Strategy func(ctx context.Context, api moodle.API, m *moodle.CourseModule) *Extract

// Resolver resolves activities, it is immutable after creation
// and safe for concurrent use.
type Resolver struct {
	strategies map[string]Strategy
	fallback   Strategy
}

// Option configures the resolver
type Option func(*Resolver)

// WithStrategy registers a strategy for the module type
func WithStrategy(modname string, s Strategy) Option {
	return func(r *Resolver) {
		r.strategies[strings.ToLower(modname)] = s
	}
}

// WithFallback sets the strategy for module types without a registered one
func WithFallback(s Strategy) Option {
	return func(r *Resolver) {
		r.fallback = s
	}
}

// WithForumPageSize sets the number of latest discussions listed for a forum
func WithForumPageSize(n int) Option {
	return WithStrategy("forum", NewForum(n))
}

// New returns a resolver with the default strategies
func New(opts ...Option) *Resolver {
	r := &Resolver{
		strategies: map[string]Strategy{
			"assign":   Assign,
			"page":     Page,
			"resource": Resource,
			"url":      URL,
			"forum":    Forum,
		},
		fallback: Fallback,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StrategyFor returns the strategy for the module type
func (r *Resolver) StrategyFor(modname string) Strategy {
	if s, ok := r.strategies[strings.ToLower(strings.TrimSpace(modname))]; ok {
		return s
	}
	return r.fallback
}

// ResolveBase returns base details of the referenced course module.
// By name, the first module in section order whose name contains
// the given name, ignoring case, is returned.
func (r *Resolver) ResolveBase(ctx context.Context, api moodle.API, ref *tools.ActivityReference) (*moodle.CourseModule, error) {
	if ref.ByID() {
		m, err := api.GetCourseModule(ctx, ref.ActivityID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, toolerr.NotFound("activity with id %d not found", ref.ActivityID)
		}
		return m, nil
	}

	name := strings.ToLower(strings.TrimSpace(ref.ActivityName))
	if ref.CourseID <= 0 || name == "" {
		return nil, toolerr.InvalidParams("activity_id, or course_id with activity_name is required")
	}

	sections, err := api.ListCourseContents(ctx, ref.CourseID)
	if err != nil {
		return nil, err
	}
	for _, m := range moodle.FlattenModules(sections) {
		if strings.Contains(strings.ToLower(m.Name), name) {
			if m.Course == 0 {
				m.Course = ref.CourseID
			}
			logger.ContextKV(ctx, xlog.DEBUG,
				"reason", "resolved_by_name",
				"course", ref.CourseID,
				"cmid", m.ID,
				"modname", m.ModName,
			)
			return m, nil
		}
	}
	return nil, toolerr.NotFound("activity matching %q not found in course %d", ref.ActivityName, ref.CourseID)
}

// Details returns the course module with its contents.
// Modules resolved by id are hydrated with contents of the course,
// and a failed hydration returns the base details.
func (r *Resolver) Details(ctx context.Context, api moodle.API, ref *tools.ActivityReference) (*moodle.CourseModule, error) {
	m, err := r.ResolveBase(ctx, api, ref)
	if err != nil {
		return nil, err
	}
	if !ref.ByID() || m.Course == 0 || len(m.Contents) > 0 {
		return m, nil
	}

	full, err := api.GetModuleContents(ctx, m.Course, m.ID)
	if err != nil || full == nil {
		if err == nil {
			err = toolerr.NotFound("contents of activity %d not found", m.ID)
		}
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "hydrate",
			"cmid", m.ID,
			"err", err.Error(),
		)
		return m, nil
	}
	return merge(m, full), nil
}

// Fetch resolves the activity and returns its content
func (r *Resolver) Fetch(ctx context.Context, api moodle.API, ref *tools.ActivityReference) (*tools.EnrichedActivityContent, error) {
	m, err := r.Details(ctx, api, ref)
	if err != nil {
		return nil, err
	}
	return r.Enrich(ctx, api, m), nil
}

// Enrich extracts content of the resolved module
func (r *Resolver) Enrich(ctx context.Context, api moodle.API, m *moodle.CourseModule) *tools.EnrichedActivityContent {
	ex := r.StrategyFor(m.ModName)(ctx, api, m)
	res := normalize(ex)
	res.ActivityName = m.Name
	res.ActivityType = moduleType(m)
	res.ActivityURL = ActivityURL(api.SiteURL(), m)

	if cc := callctx.GetCallContext(ctx); cc != nil {
		cc.SetMetadata(callctx.MetaActivityID, m.ID)
		cc.SetMetadata(callctx.MetaModName, res.ActivityType)
		cc.SetMetadata(callctx.MetaContentType, string(res.ContentType))
	}

	metricskey.StatsActivityResolved.IncrCounter(1, modnameTag(m.ModName), string(res.ContentType))
	logger.ContextKV(ctx, xlog.DEBUG,
		"cmid", m.ID,
		"modname", m.ModName,
		"content_type", res.ContentType,
		"content_len", len(res.Content),
		"files", len(res.Files),
	)
	return res
}

// ActivityURL returns the module URL, or the view URL built from the site URL
func ActivityURL(siteURL string, m *moodle.CourseModule) string {
	if u := strings.TrimSpace(m.URL); u != "" {
		return u
	}
	return fmt.Sprintf("%s/mod/%s/view.php?id=%d", strings.TrimSuffix(siteURL, "/"), moduleType(m), m.ID)
}

func moduleType(m *moodle.CourseModule) string {
	return strings.ToLower(strings.TrimSpace(m.ModName))
}

// PlaceholderNoContent is used when a strategy produced no content
const PlaceholderNoContent = "[No content available]"

func normalize(ex *Extract) *tools.EnrichedActivityContent {
	if ex == nil {
		ex = &Extract{}
	}
	res := &tools.EnrichedActivityContent{
		Content:     ex.Content,
		ContentType: ex.Kind,
		Files:       ex.Files,
	}
	if strings.TrimSpace(res.Content) == "" {
		res.Content = PlaceholderNoContent
		res.ContentType = tools.ContentEmpty
	}
	if res.ContentType == "" {
		if strings.HasPrefix(res.Content, "[Error ") || moodle.IsPlaceholder(res.Content) {
			res.ContentType = tools.ContentError
		} else {
			res.ContentType = tools.ContentText
		}
	}
	if res.Files == nil {
		res.Files = []tools.FileRef{}
	}
	return res
}

// merge fills the base details with fields of the hydrated module
func merge(base, full *moodle.CourseModule) *moodle.CourseModule {
	m := *base
	if m.URL == "" {
		m.URL = full.URL
	}
	if m.Description == "" {
		m.Description = full.Description
	}
	if m.Intro == "" {
		m.Intro = full.Intro
	}
	if len(m.Contents) == 0 {
		m.Contents = full.Contents
	}
	if m.Instance == 0 {
		m.Instance = full.Instance
	}
	return &m
}

// modnameTag limits metric cardinality to known module types
func modnameTag(name string) string {
	switch mn := strings.ToLower(name); mn {
	case "assign", "page", "resource", "url", "forum":
		return mn
	default:
		return "other"
	}
}
