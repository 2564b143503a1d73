package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/effective-security/moodlemcp/moodle"
	"github.com/effective-security/moodlemcp/tools"
	"github.com/effective-security/moodlemcp/utils"
	"github.com/effective-security/xlog"
)

// ForumDigestSize is the number of latest discussions listed for a forum
const ForumDigestSize = 5

// Placeholders of the strategies
const (
	PlaceholderAssignEmpty  = "[Assignment has no description]"
	PlaceholderNoFile       = "[No file found for this resource]"
	PlaceholderFileNoURL    = "[Resource file has no URL or MIME type]"
	PlaceholderURLMissing   = "[No URL available]"
	PlaceholderNoDesc       = "[No description]"
	PlaceholderNoDiscussion = "[No discussions found or forum is empty]"
)

func errorPlaceholder(what string, err error) string {
	return fmt.Sprintf("[Error fetching %s: %s]", what, err.Error())
}

func logFailure(ctx context.Context, m *moodle.CourseModule, err error) {
	logger.ContextKV(ctx, xlog.WARNING,
		"reason", "extract",
		"cmid", m.ID,
		"modname", m.ModName,
		"err", err.Error(),
	)
}

// Assign returns the stripped intro of the assignment with its attached files
func Assign(ctx context.Context, api moodle.API, m *moodle.CourseModule) *Extract {
	a, err := api.GetAssignment(ctx, m.Course, m.Instance)
	if err != nil {
		logFailure(ctx, m, err)
		return &Extract{
			Content: errorPlaceholder("assignment details", err),
			Kind:    tools.ContentError,
		}
	}

	if a == nil {
		a = &moodle.Assignment{}
	}
	files := fileRefs(a.IntroFiles)
	var sb strings.Builder
	sb.WriteString(utils.StripHTML(a.Intro))
	if len(files) > 0 {
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = f.FileName
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("Attached files: ")
		sb.WriteString(strings.Join(names, ", "))
	}

	if sb.Len() == 0 {
		return &Extract{Content: PlaceholderAssignEmpty, Kind: tools.ContentEmpty, Files: files}
	}
	return &Extract{Content: sb.String(), Kind: tools.ContentText, Files: files}
}

// Page returns text of the page.
// The embedded HTML file is preferred, then the module view URL,
// then the inline description.
func Page(ctx context.Context, api moodle.API, m *moodle.CourseModule) *Extract {
	var candidates []string
	if c := htmlContent(m.Contents); c != nil {
		candidates = append(candidates, c.FileURL)
	}
	if u := strings.TrimSpace(m.URL); u != "" {
		candidates = append(candidates, u)
	}

	var lastErr error
	for _, u := range candidates {
		text, err := api.FetchPageText(ctx, u)
		if err != nil {
			logFailure(ctx, m, err)
			lastErr = err
			continue
		}
		if text != "" && text != moodle.PlaceholderPageEmpty {
			return &Extract{Content: text, Kind: tools.ContentHTMLCleaned}
		}
	}

	if desc := description(m); desc != "" {
		return &Extract{Content: desc, Kind: tools.ContentHTMLCleaned}
	}
	if lastErr != nil {
		return &Extract{Content: errorPlaceholder("page content", lastErr), Kind: tools.ContentError}
	}
	return &Extract{Content: moodle.PlaceholderPageEmpty, Kind: tools.ContentEmpty}
}

// Resource returns text of the first file of the resource
func Resource(ctx context.Context, api moodle.API, m *moodle.CourseModule) *Extract {
	var file *moodle.ModuleContent
	for _, c := range m.Contents {
		if c != nil && c.Type == "file" {
			file = c
			break
		}
	}
	if file == nil {
		return &Extract{Content: PlaceholderNoFile, Kind: tools.ContentEmpty}
	}

	files := fileRefs([]*moodle.ModuleContent{file})
	if file.FileURL == "" || file.MimeType == "" {
		return &Extract{Content: PlaceholderFileNoURL, Kind: tools.ContentFilePlaceholder, Files: files}
	}

	text, err := api.FetchResourceText(ctx, file.FileURL, file.MimeType)
	if err != nil {
		logFailure(ctx, m, err)
		return &Extract{Content: errorPlaceholder("resource file", err), Kind: tools.ContentError, Files: files}
	}
	if moodle.IsPlaceholder(text) {
		return &Extract{Content: text, Kind: tools.ContentFilePlaceholder, Files: files}
	}
	return &Extract{Content: text, Kind: tools.ContentText, Files: files}
}

// URL returns the linked external URL with the description
func URL(_ context.Context, _ moodle.API, m *moodle.CourseModule) *Extract {
	link := ""
	if len(m.Contents) > 0 && m.Contents[0] != nil {
		link = strings.TrimSpace(m.Contents[0].FileURL)
	}
	if link == "" {
		link = strings.TrimSpace(m.URL)
	}
	if link == "" {
		link = PlaceholderURLMissing
	}

	desc := description(m)
	if desc == "" {
		desc = PlaceholderNoDesc
	}
	return &Extract{
		Content: fmt.Sprintf("URL: %s\nDescription: %s", link, desc),
		Kind:    tools.ContentURLDetails,
	}
}

// Forum returns the forum intro with the latest discussions
func Forum(ctx context.Context, api moodle.API, m *moodle.CourseModule) *Extract {
	return forum(ctx, api, m, ForumDigestSize)
}

// NewForum returns the forum strategy listing up to pageSize discussions
func NewForum(pageSize int) Strategy {
	if pageSize <= 0 {
		pageSize = ForumDigestSize
	}
	return func(ctx context.Context, api moodle.API, m *moodle.CourseModule) *Extract {
		return forum(ctx, api, m, pageSize)
	}
}

func forum(ctx context.Context, api moodle.API, m *moodle.CourseModule, pageSize int) *Extract {
	var sb strings.Builder
	if intro := introduction(m); intro != "" {
		sb.WriteString("Forum Introduction: ")
		sb.WriteString(intro)
		sb.WriteString("\n\n")
	}

	digest, err := api.GetForumDigest(ctx, m.Instance, &moodle.DigestQuery{
		SortBy:   moodle.DefaultDigestSortBy,
		SortDir:  moodle.DefaultDigestSortDir,
		PageSize: pageSize,
	})
	if err != nil {
		logFailure(ctx, m, err)
		sb.WriteString(errorPlaceholder("forum discussions", err))
		return &Extract{Content: sb.String(), Kind: tools.ContentError}
	}

	var lines []string
	if digest == nil {
		digest = &moodle.ForumDigest{}
	}
	for _, d := range digest.Discussions {
		if d == nil {
			continue
		}
		if len(lines) == pageSize {
			break
		}
		name := strings.TrimSpace(d.Name)
		if name == "" {
			name = strings.TrimSpace(d.Subject)
		}
		author := strings.TrimSpace(d.UserFullName)
		if author == "" {
			author = "unknown"
		}
		lines = append(lines, fmt.Sprintf("- \"%s\" — %s (%d replies)", name, author, d.NumReplies))
	}

	if len(lines) == 0 {
		kind := tools.ContentText
		if sb.Len() == 0 {
			kind = tools.ContentEmpty
		}
		sb.WriteString(PlaceholderNoDiscussion)
		return &Extract{Content: sb.String(), Kind: kind}
	}

	sb.WriteString("Latest Discussions:\n")
	sb.WriteString(strings.Join(lines, "\n"))
	return &Extract{Content: sb.String(), Kind: tools.ContentText}
}

// Fallback returns the stripped description or intro of the module
func Fallback(_ context.Context, _ moodle.API, m *moodle.CourseModule) *Extract {
	if desc := description(m); desc != "" {
		return &Extract{Content: "Description/Intro: " + desc, Kind: tools.ContentText}
	}
	return &Extract{
		Content: fmt.Sprintf("[Activity type %q has no specific content extraction method and no description]", m.ModName),
		Kind:    tools.ContentEmpty,
	}
}

// description returns stripped description, or intro of the module
func description(m *moodle.CourseModule) string {
	if d := utils.StripHTML(m.Description); d != "" {
		return d
	}
	return utils.StripHTML(m.Intro)
}

// introduction returns stripped intro, or description of the module
func introduction(m *moodle.CourseModule) string {
	if i := utils.StripHTML(m.Intro); i != "" {
		return i
	}
	return utils.StripHTML(m.Description)
}

// htmlContent returns the embedded HTML file of the module
func htmlContent(list []*moodle.ModuleContent) *moodle.ModuleContent {
	for _, c := range list {
		if c == nil || c.FileURL == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(c.MimeType), "text/html") ||
			strings.HasSuffix(strings.ToLower(c.FileName), ".html") {
			return c
		}
	}
	return nil
}

func fileRefs(list []*moodle.ModuleContent) []tools.FileRef {
	files := []tools.FileRef{}
	for _, c := range list {
		if c == nil {
			continue
		}
		files = append(files, tools.FileRef{
			FileName: c.FileName,
			FileURL:  c.FileURL,
			MimeType: c.MimeType,
		})
	}
	return files
}
