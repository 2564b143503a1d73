package moodle

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/effective-security/moodlemcp/toolerr"
	"github.com/effective-security/moodlemcp/utils"
	"github.com/effective-security/xlog"
)

// Placeholders returned in place of content that could not be extracted
const (
	PlaceholderPageEmpty = "[Page content not found or empty]"
	PlaceholderFileEmpty = "[File content not extracted or empty]"
	PlaceholderPDF       = "[PDF content not extracted: no PDF parser available]"
	PlaceholderDOCX      = "[DOCX content not extracted: no DOCX parser available]"
)

const mimeDOCX = "vnd.openxmlformats-officedocument.wordprocessingml.document"

// ContentSelectors are tried in order, the first one with text wins.
// Themes and module types wrap the main content in different containers.
var ContentSelectors = []string{
	`div[role="main"]`,
	"#region-main",
	".course-content",
	"div.page-content",
	"article",
	"main",
	"body",
}

const placeholderMimetypePrefix = "[Content not extractable for mimetype: "

// IsPlaceholder returns true if the text is one of the placeholders
// returned by FetchPageText or FetchResourceText.
// Fetched text that merely starts with a bracket is not a placeholder.
func IsPlaceholder(text string) bool {
	switch text {
	case PlaceholderPageEmpty, PlaceholderFileEmpty, PlaceholderPDF, PlaceholderDOCX:
		return true
	}
	return strings.HasPrefix(text, placeholderMimetypePrefix) && strings.HasSuffix(text, "]")
}

// FetchPageText fetches the page and returns its main text.
// The URL is expected to carry its own credential.
func (c *Client) FetchPageText(ctx context.Context, pageURL string) (string, error) {
	body, err := c.get(ctx, pageURL)
	if err != nil {
		return "", toolerr.UpstreamUnavailable(err, "could not retrieve page content")
	}

	text := ExtractPageText(body)
	logger.ContextKV(ctx, xlog.DEBUG,
		"reason", "page_text",
		"size", len(body),
		"text_len", len(text),
	)
	if text == "" {
		return PlaceholderPageEmpty, nil
	}
	return text, nil
}

// ExtractPageText returns text of the first non-empty content region,
// or text of the whole document.
func ExtractPageText(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return utils.NormalizeText(string(html))
	}
	utils.PrepareSelection(doc.Selection)

	for _, sel := range ContentSelectors {
		if text := utils.NormalizeText(doc.Find(sel).Text()); text != "" {
			return text
		}
	}
	return utils.NormalizeText(doc.Text())
}

// FetchResourceText returns text of the file for text mimetypes.
// Recognized binary formats without a parser and other types
// produce a placeholder without downloading the file.
func (c *Client) FetchResourceText(ctx context.Context, fileURL, mimetype string) (string, error) {
	mt := strings.ToLower(strings.TrimSpace(mimetype))
	switch {
	case strings.Contains(mt, "pdf"):
		return PlaceholderPDF, nil
	case strings.Contains(mt, mimeDOCX):
		return PlaceholderDOCX, nil
	case !strings.HasPrefix(mt, "text/"):
		return placeholderMimetypePrefix + mimetype + "]", nil
	}

	body, err := c.get(ctx, fileURL)
	if err != nil {
		return "", toolerr.UpstreamUnavailable(err, "could not retrieve file content")
	}

	var text string
	if strings.HasPrefix(mt, "text/html") {
		text = utils.StripHTML(string(body))
	} else {
		text = string(body)
		if !utf8.ValidString(text) {
			text = strings.ToValidUTF8(text, "�")
		}
		text = strings.TrimSpace(text)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"reason", "resource_text",
		"mimetype", mimetype,
		"size", len(body),
	)
	if text == "" {
		return PlaceholderFileEmpty, nil
	}
	return text, nil
}
