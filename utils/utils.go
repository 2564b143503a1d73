package utils

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"
)

const blockElements = "p, div, li, tr, h1, h2, h3, h4, h5, h6, blockquote, pre, section, article, table"

func JSONIndent(body string) string {
	var buf bytes.Buffer
	_ = json.Indent(&buf, []byte(body), "", "\t")
	return buf.String()
}

func ToJSON(val any) string {
	js, _ := json.Marshal(val)
	return string(js)
}

func ToJSONIndent(val any) string {
	js, _ := json.MarshalIndent(val, "", "\t")
	return string(js)
}

func ToYAML(val any) string {
	js, _ := yaml.Marshal(val)
	return string(js)
}

// StripHTML returns the visible text of the HTML fragment,
// one line per block element.
func StripHTML(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	if !strings.Contains(html, "<") && !strings.Contains(html, "&") {
		return NormalizeText(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return NormalizeText(html)
	}
	return SelectionText(doc.Selection)
}

// SelectionText returns normalized text of the selection,
// script and style elements are removed.
func SelectionText(s *goquery.Selection) string {
	PrepareSelection(s)
	return NormalizeText(s.Text())
}

// PrepareSelection removes non visible elements and terminates
// block elements with a line break, so Text() keeps paragraphs apart.
func PrepareSelection(s *goquery.Selection) {
	s.Find("script, style, noscript").Remove()
	s.Find("br").ReplaceWithHtml("\n")
	s.Find(blockElements).AppendHtml("\n")
}

// NormalizeText collapses whitespace within lines and drops empty lines
func NormalizeText(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
