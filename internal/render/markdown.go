// Package render converts changelog Markdown into HTML, plain text and
// styled terminal output.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const (
	DefaultStyle = "dracula"
	DefaultWidth = 80
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		// Release notes often embed raw HTML (<details>, <img>); bluemonday
		// strips anything unsafe afterwards.
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	policy     = bluemonday.UGCPolicy()
	blankLines = regexp.MustCompile(`\n{3,}`)
)

// Normalize unifies line endings and trims surrounding whitespace.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.TrimSpace(s)
}

// HTML renders GitHub-flavored Markdown to sanitized HTML.
func HTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(Normalize(src)), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return string(policy.SanitizeBytes(buf.Bytes())), nil
}

// Text renders Markdown to readable plain text.
func Text(src string) (string, error) {
	h, err := HTML(src)
	if err != nil {
		return "", err
	}
	return TextFromHTML(h)
}

// TextFromHTML extracts text from an HTML fragment, keeping block elements on
// their own lines and marking list items.
func TextFromHTML(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithHtml("\n")
	})
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("- ")
	})
	doc.Find("p, li, h1, h2, h3, h4, h5, h6, pre, blockquote, tr, summary").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	doc.Find("h1, h2, h3, h4, h5, h6, p, pre, ul, ol, table").Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	out := blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out), nil
}

// Terminal renders Markdown for an ANSI terminal using glamour. style may be
// "auto", "notty" or any glamour standard style name.
func Terminal(src string, width int, style string) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	styleOpt := glamour.WithStandardStyle(DefaultStyle)
	switch strings.TrimSpace(style) {
	case "":
	case "auto":
		styleOpt = glamour.WithAutoStyle()
	default:
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(Normalize(src))
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
