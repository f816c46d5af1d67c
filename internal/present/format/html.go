package format

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/mithrel/changelog/internal/render"
	"github.com/mithrel/changelog/pkg/api"
)

//go:embed templates/changelog.html
var templateFS embed.FS

var page = template.Must(template.ParseFS(templateFS, "templates/changelog.html"))

// HTMLOptions controls the standalone changelog page.
type HTMLOptions struct {
	AppVersion string
	Now        time.Time
}

type htmlEntry struct {
	Version    string
	URL        string
	Prerelease bool
	Published  string
	// Body is sanitized by render.HTML before it reaches the template.
	Body template.HTML
}

type htmlPage struct {
	Title      string
	AppVersion string
	Empty      string
	Entries    []htmlEntry
}

func toHTMLEntry(e api.Entry, now time.Time) (htmlEntry, error) {
	body, err := render.HTML(e.Text)
	if err != nil {
		return htmlEntry{}, fmt.Errorf("render %s: %w", e.Version, err)
	}
	return htmlEntry{
		Version:    e.Version,
		URL:        e.URL,
		Prerelease: e.Prerelease,
		Published:  Published(e, now),
		Body:       template.HTML(body),
	}, nil
}

// WriteHTMLEntries writes a complete HTML page listing entries.
func WriteHTMLEntries(w io.Writer, entries []api.Entry, opts HTMLOptions) error {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	data := htmlPage{Title: Title, AppVersion: opts.AppVersion, Empty: EmptyMessage}
	for _, e := range entries {
		he, err := toHTMLEntry(e, now)
		if err != nil {
			return err
		}
		data.Entries = append(data.Entries, he)
	}
	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("execute template %q: %w", "changelog.html", err)
	}
	return nil
}

// WriteHTMLEntry writes a single entry as an HTML fragment.
func WriteHTMLEntry(w io.Writer, e api.Entry, now time.Time) error {
	if now.IsZero() {
		now = time.Now()
	}
	he, err := toHTMLEntry(e, now)
	if err != nil {
		return err
	}
	if err := page.ExecuteTemplate(w, "entry", he); err != nil {
		return fmt.Errorf("execute template %q: %w", "entry", err)
	}
	return nil
}
