package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mithrel/changelog/internal/render"
	"github.com/mithrel/changelog/pkg/api"
)

const (
	Title        = "Changelog"
	EmptyMessage = "No changelog available."
)

// PrettyOptions controls glamour output.
type PrettyOptions struct {
	Width int
	Style string
	Now   time.Time
}

func (o PrettyOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// Published describes when e was released relative to now, or "" if unknown.
func Published(e api.Entry, now time.Time) string {
	if e.PublishedAt.IsZero() {
		return ""
	}
	return humanize.RelTime(e.PublishedAt, now, "ago", "from now")
}

// EntryMarkdown renders one entry as a Markdown section.
func EntryMarkdown(e api.Entry, now time.Time) string {
	var b strings.Builder
	b.WriteString("## ")
	b.WriteString(e.Version)
	if e.Prerelease {
		b.WriteString(" `prerelease`")
	}
	b.WriteString("\n\n")
	if rel := Published(e, now); rel != "" {
		fmt.Fprintf(&b, "_Released %s_\n\n", rel)
	}
	text := render.Normalize(e.Text)
	if text == "" {
		text = "_No release notes._"
	}
	b.WriteString(text)
	b.WriteString("\n")
	return b.String()
}

// ChangelogMarkdown joins entries into one document under the changelog title.
func ChangelogMarkdown(entries []api.Entry, now time.Time) string {
	var b strings.Builder
	b.WriteString("# " + Title + "\n\n")
	if len(entries) == 0 {
		b.WriteString(EmptyMessage + "\n")
		return b.String()
	}
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		b.WriteString(EntryMarkdown(e, now))
	}
	return b.String()
}

// WritePrettyEntries renders the whole changelog with glamour.
func WritePrettyEntries(w io.Writer, entries []api.Entry, opts PrettyOptions) error {
	out, err := render.Terminal(ChangelogMarkdown(entries, opts.now()), opts.Width, opts.Style)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// WritePrettyEntry renders a single entry with glamour.
func WritePrettyEntry(w io.Writer, e api.Entry, opts PrettyOptions) error {
	md := EntryMarkdown(e, opts.now())
	if e.URL != "" {
		md += "\n" + e.URL + "\n"
	}
	out, err := render.Terminal(md, opts.Width, opts.Style)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
