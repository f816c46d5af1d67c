package format

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mithrel/changelog/internal/render"
	"github.com/mithrel/changelog/pkg/api"
)

// TSV columns: version, prerelease, published
var headerLine = "version\tprerelease\tpublished\n"

func esc(field string) string {
	field = strings.ReplaceAll(field, "\t", "\\t")
	field = strings.ReplaceAll(field, "\n", "\\n")
	return field
}

func publishedColumn(e api.Entry) string {
	if e.PublishedAt.IsZero() {
		return "-"
	}
	return e.PublishedAt.UTC().Format(time.DateOnly)
}

func plainRow(e api.Entry) string {
	return fmt.Sprintf("%s\t%t\t%s\n", esc(e.Version), e.Prerelease, publishedColumn(e))
}

// writeBody appends e's notes as indented plain text. Body lines hold no tabs,
// so tabwriter passes them through unaligned.
func writeBody(w io.Writer, e api.Entry) error {
	text, err := render.Text(e.Text)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.ReplaceAll(line, "\t", "    ")
		if _, err := io.WriteString(w, strings.TrimRight("    "+line, " ")+"\n"); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func WritePlainEntries(w io.Writer, entries []api.Entry, headers, body bool) error {
	if len(entries) == 0 {
		_, err := io.WriteString(w, EmptyMessage+"\n")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, headerLine)
	}
	for _, e := range entries {
		_, _ = io.WriteString(tw, plainRow(e))
		if body {
			if err := writeBody(tw, e); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}

func WritePlainEntry(w io.Writer, e api.Entry, headers bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if headers {
		_, _ = io.WriteString(tw, headerLine)
	}
	_, _ = io.WriteString(tw, plainRow(e))
	if err := writeBody(tw, e); err != nil {
		return err
	}
	return tw.Flush()
}
