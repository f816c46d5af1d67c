package present

import (
	"context"
	"io"
	"time"

	"github.com/mithrel/changelog/internal/present/format"
	"github.com/mithrel/changelog/internal/present/tui"
	"github.com/mithrel/changelog/pkg/api"
)

type Mode int

const (
	ModePlain Mode = iota
	ModePretty
	ModeJSON
	ModeNDJSON
	ModeHTML
	ModeTUI
)

func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModePretty:
		return "pretty"
	case ModeJSON:
		return "json"
	case ModeNDJSON:
		return "ndjson"
	case ModeHTML:
		return "html"
	case ModeTUI:
		return "tui"
	default:
		return "unknown"
	}
}

// ModeNames lists the accepted --output values.
var ModeNames = []string{"plain", "pretty", "json", "ndjson", "html", "tui"}

type Options struct {
	Mode       Mode
	JSONIndent bool
	Headers    bool
	// Body adds release notes to plain output.
	Body       bool
	Width      int
	Style      string
	AppVersion string
	Now        time.Time
}

// ParseMode parses a string like "plain", "pretty", "json", "ndjson", "html", "tui".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "plain":
		return ModePlain, true
	case "pretty":
		return ModePretty, true
	case "json":
		return ModeJSON, true
	case "ndjson":
		return ModeNDJSON, true
	case "html":
		return ModeHTML, true
	case "tui":
		return ModeTUI, true
	default:
		return ModePretty, false
	}
}

func (o Options) pretty() format.PrettyOptions {
	return format.PrettyOptions{Width: o.Width, Style: o.Style, Now: o.Now}
}

// RenderChangelogs renders the visible changelog window according to options.
func RenderChangelogs(ctx context.Context, w io.Writer, entries []api.Entry, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSONEntries(w, entries, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSONEntries(w, entries)
	case ModePlain:
		return format.WritePlainEntries(w, entries, opts.Headers, opts.Body)
	case ModePretty:
		return format.WritePrettyEntries(w, entries, opts.pretty())
	case ModeHTML:
		return format.WriteHTMLEntries(w, entries, format.HTMLOptions{AppVersion: opts.AppVersion, Now: opts.Now})
	case ModeTUI:
		if len(entries) == 0 {
			_, err := io.WriteString(w, format.EmptyMessage+"\n")
			return err
		}
		return tui.RenderTable(ctx, entries, tui.Options{Headers: opts.Headers, Style: opts.Style, Now: opts.Now, Output: w})
	default:
		return format.WritePrettyEntries(w, entries, opts.pretty())
	}
}

// RenderChangelog renders a single entry according to options.
func RenderChangelog(ctx context.Context, w io.Writer, e api.Entry, opts Options) error {
	switch opts.Mode {
	case ModeJSON:
		return format.WriteJSONEntry(w, e, opts.JSONIndent)
	case ModeNDJSON:
		return format.WriteNDJSONEntry(w, e)
	case ModePlain:
		return format.WritePlainEntry(w, e, opts.Headers)
	case ModeHTML:
		return format.WriteHTMLEntry(w, e, opts.Now)
	case ModeTUI:
		return tui.RenderTable(ctx, []api.Entry{e}, tui.Options{Headers: opts.Headers, Style: opts.Style, Now: opts.Now, Output: w})
	default:
		return format.WritePrettyEntry(w, e, opts.pretty())
	}
}
