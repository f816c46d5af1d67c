package format

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mithrel/changelog/pkg/api"
)

// newEncoder leaves <, > and & in release notes as is rather than \u003c escapes.
func newEncoder(w io.Writer, indent bool) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc
}

// WriteJSONEntries writes the window as one JSON array; nil encodes as [].
func WriteJSONEntries(w io.Writer, entries []api.Entry, indent bool) error {
	if entries == nil {
		entries = []api.Entry{}
	}
	return newEncoder(w, indent).Encode(entries)
}

func WriteJSONEntry(w io.Writer, e api.Entry, indent bool) error {
	return newEncoder(w, indent).Encode(e)
}

// WriteNDJSONEntries writes one JSON object per line, newest first.
func WriteNDJSONEntries(w io.Writer, entries []api.Entry) error {
	enc := newEncoder(w, false)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode %s: %w", e.Version, err)
		}
	}
	return nil
}

func WriteNDJSONEntry(w io.Writer, e api.Entry) error {
	return WriteNDJSONEntries(w, []api.Entry{e})
}
