package api

import (
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"
)

// Hash returns a deterministic BLAKE3 hash of the entry content.
// It covers Version, Text and the prerelease flag; metadata such as the
// publish time or URL does not change what the dashlet shows.
func (e Entry) Hash() string {
	h := blake3.New()

	h.Write([]byte(e.Version))
	h.Write([]byte{0})

	h.Write([]byte(e.Text))
	h.Write([]byte{0})

	if e.Prerelease {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

// HashEntries hashes a list of entries. Order matters.
func HashEntries(entries []Entry) string {
	h := blake3.New()
	for _, e := range entries {
		h.Write([]byte(e.Hash()))
		h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

// HashWindow hashes a served changelog window together with the app version
// it was cut for and the time the list was fetched.
func HashWindow(appVersion string, fetchedAt time.Time, entries []Entry) string {
	h := blake3.New()
	h.Write([]byte(appVersion))
	h.Write([]byte{0})
	h.Write([]byte(fetchedAt.UTC().Format(time.RFC3339Nano)))
	h.Write([]byte{0})
	h.Write([]byte(HashEntries(entries)))
	return hex.EncodeToString(h.Sum(nil))
}
