package api

import (
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Release is the subset of a GitHub release object the changelog cares about.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
}

// Entry is one changelog item derived from a release.
type Entry struct {
	Version     string    `json:"version"`
	Name        string    `json:"name,omitempty"`
	Text        string    `json:"text"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	URL         string    `json:"url,omitempty"`
}

// Snapshot is the persisted changelog state for one repository.
type Snapshot struct {
	Repo      string    `json:"repo"`
	Entries   []Entry   `json:"entries"`
	FetchedAt time.Time `json:"fetched_at"`
	ETag      string    `json:"etag,omitempty"`
	Hash      string    `json:"hash"`
}

// EntryFromRelease maps a release to an entry. The release name is preferred as
// the version (that is what gets published), falling back to the tag.
// Drafts and releases without a semver-looking name or tag are rejected.
func EntryFromRelease(r Release) (Entry, bool) {
	if r.Draft {
		return Entry{}, false
	}
	version := ""
	for _, cand := range []string{r.Name, r.TagName} {
		cand = strings.TrimSpace(cand)
		if cand == "" {
			continue
		}
		if _, err := semver.NewVersion(cand); err == nil {
			version = cand
			break
		}
	}
	if version == "" {
		return Entry{}, false
	}
	return Entry{
		Version:     version,
		Name:        strings.TrimSpace(r.Name),
		Text:        strings.ReplaceAll(r.Body, "\r\n", "\n"),
		Prerelease:  r.Prerelease,
		PublishedAt: r.PublishedAt,
		URL:         r.HTMLURL,
	}, true
}

// EntriesFromReleases maps every usable release, preserving input order.
func EntriesFromReleases(rs []Release) []Entry {
	out := make([]Entry, 0, len(rs))
	for _, r := range rs {
		if e, ok := EntryFromRelease(r); ok {
			out = append(out, e)
		}
	}
	return out
}
