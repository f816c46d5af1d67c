// Package changelog orders changelog entries by semantic version and selects
// the window shown to a user running a given application version.
package changelog

import (
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/mithrel/changelog/pkg/api"
)

// DefaultLimit is the number of entries shown when no limit is configured.
const DefaultLimit = 10

// Options narrows the visible window.
type Options struct {
	// Limit caps the number of entries; <= 0 means DefaultLimit.
	Limit int
	// IncludePrereleases keeps prerelease entries. Without it entries that are
	// flagged as prereleases or carry a prerelease version are dropped.
	IncludePrereleases bool
	// Since drops entries published before it. Zero means unbounded.
	// Entries without a publish time are kept.
	Since time.Time
}

// DefaultOptions is the window shown when nothing is configured.
func DefaultOptions() Options {
	return Options{Limit: DefaultLimit, IncludePrereleases: true}
}

// Parse parses a version string, tolerating a leading "v".
func Parse(v string) (*semver.Version, bool) {
	sv, err := semver.NewVersion(strings.TrimSpace(v))
	if err != nil {
		return nil, false
	}
	return sv, true
}

// Valid reports whether v parses as a semantic version.
func Valid(v string) bool {
	_, ok := Parse(v)
	return ok
}

// Compare returns -1, 0 or 1 comparing a and b as semantic versions.
// Unparseable versions sort below every valid one and compare to each other
// lexically.
func Compare(a, b string) int {
	va, okA := Parse(a)
	vb, okB := Parse(b)
	switch {
	case okA && okB:
		return va.Compare(vb)
	case okA:
		return 1
	case okB:
		return -1
	default:
		return strings.Compare(a, b)
	}
}

type keyed struct {
	e  api.Entry
	sv *semver.Version
}

func compareKeyed(a, b keyed) int {
	switch {
	case a.sv != nil && b.sv != nil:
		return a.sv.Compare(b.sv)
	case a.sv != nil:
		return 1
	case b.sv != nil:
		return -1
	default:
		return strings.Compare(a.e.Version, b.e.Version)
	}
}

// SortDescending sorts entries in place, highest version first. The sort is
// stable so duplicate versions keep their relative order.
func SortDescending(entries []api.Entry) {
	ks := make([]keyed, len(entries))
	for i, e := range entries {
		sv, _ := Parse(e.Version)
		ks[i] = keyed{e: e, sv: sv}
	}
	sort.SliceStable(ks, func(i, j int) bool { return compareKeyed(ks[i], ks[j]) > 0 })
	for i := range ks {
		entries[i] = ks[i].e
	}
}

// Sorted returns a descending copy of entries.
func Sorted(entries []api.Entry) []api.Entry {
	out := append([]api.Entry(nil), entries...)
	SortDescending(out)
	return out
}

// Visible returns the entries a user on appVersion should see: versions that
// parse and are not newer than appVersion, highest first, capped at the limit.
// An appVersion that does not parse (development builds) disables the upper
// bound. The input slice is not modified.
func Visible(entries []api.Entry, appVersion string, opts Options) []api.Entry {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	app, appOK := Parse(appVersion)

	ks := make([]keyed, 0, len(entries))
	for _, e := range entries {
		sv, ok := Parse(e.Version)
		if !ok {
			continue
		}
		if appOK && sv.Compare(app) > 0 {
			continue
		}
		if !opts.IncludePrereleases && (e.Prerelease || sv.Prerelease() != "") {
			continue
		}
		if !opts.Since.IsZero() && !e.PublishedAt.IsZero() && e.PublishedAt.Before(opts.Since) {
			continue
		}
		ks = append(ks, keyed{e: e, sv: sv})
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].sv.Compare(ks[j].sv) > 0 })
	if len(ks) > limit {
		ks = ks[:limit]
	}
	out := make([]api.Entry, len(ks))
	for i := range ks {
		out[i] = ks[i].e
	}
	return out
}

// Find returns the entry whose version equals v semantically, e.g. "v1.2.0"
// matches "1.2.0".
func Find(entries []api.Entry, v string) (api.Entry, bool) {
	want, ok := Parse(v)
	for _, e := range entries {
		if ok {
			if sv, ok := Parse(e.Version); ok && sv.Equal(want) {
				return e, true
			}
			continue
		}
		if e.Version == v {
			return e, true
		}
	}
	return api.Entry{}, false
}

// Versions lists the version strings of entries in order.
func Versions(entries []api.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Version)
	}
	return out
}
