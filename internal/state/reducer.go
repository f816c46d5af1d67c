// Package state holds the changelog slice: a reducer over a small set of
// actions and a Store that persists the result and notifies subscribers.
package state

import (
	"time"

	"github.com/mithrel/changelog/internal/changelog"
	"github.com/mithrel/changelog/pkg/api"
)

// State is the persisted changelog slice for one repository.
type State struct {
	Repo       string
	Changelogs []api.Entry
	FetchedAt  time.Time
	ETag       string
	Hash       string
}

func (s State) clone() State {
	s.Changelogs = append([]api.Entry(nil), s.Changelogs...)
	return s
}

// Snapshot converts the state to its persisted form.
func (s State) Snapshot() api.Snapshot {
	return api.Snapshot{
		Repo:      s.Repo,
		Entries:   append([]api.Entry(nil), s.Changelogs...),
		FetchedAt: s.FetchedAt,
		ETag:      s.ETag,
		Hash:      s.Hash,
	}
}

// FromSnapshot builds a State from its persisted form.
func FromSnapshot(snap api.Snapshot) State {
	st := State{
		Repo:       snap.Repo,
		Changelogs: append([]api.Entry(nil), snap.Entries...),
		FetchedAt:  snap.FetchedAt,
		ETag:       snap.ETag,
		Hash:       snap.Hash,
	}
	if st.Hash == "" {
		st.Hash = api.HashEntries(st.Changelogs)
	}
	return st
}

// Reduce applies a to s and returns the next state. s is not modified.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case SetChangelogs:
		next := s.clone()
		next.Changelogs = changelog.Sorted(act.Entries)
		next.Hash = api.HashEntries(next.Changelogs)
		next.FetchedAt = act.FetchedAt
		next.ETag = act.ETag
		return next
	case *SetChangelogs:
		return Reduce(s, *act)
	case MarkFetched:
		next := s.clone()
		next.FetchedAt = act.At
		if act.ETag != "" {
			next.ETag = act.ETag
		}
		return next
	case *MarkFetched:
		return Reduce(s, *act)
	default:
		return s
	}
}
