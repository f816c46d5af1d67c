package state

import (
	"time"

	"github.com/mithrel/changelog/pkg/api"
)

const (
	TypeSetChangelogs = "SET_CHANGELOGS"
	TypeMarkFetched   = "MARK_FETCHED"
)

// Action is anything the reducer understands.
type Action interface {
	Type() string
}

// SetChangelogs replaces the stored changelog list.
type SetChangelogs struct {
	Entries   []api.Entry
	FetchedAt time.Time
	ETag      string
}

func (SetChangelogs) Type() string { return TypeSetChangelogs }

// MarkFetched records a fetch that returned nothing new.
type MarkFetched struct {
	At   time.Time
	ETag string
}

func (MarkFetched) Type() string { return TypeMarkFetched }
