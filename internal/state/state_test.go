package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/changelog/internal/db"
	"github.com/mithrel/changelog/pkg/api"
)

func newMemCache(t *testing.T) db.Store {
	t.Helper()
	s, err := db.Open(context.Background(), "mem://")
	require.NoError(t, err)
	return s
}

func TestReduceSetChangelogsSortsAndHashes(t *testing.T) {
	now := time.Now().UTC()
	in := []api.Entry{{Version: "1.0.0"}, {Version: "1.2.0"}, {Version: "1.1.0"}}
	next := Reduce(State{Repo: "o/r"}, SetChangelogs{Entries: in, FetchedAt: now, ETag: "e1"})

	require.Len(t, next.Changelogs, 3)
	assert.Equal(t, "1.2.0", next.Changelogs[0].Version)
	assert.Equal(t, "1.0.0", next.Changelogs[2].Version)
	assert.Equal(t, api.HashEntries(next.Changelogs), next.Hash)
	assert.Equal(t, "e1", next.ETag)
	assert.Equal(t, "o/r", next.Repo)
	assert.Equal(t, "1.0.0", in[0].Version, "input must not be reordered")
}

func TestReduceMarkFetchedKeepsEntries(t *testing.T) {
	st := Reduce(State{}, SetChangelogs{Entries: []api.Entry{{Version: "1.0.0"}}, ETag: "old"})
	later := time.Now()
	next := Reduce(st, MarkFetched{At: later})
	assert.Equal(t, st.Changelogs, next.Changelogs)
	assert.Equal(t, "old", next.ETag)
	assert.True(t, later.Equal(next.FetchedAt))
}

type unknownAction struct{}

func (unknownAction) Type() string { return "UNKNOWN" }

func TestReduceUnknownAction(t *testing.T) {
	st := State{Repo: "o/r", Hash: "h"}
	assert.Equal(t, st, Reduce(st, unknownAction{}))
}

func TestStoreDispatchPersistsAndHydrates(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache(t)

	s, err := NewStore(ctx, cache, "o/r")
	require.NoError(t, err)
	assert.Empty(t, s.State().Changelogs)

	changed, err := s.Dispatch(ctx, SetChangelogs{Entries: []api.Entry{{Version: "1.0.0", Text: "a"}}, FetchedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, changed)

	s2, err := NewStore(ctx, cache, "o/r")
	require.NoError(t, err)
	require.Len(t, s2.State().Changelogs, 1)
	assert.Equal(t, s.State().Hash, s2.State().Hash)
}

func TestStoreDispatchUnchanged(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(ctx, newMemCache(t), "o/r")
	require.NoError(t, err)

	changed, err := s.Dispatch(ctx, SetChangelogs{Entries: nil, FetchedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, changed, "empty list on an empty store is not a change")

	entries := []api.Entry{{Version: "1.0.0", Text: "a"}}
	_, err = s.Dispatch(ctx, SetChangelogs{Entries: entries, FetchedAt: time.Now()})
	require.NoError(t, err)
	changed, err = s.Dispatch(ctx, SetChangelogs{Entries: entries, FetchedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSubscribeReceivesOnlyContentChanges(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(ctx, newMemCache(t), "o/r")
	require.NoError(t, err)

	ch, cancel := s.Subscribe()
	defer cancel()

	_, err = s.Dispatch(ctx, SetChangelogs{Entries: []api.Entry{{Version: "1.0.0"}}})
	require.NoError(t, err)
	select {
	case st := <-ch:
		require.Len(t, st.Changelogs, 1)
	case <-time.After(time.Second):
		t.Fatal("expected notification")
	}

	_, err = s.Dispatch(ctx, MarkFetched{At: time.Now()})
	require.NoError(t, err)
	select {
	case <-ch:
		t.Fatal("metadata-only change must not notify")
	default:
	}
}

func TestSubscribeLatestWins(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(ctx, nil, "o/r")
	require.NoError(t, err)
	ch, cancel := s.Subscribe()

	for _, v := range []string{"1.0.0", "2.0.0", "3.0.0"} {
		_, err := s.Dispatch(ctx, SetChangelogs{Entries: []api.Entry{{Version: v}}})
		require.NoError(t, err)
	}
	st := <-ch
	assert.Equal(t, "3.0.0", st.Changelogs[0].Version)

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

type failingCache struct{ db.Store }

func (failingCache) SaveSnapshot(context.Context, api.Snapshot) error {
	return errors.New("disk full")
}

func (failingCache) LoadSnapshot(context.Context, string) (api.Snapshot, error) {
	return api.Snapshot{}, db.ErrNotFound
}

func TestDispatchSaveFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(ctx, failingCache{}, "o/r")
	require.NoError(t, err)
	_, err = s.Dispatch(ctx, SetChangelogs{Entries: []api.Entry{{Version: "1.0.0"}}})
	require.Error(t, err)
	assert.Empty(t, s.State().Changelogs)
}
