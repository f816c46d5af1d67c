package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mithrel/changelog/internal/db"
	"github.com/mithrel/changelog/pkg/api"
)

// Store owns the current State, persists it through a db.Store and fans
// changes out to subscribers.
type Store struct {
	mu     sync.RWMutex
	cache  db.Store
	state  State
	subs   map[int]chan State
	nextID int
}

// NewStore hydrates the state for repo from cache. A missing snapshot yields
// an empty state.
func NewStore(ctx context.Context, cache db.Store, repo string) (*Store, error) {
	st := State{Repo: repo, Hash: api.HashEntries(nil)}
	if cache != nil {
		snap, err := cache.LoadSnapshot(ctx, repo)
		switch {
		case err == nil:
			st = FromSnapshot(snap)
			st.Repo = repo
		case errors.Is(err, db.ErrNotFound):
		default:
			return nil, fmt.Errorf("load snapshot %s: %w", repo, err)
		}
	}
	return &Store{cache: cache, state: st, subs: make(map[int]chan State)}, nil
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Dispatch reduces a into the current state and persists the result. It
// reports whether the visible changelog content changed; subscribers are
// notified only in that case.
func (s *Store) Dispatch(ctx context.Context, a Action) (bool, error) {
	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, a)
	contentChanged := next.Hash != prev.Hash
	metaChanged := !next.FetchedAt.Equal(prev.FetchedAt) || next.ETag != prev.ETag
	if (contentChanged || metaChanged) && s.cache != nil {
		if err := s.cache.SaveSnapshot(ctx, next.Snapshot()); err != nil {
			s.mu.Unlock()
			return false, fmt.Errorf("save snapshot: %w", err)
		}
	}
	s.state = next
	if contentChanged {
		for _, ch := range s.subs {
			publish(ch, next.clone())
		}
	}
	s.mu.Unlock()

	return contentChanged, nil
}

// publish delivers st without blocking, replacing any undelivered state.
// Callers hold s.mu so no other publisher or cancel runs concurrently.
func publish(ch chan State, st State) {
	for {
		select {
		case ch <- st:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Subscribe returns a channel receiving the latest state after each content
// change. Slow readers only see the most recent state. cancel closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan State, 1)
	s.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}
