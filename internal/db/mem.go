package db

import (
	"context"
	"sort"
	"sync"

	"github.com/mithrel/changelog/pkg/api"
)

type memStore struct {
	mu     sync.RWMutex
	byRepo map[string]api.Snapshot
}

func newMemStore() *memStore {
	return &memStore{byRepo: make(map[string]api.Snapshot)}
}

func (m *memStore) LoadSnapshot(ctx context.Context, repo string) (api.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byRepo[repo]
	if !ok {
		return api.Snapshot{}, ErrNotFound
	}
	s.Entries = append([]api.Entry(nil), s.Entries...)
	return s, nil
}

func (m *memStore) SaveSnapshot(ctx context.Context, s api.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Entries = append([]api.Entry(nil), s.Entries...)
	m.byRepo[s.Repo] = s
	return nil
}

func (m *memStore) ListRepos(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.byRepo))
	for r := range m.byRepo {
		out = append(out, r)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) DeleteSnapshot(ctx context.Context, repo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byRepo[repo]; !ok {
		return ErrNotFound
	}
	delete(m.byRepo, repo)
	return nil
}

func (m *memStore) Close() error { return nil }
