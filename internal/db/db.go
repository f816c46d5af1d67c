package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mithrel/changelog/pkg/api"
)

// Store persists changelog snapshots, one per repository.
type Store interface {
	LoadSnapshot(ctx context.Context, repo string) (api.Snapshot, error)
	SaveSnapshot(ctx context.Context, s api.Snapshot) error
	ListRepos(ctx context.Context) ([]string, error)
	DeleteSnapshot(ctx context.Context, repo string) error
	Close() error
}

var ErrNotFound = errors.New("not found")

// Open returns a Store based on a URL: sqlite://path or mem://.
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case strings.HasPrefix(url, "sqlite://"):
		return openSQLite(ctx, url)
	case strings.HasPrefix(url, "mem://"):
		return newMemStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store url %q", url)
	}
}
