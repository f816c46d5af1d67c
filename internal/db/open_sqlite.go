package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mithrel/changelog/pkg/api"
)

type sqliteStore struct{ db *sql.DB }

const sqlitePragmas = "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// openSQLite connects to a SQLite database using modernc.org/sqlite driver and ensures schema exists.
func openSQLite(ctx context.Context, dsn string) (*sqliteStore, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	// Pragmas go in the DSN so every pooled connection gets them.
	dbh, err := sql.Open("sqlite", "file:"+path+sqlitePragmas)
	if err != nil {
		return nil, err
	}
	if err := dbh.PingContext(ctx); err != nil {
		_ = dbh.Close()
		return nil, err
	}
	if err := migrate(ctx, dbh); err != nil {
		_ = dbh.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &sqliteStore{db: dbh}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS snapshots (
  repo TEXT PRIMARY KEY,
  fetched_at TIMESTAMP NOT NULL,
  etag TEXT NOT NULL DEFAULT '',
  hash TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS changelogs (
  repo TEXT NOT NULL,
  position INTEGER NOT NULL,
  version TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  body TEXT NOT NULL,
  prerelease INTEGER NOT NULL DEFAULT 0,
  published_at TIMESTAMP,
  url TEXT NOT NULL DEFAULT '',
  PRIMARY KEY(repo, position),
  FOREIGN KEY(repo) REFERENCES snapshots(repo) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_changelogs_repo_version ON changelogs(repo, version);
`)
	return err
}

func (s *sqliteStore) LoadSnapshot(ctx context.Context, repo string) (api.Snapshot, error) {
	snap := api.Snapshot{Repo: repo}
	row := s.db.QueryRowContext(ctx, `SELECT fetched_at, etag, hash FROM snapshots WHERE repo=?`, repo)
	if err := row.Scan(&snap.FetchedAt, &snap.ETag, &snap.Hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.Snapshot{}, ErrNotFound
		}
		return api.Snapshot{}, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT version, name, body, prerelease, published_at, url
FROM changelogs WHERE repo=? ORDER BY position ASC`, repo)
	if err != nil {
		return api.Snapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var e api.Entry
		var pre int
		var published sql.NullTime
		if err := rows.Scan(&e.Version, &e.Name, &e.Text, &pre, &published, &e.URL); err != nil {
			return api.Snapshot{}, err
		}
		e.Prerelease = pre != 0
		if published.Valid {
			e.PublishedAt = published.Time.UTC()
		}
		snap.Entries = append(snap.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return api.Snapshot{}, err
	}
	snap.FetchedAt = snap.FetchedAt.UTC()
	return snap, nil
}

// SaveSnapshot replaces the stored snapshot for s.Repo in a single transaction.
func (s *sqliteStore) SaveSnapshot(ctx context.Context, snap api.Snapshot) error {
	if strings.TrimSpace(snap.Repo) == "" {
		return errors.New("snapshot repo is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	fetched := snap.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO snapshots(repo, fetched_at, etag, hash) VALUES(?,?,?,?)
ON CONFLICT(repo) DO UPDATE SET fetched_at=excluded.fetched_at, etag=excluded.etag, hash=excluded.hash`,
		snap.Repo, fetched.UTC(), snap.ETag, snap.Hash); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM changelogs WHERE repo=?`, snap.Repo); err != nil {
		return fmt.Errorf("clear changelogs: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO changelogs(repo, position, version, name, body, prerelease, published_at, url)
VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, e := range snap.Entries {
		var published any
		if !e.PublishedAt.IsZero() {
			published = e.PublishedAt.UTC()
		}
		pre := 0
		if e.Prerelease {
			pre = 1
		}
		if _, err := stmt.ExecContext(ctx, snap.Repo, i, e.Version, e.Name, e.Text, pre, published, e.URL); err != nil {
			return fmt.Errorf("insert changelog %s: %w", e.Version, err)
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) ListRepos(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT repo FROM snapshots ORDER BY repo ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) DeleteSnapshot(ctx context.Context, repo string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE repo=?`, repo)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }
