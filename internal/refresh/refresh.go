// Package refresh fetches releases from the configured source and dispatches
// them into the changelog state.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mithrel/changelog/internal/config"
	"github.com/mithrel/changelog/internal/github"
	"github.com/mithrel/changelog/internal/state"
	"github.com/mithrel/changelog/internal/tracing"
	"github.com/mithrel/changelog/pkg/api"
)

const (
	DefaultInterval = 6 * time.Hour
	DefaultMaxAge   = 24 * time.Hour
)

// Result summarizes one refresh.
type Result struct {
	Changed     bool
	NotModified bool
	Fetched     int
	Kept        int
}

type Service struct {
	cfg     *config.Live
	store   *state.Store
	source  github.Source
	log     logrus.FieldLogger
	now     func() time.Time
	resched chan struct{}

	mu sync.Mutex
}

func New(cfg *config.Live, store *state.Store, source github.Source, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		cfg:     cfg,
		store:   store,
		source:  source,
		log:     log.WithField("component", "refresh"),
		now:     time.Now,
		resched: make(chan struct{}, 1),
	}
}

// RefreshNow fetches the release list once. Failures are logged as warnings
// and returned; the cached state is left as it was.
func (s *Service) RefreshNow(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.source.Repo().String()
	ctx, span := tracing.Start(ctx, "changelog.refresh", attribute.String("repo", repo))
	defer span.End()

	etag := s.store.State().ETag
	releases, newETag, err := s.source.Fetch(ctx, etag)
	now := s.now().UTC()
	if errors.Is(err, github.ErrNotModified) {
		if _, err := s.store.Dispatch(ctx, state.MarkFetched{At: now}); err != nil {
			tracing.RecordError(span, err)
			return Result{}, err
		}
		s.log.WithField("repo", repo).Debug("changelogs not modified")
		return Result{NotModified: true, Kept: len(s.store.State().Changelogs)}, nil
	}
	if err != nil {
		tracing.RecordError(span, err)
		s.log.WithError(err).WithField("repo", repo).Warn("failed to retrieve list of changelogs")
		return Result{}, err
	}

	entries := api.EntriesFromReleases(releases)
	changed, err := s.store.Dispatch(ctx, state.SetChangelogs{Entries: entries, FetchedAt: now, ETag: newETag})
	if err != nil {
		tracing.RecordError(span, err)
		s.log.WithError(err).WithField("repo", repo).Warn("failed to store changelogs")
		return Result{}, err
	}
	span.SetAttributes(
		attribute.Int("releases.fetched", len(releases)),
		attribute.Int("changelogs.kept", len(entries)),
		attribute.Bool("changelogs.changed", changed),
	)
	s.log.WithFields(logrus.Fields{
		"repo":    repo,
		"fetched": len(releases),
		"kept":    len(entries),
		"changed": changed,
	}).Info("changelogs refreshed")
	return Result{Changed: changed, Fetched: len(releases), Kept: len(entries)}, nil
}

// Stale reports whether the cached changelog is missing or older than
// refresh.max_age.
func (s *Service) Stale(now time.Time) bool {
	st := s.store.State()
	if st.FetchedAt.IsZero() {
		return true
	}
	maxAge := s.cfg.Viper().GetDuration("refresh.max_age")
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return now.Sub(st.FetchedAt) > maxAge
}

func (s *Service) interval() time.Duration {
	d := s.cfg.Viper().GetDuration("refresh.interval")
	if d <= 0 {
		return DefaultInterval
	}
	return d
}

// Reschedule makes a running RunBackground re-read refresh.interval and
// re-arm its timer from the last refresh.
func (s *Service) Reschedule() {
	select {
	case s.resched <- struct{}{}:
	default:
	}
}

// RunBackground refreshes on refresh.interval until ctx is done.
func (s *Service) RunBackground(ctx context.Context) {
	last := s.now()
	if s.cfg.Viper().GetBool("refresh.on_start") {
		_, _ = s.RefreshNow(ctx)
	}
	timer := time.NewTimer(s.interval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.resched:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			wait := s.interval() - s.now().Sub(last)
			if wait < 0 {
				wait = 0
			}
			s.log.WithField("next", wait.String()).Debug("refresh rescheduled")
			timer.Reset(wait)
		case <-timer.C:
			_, _ = s.RefreshNow(ctx)
			last = s.now()
			timer.Reset(s.interval())
		}
	}
}
