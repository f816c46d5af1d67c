package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/changelog/internal/config"
	"github.com/mithrel/changelog/internal/db"
	"github.com/mithrel/changelog/internal/github"
	"github.com/mithrel/changelog/internal/state"
	"github.com/mithrel/changelog/pkg/api"
)

type fakeSource struct {
	mu       sync.Mutex
	releases []api.Release
	etag     string
	err      error
	calls    int
	gotETags []string
}

func (f *fakeSource) Fetch(ctx context.Context, etag string) ([]api.Release, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotETags = append(f.gotETags, etag)
	if f.err != nil {
		return nil, "", f.err
	}
	if f.etag != "" && etag == f.etag {
		return nil, "", github.ErrNotModified
	}
	return f.releases, f.etag, nil
}

func (f *fakeSource) Repo() github.Repo { return github.Repo{Owner: "owner", Name: "repo"} }

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func setup(t *testing.T, src *fakeSource, settings ...map[string]any) (*Service, *state.Store, *logtest.Hook) {
	t.Helper()
	cache, err := db.Open(context.Background(), "mem://")
	require.NoError(t, err)
	st, err := state.NewStore(context.Background(), cache, "owner/repo")
	require.NoError(t, err)
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	v := viper.New()
	v.Set("refresh.max_age", "1h")
	for _, m := range settings {
		for k, val := range m {
			v.Set(k, val)
		}
	}
	return New(config.NewLive(v, nil), st, src, logger), st, hook
}

func TestRefreshNowDispatchesEntries(t *testing.T) {
	src := &fakeSource{
		releases: []api.Release{
			{TagName: "v1.0.0", Body: "first"},
			{TagName: "v1.1.0", Body: "second"},
			{TagName: "v2.0.0", Draft: true},
			{TagName: "nightly"},
		},
		etag: `"e1"`,
	}
	svc, st, _ := setup(t, src)

	res, err := svc.RefreshNow(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 4, res.Fetched)
	assert.Equal(t, 2, res.Kept)

	cur := st.State()
	require.Len(t, cur.Changelogs, 2)
	assert.Equal(t, "v1.1.0", cur.Changelogs[0].Version)
	assert.Equal(t, `"e1"`, cur.ETag)
	assert.False(t, cur.FetchedAt.IsZero())
}

func TestRefreshNowNotModified(t *testing.T) {
	src := &fakeSource{releases: []api.Release{{TagName: "v1.0.0"}}, etag: `"e1"`}
	svc, st, _ := setup(t, src)

	_, err := svc.RefreshNow(context.Background())
	require.NoError(t, err)
	first := st.State().FetchedAt

	later := first.Add(time.Minute)
	svc.now = func() time.Time { return later }
	res, err := svc.RefreshNow(context.Background())
	require.NoError(t, err)
	assert.True(t, res.NotModified)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, res.Kept)
	assert.Equal(t, []string{"", `"e1"`}, src.gotETags)
	assert.True(t, later.Equal(st.State().FetchedAt))
}

func TestRefreshNowFailureWarnsAndKeepsCache(t *testing.T) {
	src := &fakeSource{releases: []api.Release{{TagName: "v1.0.0"}}}
	svc, st, hook := setup(t, src)
	_, err := svc.RefreshNow(context.Background())
	require.NoError(t, err)

	src.err = errors.New("network down")
	_, err = svc.RefreshNow(context.Background())
	require.Error(t, err)

	require.Len(t, st.State().Changelogs, 1)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "failed to retrieve list of changelogs", entry.Message)
	assert.Equal(t, "refresh", entry.Data["component"])
}

func TestStale(t *testing.T) {
	src := &fakeSource{releases: []api.Release{{TagName: "v1.0.0"}}}
	svc, _, _ := setup(t, src)
	now := time.Now()
	assert.True(t, svc.Stale(now), "never fetched")

	_, err := svc.RefreshNow(context.Background())
	require.NoError(t, err)
	assert.False(t, svc.Stale(time.Now()))
	assert.True(t, svc.Stale(time.Now().Add(2*time.Hour)))
}

func TestRunBackground(t *testing.T) {
	src := &fakeSource{releases: []api.Release{{TagName: "v1.0.0"}}}
	svc, _, _ := setup(t, src, map[string]any{"refresh.on_start": true, "refresh.interval": "10ms"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunBackground(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return src.callCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunBackground did not stop")
	}
}

func TestRescheduleAppliesShorterInterval(t *testing.T) {
	src := &fakeSource{releases: []api.Release{{TagName: "v1.0.0"}}}
	svc, _, _ := setup(t, src, map[string]any{"refresh.on_start": false, "refresh.interval": "6h"})
	live := svc.cfg

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		svc.RunBackground(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, src.callCount())

	next := viper.New()
	next.Set("refresh.max_age", "1h")
	next.Set("refresh.interval", "10ms")
	live.Publish(next)
	svc.Reschedule()

	require.Eventually(t, func() bool { return src.callCount() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
