// Package notify reports changelog entries that became visible after a refresh.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mithrel/changelog/internal/changelog"
	"github.com/mithrel/changelog/internal/config"
	"github.com/mithrel/changelog/internal/state"
	"github.com/mithrel/changelog/pkg/api"
)

// Watcher follows a state store and logs versions that enter the visible
// window. Versions already visible when it starts are not reported.
type Watcher struct {
	cfg  *config.Live
	log  logrus.FieldLogger
	seen map[string]bool
	// onNew, when set, also receives each batch of new entries.
	onNew func([]api.Entry)
}

func NewWatcher(cfg *config.Live, log logrus.FieldLogger) *Watcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Watcher{cfg: cfg, log: log.WithField("component", "notify"), seen: map[string]bool{}}
}

func (w *Watcher) visible(st state.State) []api.Entry {
	cfg := w.cfg.Viper()
	return changelog.Visible(st.Changelogs, config.ResolveAppVersion(cfg), changelog.Options{
		Limit:              cfg.GetInt("display.limit"),
		IncludePrereleases: cfg.GetBool("display.include_prereleases"),
	})
}

// Observe records st and returns the visible entries not seen before, newest
// first.
func (w *Watcher) Observe(st state.State) []api.Entry {
	var fresh []api.Entry
	for _, e := range w.visible(st) {
		if w.seen[e.Version] {
			continue
		}
		w.seen[e.Version] = true
		fresh = append(fresh, e)
	}
	return fresh
}

// Run blocks until ctx is done, reporting new entries after every content
// change of store.
func (w *Watcher) Run(ctx context.Context, store *state.Store) {
	updates, cancel := store.Subscribe()
	defer cancel()
	w.Observe(store.State())
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			fresh := w.Observe(st)
			if len(fresh) == 0 {
				continue
			}
			w.log.WithFields(logrus.Fields{
				"repo":     st.Repo,
				"versions": changelog.Versions(fresh),
			}).Info("new changelog entries available")
			if w.onNew != nil {
				w.onNew(fresh)
			}
		}
	}
}
