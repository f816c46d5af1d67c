package daemon

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mithrel/changelog/internal/wire"
)

const reloadDebounce = 100 * time.Millisecond

// watchConfig reloads the config file in use whenever it is written or
// replaced. The directory is watched so editors that save by rename are
// seen. The returned stop func is safe to call more than once.
func watchConfig(ctx context.Context, app *wire.App) (func(), error) {
	path := app.Cfg().ConfigFileUsed()
	if path == "" {
		return func() {}, nil
	}
	path = filepath.Clean(path)
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return func() {}, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return func() {}, err
	}

	var (
		mu       sync.Mutex
		debounce *time.Timer
		stopped  bool
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				mu.Lock()
				if !stopped {
					if debounce != nil {
						debounce.Stop()
					}
					debounce = time.AfterFunc(reloadDebounce, func() { onConfigChange(ctx, app, path) })
				}
				mu.Unlock()
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				app.Log.WithField("component", "daemon").WithError(err).Warn("config watch error")
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = fsw.Close()
			<-done
			mu.Lock()
			stopped = true
			if debounce != nil {
				debounce.Stop()
			}
			mu.Unlock()
		})
	}, nil
}
