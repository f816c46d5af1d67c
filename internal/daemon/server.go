package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mithrel/changelog/internal/config"
	"github.com/mithrel/changelog/internal/notify"
	"github.com/mithrel/changelog/internal/server"
	"github.com/mithrel/changelog/internal/wire"
)

const (
	DefaultAddr     = ":7465"
	shutdownTimeout = 5 * time.Second
)

// Run starts the daemon using the provided, already-wired App (config, store, logger).
// The caller controls the lifecycle via ctx.
func Run(ctx context.Context, app *wire.App) error {
	addr := strings.TrimSpace(app.Cfg().GetString("http_addr"))
	if addr == "" {
		addr = DefaultAddr
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, app, l)
}

// Serve runs the HTTP API on l alongside the background refresher and the
// update watcher until ctx is done, then shuts both down.
func Serve(ctx context.Context, app *wire.App, l net.Listener) error {
	log := app.Log.WithField("component", "daemon")
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopWatch, err := watchConfig(ctx, app)
	if err != nil {
		log.WithError(err).Warn("config file is not watched")
	}
	defer stopWatch()

	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		app.Refresher.RunBackground(ctx)
	}()
	notifyDone := make(chan struct{})
	go func() {
		defer close(notifyDone)
		notify.NewWatcher(app.Config, app.Log).Run(ctx, app.State)
	}()

	srv := &http.Server{
		Handler:           server.New(app.Config, app.State, app.Refresher, app.Log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutCtx, cancelShut := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShut()
		_ = srv.Shutdown(shutCtx)
	}()

	log.WithFields(logrus.Fields{
		"addr": l.Addr().String(),
		"repo": app.Source.Repo().String(),
	}).Info("serving changelog")
	err = srv.Serve(l)
	cancel()
	<-refreshDone
	<-notifyDone
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func onConfigChange(ctx context.Context, app *wire.App, name string) {
	log := app.Log.WithField("component", "daemon")
	v, err := app.Config.Reload(ctx)
	if err != nil {
		log.WithError(err).WithField("file", name).Warn("reloaded config is invalid; keeping previous config")
		return
	}
	if lvl, err := logrus.ParseLevel(v.GetString("log.level")); err == nil {
		app.Log.SetLevel(lvl)
	}
	if app.Refresher != nil {
		app.Refresher.Reschedule()
	}
	log.WithFields(logrus.Fields{
		"file":        name,
		"app_version": config.ResolveAppVersion(v),
		"interval":    v.GetString("refresh.interval"),
	}).Info("config reloaded")
}
