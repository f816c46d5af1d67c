package wire

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/mithrel/changelog/internal/config"
	"github.com/mithrel/changelog/internal/db"
	"github.com/mithrel/changelog/internal/github"
	"github.com/mithrel/changelog/internal/keys"
	"github.com/mithrel/changelog/internal/refresh"
	"github.com/mithrel/changelog/internal/state"
)

// App aggregates the major services for easy injection.
type App struct {
	Config    *config.Live
	Log       *logrus.Logger
	Cache     db.Store
	State     *state.Store
	Source    github.Source
	Refresher *refresh.Service
	Tokens    keys.TokenStore
}

// Options overrides pieces of the wiring, mostly for tests.
type Options struct {
	// DBURL replaces the sqlite path derived from data_dir.
	DBURL     string
	Tokens    keys.TokenStore
	LogOutput io.Writer
	// Loader rebuilds the config on reload; nil re-reads the same file.
	Loader    config.Loader
}

// NewLogger builds the process logger from log.level.
func NewLogger(v *viper.Viper, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stderr
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(strings.TrimSpace(v.GetString("log.level")))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// BuildApp wires dependencies with the provided config.
func BuildApp(ctx context.Context, v *viper.Viper, opts Options) (*App, error) {
	logger := NewLogger(v, opts.LogOutput)

	repo, err := github.ParseRepo(v.GetString("repo"))
	if err != nil {
		return nil, err
	}

	dbURL := opts.DBURL
	if dbURL == "" {
		dbURL = "sqlite://" + config.ResolveDBPath(v)
	}
	cache, err := db.Open(ctx, dbURL)
	if err != nil {
		return nil, err
	}

	st, err := state.NewStore(ctx, cache, repo.String())
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = &keys.KeyringStore{}
	}
	source, err := github.NewSource(repo, github.SourceOptions{
		Kind:     v.GetString("source.kind"),
		APIURL:   v.GetString("github.api_url"),
		WebURL:   v.GetString("github.web_url"),
		Token:    keys.ResolveToken(v, tokens),
		MaxPages: v.GetInt("github.max_pages"),
		HTTP:     github.NewHTTPClient(v.GetDuration("github.timeout")),
	})
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	live := config.NewLive(v, opts.Loader)
	return &App{
		Config:    live,
		Log:       logger,
		Cache:     cache,
		State:     st,
		Source:    source,
		Refresher: refresh.New(live, st, source, logger),
		Tokens:    tokens,
	}, nil
}

// Cfg returns the config currently in effect.
func (a *App) Cfg() *viper.Viper { return a.Config.Viper() }

// Close releases the cache.
func (a *App) Close() error {
	if a == nil || a.Cache == nil {
		return nil
	}
	return a.Cache.Close()
}
