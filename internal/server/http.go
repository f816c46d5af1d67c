// Package server exposes the cached changelog over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mithrel/changelog/internal/changelog"
	"github.com/mithrel/changelog/internal/config"
	"github.com/mithrel/changelog/internal/present/format"
	"github.com/mithrel/changelog/internal/refresh"
	"github.com/mithrel/changelog/internal/state"
	"github.com/mithrel/changelog/internal/util"
	"github.com/mithrel/changelog/pkg/api"
)

// Refresher triggers an immediate fetch.
type Refresher interface {
	RefreshNow(ctx context.Context) (refresh.Result, error)
}

// Server serves the changelog window backed by a state store.
type Server struct {
	cfg       *config.Live
	state     *state.Store
	refresher Refresher
	log       logrus.FieldLogger
	now       func() time.Time
}

func New(cfg *config.Live, st *state.Store, r Refresher, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		cfg:       cfg,
		state:     st,
		refresher: r,
		log:       log.WithField("component", "http"),
		now:       time.Now,
	}
}

// ChangelogsResponse is the body of GET /v1/changelogs.
type ChangelogsResponse struct {
	AppVersion string      `json:"app_version"`
	FetchedAt  time.Time   `json:"fetched_at"`
	Entries    []api.Entry `json:"entries"`
}

// RefreshResponse is the body of POST /v1/refresh.
type RefreshResponse struct {
	Changed     bool `json:"changed"`
	NotModified bool `json:"not_modified"`
	Fetched     int  `json:"fetched"`
	Kept        int  `json:"kept"`
}

// Router returns an http.Handler with registered routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /v1/changelogs", s.handleList)
	mux.HandleFunc("GET /v1/changelogs/{version}", s.handleShow)
	mux.HandleFunc("GET /changelog", s.handlePage)
	mux.HandleFunc("POST /v1/refresh", s.auth(s.handleRefresh))
	return otelhttp.NewHandler(requestLogger(s.log, mux), "changelog")
}

// auth requires the configured bearer token. An empty auth.token leaves the
// route open.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimSpace(s.cfg.Viper().GetString("auth.token"))
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(tok)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// window applies query overrides on top of the display config. It returns
// the app version used as the upper bound.
func (s *Server) window(r *http.Request, st state.State) ([]api.Entry, string, error) {
	cfg := s.cfg.Viper()
	q := r.URL.Query()
	version := strings.TrimSpace(q.Get("version"))
	if version == "" {
		version = config.ResolveAppVersion(cfg)
	}
	opts := changelog.Options{
		Limit:              cfg.GetInt("display.limit"),
		IncludePrereleases: cfg.GetBool("display.include_prereleases"),
	}
	if ls := strings.TrimSpace(q.Get("limit")); ls != "" {
		n, err := strconv.Atoi(ls)
		if err != nil || n <= 0 {
			return nil, "", errors.New("bad limit")
		}
		opts.Limit = n
	}
	if ps := strings.TrimSpace(q.Get("prereleases")); ps != "" {
		b, err := strconv.ParseBool(ps)
		if err != nil {
			return nil, "", errors.New("bad prereleases")
		}
		opts.IncludePrereleases = b
	}
	if ss := strings.TrimSpace(q.Get("since")); ss != "" {
		since, err := util.ParseSince(ss, s.now())
		if err != nil {
			return nil, "", errors.New("bad since")
		}
		opts.Since = since
	}
	return changelog.Visible(st.Changelogs, version, opts), version, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	st := s.state.State()
	entries, version, err := s.window(r, st)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	etag := `"` + api.HashWindow(version, st.FetchedAt, entries) + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if entries == nil {
		entries = []api.Entry{}
	}
	writeJSON(w, http.StatusOK, ChangelogsResponse{
		AppVersion: version,
		FetchedAt:  st.FetchedAt,
		Entries:    entries,
	})
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	version := r.PathValue("version")
	e, ok := changelog.Find(s.state.State().Changelogs, version)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := format.WriteHTMLEntry(w, e, s.now()); err != nil {
			s.log.WithError(err).WithField("version", version).Warn("render changelog")
		}
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	entries, version, err := s.window(r, s.state.State())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !changelog.Valid(version) {
		version = ""
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := format.WriteHTMLEntries(w, entries, format.HTMLOptions{AppVersion: version, Now: s.now()}); err != nil {
		s.log.WithError(err).Warn("render changelog page")
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		http.Error(w, "refresh unavailable", http.StatusServiceUnavailable)
		return
	}
	res, err := s.refresher.RefreshNow(r.Context())
	if err != nil {
		http.Error(w, "refresh failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{
		Changed:     res.Changed,
		NotModified: res.NotModified,
		Fetched:     res.Fetched,
		Kept:        res.Kept,
	})
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
