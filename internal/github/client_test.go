package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/changelog/pkg/api"
)

func releasesServer(t *testing.T, pages [][]api.Release) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/releases" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			page, _ = strconv.Atoi(p)
		}
		if page < len(pages) {
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/owner/repo/releases?per_page=100&page=%d>; rel="next", <%s/x>; rel="last"`, srv.URL, page+1, srv.URL))
		}
		w.Header().Set("ETag", `"v1"`)
		_ = json.NewEncoder(w).Encode(pages[page-1])
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestReleasesPaginates(t *testing.T) {
	srv := releasesServer(t, [][]api.Release{
		{{TagName: "v1.2.0", Body: "b"}, {TagName: "v1.1.0"}},
		{{TagName: "v1.0.0"}},
	})
	c := NewClient(srv.URL, "", srv.Client())

	rs, etag, err := c.Releases(context.Background(), Repo{Owner: "owner", Name: "repo"}, "")
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, etag)
	require.Len(t, rs, 3)
	assert.Equal(t, "v1.0.0", rs[2].TagName)
}

func TestReleasesMaxPages(t *testing.T) {
	srv := releasesServer(t, [][]api.Release{
		{{TagName: "v3.0.0"}},
		{{TagName: "v2.0.0"}},
		{{TagName: "v1.0.0"}},
	})
	c := NewClient(srv.URL, "", srv.Client())
	c.MaxPages = 2

	rs, _, err := c.Releases(context.Background(), Repo{Owner: "owner", Name: "repo"}, "")
	require.NoError(t, err)
	assert.Len(t, rs, 2)
}

func TestReleasesNotModified(t *testing.T) {
	srv := releasesServer(t, [][]api.Release{{{TagName: "v1.0.0"}}})
	c := NewClient(srv.URL, "", srv.Client())

	_, _, err := c.Releases(context.Background(), Repo{Owner: "owner", Name: "repo"}, `"v1"`)
	assert.ErrorIs(t, err, ErrNotModified)
}

func TestReleasesSendsToken(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, " secret ", srv.Client())
	_, _, err := c.Releases(context.Background(), Repo{Owner: "o", Name: "r"}, "")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
}

func TestReleasesErrors(t *testing.T) {
	reset := time.Now().Add(time.Hour).Truncate(time.Second)
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) },
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
				w.WriteHeader(http.StatusForbidden)
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrRateLimited)
				var rl *RateLimitError
				require.True(t, errors.As(err, &rl))
				assert.True(t, reset.Equal(rl.Reset))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusBadGateway, se.Code)
				assert.Contains(t, se.Error(), "boom")
			},
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{not json"))
			},
			check: func(t *testing.T, err error) { assert.ErrorContains(t, err, "decode releases") },
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			c := NewClient(srv.URL, "", srv.Client())
			_, _, err := c.Releases(context.Background(), Repo{Owner: "o", Name: "r"}, "")
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestNextLink(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{`<https://a/x?page=2>; rel="next", <https://a/x?page=5>; rel="last"`, "https://a/x?page=2"},
		{`<https://a/x?page=1>; rel="prev"`, ""},
		{`<https://a/x?page=3>; rel=next`, "https://a/x?page=3"},
		{`garbage; rel="next"`, ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, nextLink(tc.in), tc.in)
	}
}

func TestParseRepo(t *testing.T) {
	r, err := ParseRepo(" Nexus-Mods/Vortex/ ")
	require.NoError(t, err)
	assert.Equal(t, Repo{Owner: "Nexus-Mods", Name: "Vortex"}, r)
	assert.Equal(t, "Nexus-Mods/Vortex", r.String())

	for _, bad := range []string{"", "vortex", "a/b/c", "/b"} {
		_, err := ParseRepo(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewSource(t *testing.T) {
	repo := Repo{Owner: "o", Name: "r"}
	s, err := NewSource(repo, SourceOptions{})
	require.NoError(t, err)
	assert.Equal(t, repo, s.Repo())

	_, err = NewSource(repo, SourceOptions{Kind: SourceAtom})
	require.NoError(t, err)

	_, err = NewSource(repo, SourceOptions{Kind: "rss"})
	assert.Error(t, err)
}
