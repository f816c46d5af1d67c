package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xml:lang="en-US">
  <id>tag:github.com,2008:https://github.com/owner/repo/releases</id>
  <title>Release notes from repo</title>
  <updated>2024-05-02T10:00:00Z</updated>
  <entry>
    <id>tag:github.com,2008:Repository/1/v1.2.0</id>
    <updated>2024-05-02T10:00:00Z</updated>
    <link rel="alternate" type="text/html" href="https://github.com/owner/repo/releases/tag/v1.2.0"/>
    <title>1.2.0</title>
    <content type="html">&lt;h2&gt;Fixes&lt;/h2&gt;&lt;ul&gt;&lt;li&gt;crash on start&lt;/li&gt;&lt;/ul&gt;</content>
  </entry>
  <entry>
    <id>tag:github.com,2008:Repository/1/v1.1.0</id>
    <updated>2024-04-01T10:00:00Z</updated>
    <link rel="alternate" type="text/html" href="https://github.com/owner/repo/releases/tag/v1.1.0"/>
    <title>Spring update</title>
    <content type="html">&lt;p&gt;older&lt;/p&gt;</content>
  </entry>
</feed>`

func TestFeedReleases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/owner/repo/releases.atom" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("If-None-Match") == `"f1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"f1"`)
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(atomFeed))
	}))
	defer srv.Close()

	c := NewFeedClient(srv.URL, srv.Client())
	repo := Repo{Owner: "owner", Name: "repo"}
	rs, etag, err := c.Releases(context.Background(), repo, "")
	require.NoError(t, err)
	assert.Equal(t, `"f1"`, etag)
	require.Len(t, rs, 2)

	assert.Equal(t, "v1.2.0", rs[0].TagName)
	assert.Equal(t, "1.2.0", rs[0].Name)
	assert.Contains(t, rs[0].Body, "- crash on start")
	assert.False(t, rs[0].PublishedAt.IsZero())
	assert.Equal(t, "v1.1.0", rs[1].TagName)
	assert.False(t, rs[1].Prerelease)

	_, _, err = c.Releases(context.Background(), repo, `"f1"`)
	assert.ErrorIs(t, err, ErrNotModified)

	_, _, err = c.Releases(context.Background(), Repo{Owner: "x", Name: "y"}, "")
	assert.ErrorIs(t, err, ErrNotFound)
}
