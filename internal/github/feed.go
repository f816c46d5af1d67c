package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/mithrel/changelog/internal/render"
	"github.com/mithrel/changelog/pkg/api"
)

// DefaultWebURL hosts the public releases feed.
const DefaultWebURL = "https://github.com"

// FeedClient reads the unauthenticated releases Atom feed. The feed is not
// rate limited like the API, but it carries no prerelease flag and only the
// most recent releases.
type FeedClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewFeedClient returns a FeedClient for baseURL ("" means github.com).
func NewFeedClient(baseURL string, httpClient *http.Client) *FeedClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultWebURL
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	return &FeedClient{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

// Releases parses the releases feed for repo.
func (c *FeedClient) Releases(ctx context.Context, repo Repo, etag string) ([]api.Release, string, error) {
	u := fmt.Sprintf("%s/%s/%s/releases.atom", c.BaseURL, url.PathEscape(repo.Owner), url.PathEscape(repo.Name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/atom+xml")
	req.Header.Set("User-Agent", userAgent)
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if err := checkResponse(resp, u); err != nil {
		return nil, "", err
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("parse feed: %w", err)
	}
	out := make([]api.Release, 0, len(feed.Items))
	for _, it := range feed.Items {
		out = append(out, releaseFromItem(it))
	}
	return out, resp.Header.Get("ETag"), nil
}

func releaseFromItem(it *gofeed.Item) api.Release {
	r := api.Release{
		Name:    strings.TrimSpace(it.Title),
		HTMLURL: it.Link,
	}
	// Links look like https://github.com/o/r/releases/tag/v1.2.3
	if it.Link != "" {
		if lu, err := url.Parse(it.Link); err == nil {
			if tag, err := url.PathUnescape(path.Base(lu.Path)); err == nil {
				r.TagName = tag
			}
		}
	}
	content := it.Content
	if content == "" {
		content = it.Description
	}
	if content != "" {
		if text, err := render.TextFromHTML(content); err == nil {
			r.Body = text
		}
	}
	switch {
	case it.PublishedParsed != nil:
		r.PublishedAt = it.PublishedParsed.UTC()
	case it.UpdatedParsed != nil:
		r.PublishedAt = it.UpdatedParsed.UTC()
	}
	return r
}
