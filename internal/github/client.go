// Package github fetches release lists from GitHub, either through the REST
// API or the public releases Atom feed.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mithrel/changelog/pkg/api"
)

const (
	DefaultAPIURL   = "https://api.github.com"
	DefaultMaxPages = 5
	perPage         = 100
	userAgent       = "changelog-cli"
)

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string { return r.Owner + "/" + r.Name }

// ParseRepo parses "owner/name".
func ParseRepo(s string) (Repo, error) {
	s = strings.Trim(strings.TrimSpace(s), "/")
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repo{}, fmt.Errorf("invalid repo %q: want owner/name", s)
	}
	return Repo{Owner: parts[0], Name: parts[1]}, nil
}

// NewHTTPClient returns an instrumented client with the given timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Client talks to the GitHub REST API.
type Client struct {
	BaseURL  string
	Token    string
	MaxPages int
	HTTP     *http.Client
}

// NewClient returns a Client for baseURL ("" means api.github.com).
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Token:    strings.TrimSpace(token),
		MaxPages: DefaultMaxPages,
		HTTP:     httpClient,
	}
}

// Releases lists releases for repo, newest first as GitHub returns them.
// When etag matches the first page, ErrNotModified is returned. The returned
// ETag belongs to the first page.
func (c *Client) Releases(ctx context.Context, repo Repo, etag string) ([]api.Release, string, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))
	next := fmt.Sprintf("%s/repos/%s/%s/releases?%s", c.BaseURL, url.PathEscape(repo.Owner), url.PathEscape(repo.Name), q.Encode())

	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var out []api.Release
	var firstETag string
	for page := 0; page < maxPages && next != ""; page++ {
		ifNoneMatch := ""
		if page == 0 {
			ifNoneMatch = etag
		}
		resp, err := c.get(ctx, next, ifNoneMatch)
		if err != nil {
			return nil, "", err
		}
		var batch []api.Release
		err = func() error {
			defer resp.Body.Close()
			if err := checkResponse(resp, next); err != nil {
				return err
			}
			if page == 0 {
				firstETag = resp.Header.Get("ETag")
			}
			if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
				return fmt.Errorf("decode releases: %w", err)
			}
			next = nextLink(resp.Header.Get("Link"))
			return nil
		}()
		if err != nil {
			return nil, "", err
		}
		out = append(out, batch...)
	}
	return out, firstETag, nil
}

func (c *Client) get(ctx context.Context, u, ifNoneMatch string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", userAgent)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if ifNoneMatch != "" {
		req.Header.Set("If-None-Match", ifNoneMatch)
	}
	return c.HTTP.Do(req)
}

// checkResponse maps non-success statuses to package errors.
func checkResponse(resp *http.Response, u string) error {
	switch {
	case resp.StatusCode == http.StatusNotModified:
		return ErrNotModified
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", u, ErrNotFound)
	case (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests) &&
		resp.Header.Get("X-RateLimit-Remaining") == "0":
		rl := &RateLimitError{}
		if n, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
			rl.Reset = time.Unix(n, 0)
		}
		return rl
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Code: resp.StatusCode, URL: u, Body: string(body)}
	}
}

// nextLink extracts the rel="next" target from an RFC 8288 Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segs := strings.Split(part, ";")
		if len(segs) < 2 {
			continue
		}
		target := strings.TrimSpace(segs[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, p := range segs[1:] {
			p = strings.TrimSpace(p)
			if p == `rel="next"` || p == "rel=next" {
				return target[1 : len(target)-1]
			}
		}
	}
	return ""
}
