package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mithrel/changelog/pkg/api"
)

const (
	SourceAPI  = "api"
	SourceAtom = "atom"
)

// Source fetches the release list for one repository.
type Source interface {
	Fetch(ctx context.Context, etag string) ([]api.Release, string, error)
	Repo() Repo
}

type releaseLister interface {
	Releases(ctx context.Context, repo Repo, etag string) ([]api.Release, string, error)
}

type repoSource struct {
	lister releaseLister
	repo   Repo
}

func (s repoSource) Fetch(ctx context.Context, etag string) ([]api.Release, string, error) {
	return s.lister.Releases(ctx, s.repo, etag)
}

func (s repoSource) Repo() Repo { return s.repo }

// SourceOptions selects and configures a Source.
type SourceOptions struct {
	Kind     string
	APIURL   string
	WebURL   string
	Token    string
	MaxPages int
	HTTP     *http.Client
}

// NewSource returns the Source named by opts.Kind ("api" when empty).
func NewSource(repo Repo, opts SourceOptions) (Source, error) {
	switch opts.Kind {
	case "", SourceAPI:
		c := NewClient(opts.APIURL, opts.Token, opts.HTTP)
		if opts.MaxPages > 0 {
			c.MaxPages = opts.MaxPages
		}
		return repoSource{lister: c, repo: repo}, nil
	case SourceAtom:
		return repoSource{lister: NewFeedClient(opts.WebURL, opts.HTTP), repo: repo}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q (want %s|%s)", opts.Kind, SourceAPI, SourceAtom)
	}
}
