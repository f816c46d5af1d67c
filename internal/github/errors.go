package github

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotModified reports that the upstream list matches the given ETag.
	ErrNotModified = errors.New("not modified")
	ErrNotFound    = errors.New("repository not found")
	ErrRateLimited = errors.New("rate limited")
)

// StatusError is an unexpected non-2xx response.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if len(msg) > 200 {
		msg = msg[:200] + "…"
	}
	if msg == "" {
		return fmt.Sprintf("GET %s: status %d", e.URL, e.Code)
	}
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.Code, msg)
}

// RateLimitError carries the time the quota resets. It matches ErrRateLimited.
type RateLimitError struct {
	Reset time.Time
}

func (e *RateLimitError) Error() string {
	if e.Reset.IsZero() {
		return "github rate limit exceeded"
	}
	return fmt.Sprintf("github rate limit exceeded; resets at %s", e.Reset.Local().Format(time.Kitchen))
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }
