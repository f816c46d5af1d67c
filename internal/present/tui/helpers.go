package tui

import (
	"time"

	"github.com/mithrel/changelog/pkg/api"
)

func prereleaseLabel(e api.Entry) string {
	if e.Prerelease {
		return "pre"
	}
	return ""
}

func publishedLabel(e api.Entry) string {
	if e.PublishedAt.IsZero() {
		return "-"
	}
	return e.PublishedAt.Local().Format(time.DateOnly)
}
