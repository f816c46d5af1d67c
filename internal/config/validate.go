package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/mithrel/changelog/internal/changelog"
	"github.com/mithrel/changelog/internal/github"
)

// CheckConfigValidity reports every problem found in v as a single error.
func CheckConfigValidity(v *viper.Viper) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(v.GetString("data_dir")) == "" {
		add("data_dir is required")
	}
	if _, err := github.ParseRepo(v.GetString("repo")); err != nil {
		add("repo must be owner/name")
	}
	if av := strings.TrimSpace(v.GetString("app_version")); av != "" && !changelog.Valid(av) {
		add("app_version %q is not a semantic version", av)
	}

	switch kind := v.GetString("source.kind"); kind {
	case github.SourceAPI, github.SourceAtom:
	default:
		add("source.kind must be %s or %s, got %q", github.SourceAPI, github.SourceAtom, kind)
	}
	for _, key := range []string{"github.api_url", "github.web_url"} {
		if raw := strings.TrimSpace(v.GetString(key)); raw != "" {
			if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
				add("%s is not a valid url", key)
			}
		}
	}
	if v.GetInt("github.max_pages") <= 0 {
		add("github.max_pages must be greater than 0")
	}
	checkDuration(v, "github.timeout", time.Second, add)

	if v.GetInt("display.limit") <= 0 {
		add("display.limit must be greater than 0")
	}
	if v.GetInt("display.width") < 20 {
		add("display.width must be at least 20")
	}

	checkDuration(v, "refresh.interval", time.Minute, add)
	checkDuration(v, "refresh.max_age", time.Minute, add)

	if _, err := logrus.ParseLevel(v.GetString("log.level")); err != nil {
		add("log.level %q is not a valid level", v.GetString("log.level"))
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config:\n  - %s", strings.Join(problems, "\n  - "))
}

func checkDuration(v *viper.Viper, key string, min time.Duration, add func(string, ...any)) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		add("%s must be a duration like 6h or 30m", key)
		return
	}
	if d < min {
		add("%s must be at least %s", key, min)
	}
}
