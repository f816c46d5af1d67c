package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const appName = "changelog"

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
// The provided Viper instance is mutated with defaults, file contents, and env.
func Load(ctx context.Context, v *viper.Viper) error {
	// An explicit SetConfigFile upstream wins; these are fallbacks.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, appName))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appName))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	// Read config file if present; a broken file is an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	// Environment variables: CHANGELOG_* (highest among these sources)
	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("github.token", "CHANGELOG_GITHUB_TOKEN", "GITHUB_TOKEN")

	if v.GetString("data_dir") == "" {
		v.Set("data_dir", defaultDataDir())
	}
	if strings.TrimSpace(v.GetString("repo")) == "" {
		v.Set("repo", DefaultRepo)
	}
	return nil
}

// defaultDataDir resolves default data dir: $XDG_DATA_HOME/changelog or ~/.local/share/changelog
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, appName, "config.toml")
}

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

const DefaultRepo = "Nexus-Mods/Vortex"

// GetConfigOptions returns the default configuration options and their meanings.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; cache is data_dir/changelog.db"},
		{Key: "repo", Default: DefaultRepo, Comment: "GitHub repository (owner/name) whose releases make up the changelog"},
		{Key: "app_version", Default: "", Comment: "Version entries are compared against; empty uses the running binary's version"},
		{Key: "http_addr", Default: ":7465", Comment: "HTTP listen address for serve"},

		{Key: "source.kind", Default: "api", Comment: "Release source: api (REST, has prerelease flags) or atom (releases feed, no token needed)"},

		{Key: "github.api_url", Default: "https://api.github.com", Comment: "GitHub REST API base URL"},
		{Key: "github.web_url", Default: "https://github.com", Comment: "GitHub web base URL used for the atom feed"},
		{Key: "github.token", Default: "", Comment: "API token; GITHUB_TOKEN or the keyring (auth set-token) also work"},
		{Key: "github.max_pages", Default: 5, Comment: "Maximum release pages (100 per page) fetched per refresh"},
		{Key: "github.timeout", Default: "20s", Comment: "HTTP timeout for release requests"},

		{Key: "display.limit", Default: 10, Comment: "Number of changelog entries shown"},
		{Key: "display.include_prereleases", Default: true, Comment: "Show prerelease entries up to the current version"},
		{Key: "display.style", Default: "dracula", Comment: "glamour style for pretty/tui output (auto, dark, light, dracula, notty)"},
		{Key: "display.width", Default: 80, Comment: "Word wrap width for pretty output"},

		{Key: "refresh.interval", Default: "6h", Comment: "Background refresh interval for serve"},
		{Key: "refresh.max_age", Default: "24h", Comment: "Cached changelogs older than this are refetched by show"},
		{Key: "refresh.on_start", Default: true, Comment: "Refresh immediately when serve starts"},

		{Key: "auth.token", Default: "", Comment: "Bearer token required for POST /v1/refresh; empty disables the check"},
		{Key: "log.level", Default: "info", Comment: "Log level: debug, info, warn, error"},
	}
}

// ResolveDBPath returns the sqlite cache path under data_dir.
func ResolveDBPath(v *viper.Viper) string {
	dir := v.GetString("data_dir")
	if dir == "" {
		dir = defaultDataDir()
	}
	// Expand ~ for convenience
	if len(dir) > 0 && dir[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[1:])
		}
	}
	return filepath.Join(dir, "changelog.db")
}
