package config

import (
	"runtime/debug"
	"strings"

	"github.com/spf13/viper"
)

// Version is stamped at build time with
// -ldflags "-X github.com/mithrel/changelog/internal/config.Version=1.2.3".
var Version = "dev"

// BuildVersion returns the stamped version, falling back to the module
// version recorded by go install.
func BuildVersion() string {
	if Version != "dev" && Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}

// ResolveAppVersion returns the version changelog entries are compared
// against: app_version when set, otherwise the binary's own version.
func ResolveAppVersion(v *viper.Viper) string {
	if av := strings.TrimSpace(v.GetString("app_version")); av != "" {
		return av
	}
	return BuildVersion()
}
