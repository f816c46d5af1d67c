package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/changelog/internal/changelog"
	"github.com/mithrel/changelog/internal/config"
	"github.com/mithrel/changelog/internal/present"
	"github.com/mithrel/changelog/internal/util"
	"github.com/mithrel/changelog/internal/wire"
)

func newShowCmd() *cobra.Command {
	var outputMode string
	var since string
	var version string
	var forceRefresh bool
	var noHeaders bool
	var body bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the changelog up to your version",
		Long: "Show the newest release notes that are not newer than app_version.\n" +
			"A missing or stale cache is refreshed first; if that fails the cached\n" +
			"changelog is shown with a warning.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			mode, ok := present.ParseMode(strings.ToLower(outputMode))
			if !ok {
				return fmt.Errorf("invalid --output: %s", outputMode)
			}
			now := time.Now()
			sinceT, err := util.ParseSince(since, now)
			if err != nil {
				return err
			}

			ensureFresh(cmd.Context(), app, forceRefresh, now)

			cfg := app.Cfg()
			appVersion := config.ResolveAppVersion(cfg)
			opts := present.Options{
				Mode:       mode,
				JSONIndent: false, // pretty-print via external tools like jq
				Headers:    !noHeaders,
				Body:       body,
				Width:      cfg.GetInt("display.width"),
				Style:      resolveStyle(cmd, cfg),
				AppVersion: appVersion,
				Now:        now,
			}

			st := app.State.State()
			if version != "" {
				e, ok := changelog.Find(st.Changelogs, version)
				if !ok {
					return fmt.Errorf("no changelog for version %s", version)
				}
				return renderEntry(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), e, opts)
			}

			entries := changelog.Visible(st.Changelogs, appVersion, changelog.Options{
				Limit:              cfg.GetInt("display.limit"),
				IncludePrereleases: cfg.GetBool("display.include_prereleases"),
				Since:              sinceT,
			})
			return renderEntries(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), entries, opts)
		},
	}
	cmd.Flags().StringVarP(&outputMode, "output", "o", "pretty", "output mode: "+strings.Join(present.ModeNames, "|"))
	cmd.Flags().String("app-version", "", "compare against this version instead of app_version")
	cmd.Flags().Int("limit", 0, "maximum entries to show (0 uses config)")
	cmd.Flags().Bool("no-prereleases", false, "hide prerelease entries")
	cmd.Flags().String("style", "", "glamour style for pretty/tui output")
	cmd.Flags().Int("width", 0, "word wrap width for pretty output")
	cmd.Flags().StringVar(&since, "since", "", "only entries published after this (e.g. 30d, 2mo, 2024-01-31)")
	cmd.Flags().StringVar(&version, "version", "", "show a single version")
	cmd.Flags().BoolVar(&forceRefresh, "refresh", false, "fetch releases before showing")
	cmd.Flags().BoolVar(&noHeaders, "noheaders", false, "hide column headers (plain/tui)")
	cmd.Flags().BoolVar(&body, "body", false, "include release notes in plain output")
	_ = cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return present.ModeNames, cobra.ShellCompDirectiveNoFileComp
	})
	registerVersionCompletion(cmd, "version")
	registerVersionCompletion(cmd, "app-version")
	return cmd
}

// ensureFresh refreshes when forced or when the cache is missing or stale.
// Failures are logged by the refresher and the cached state is used as is.
func ensureFresh(ctx context.Context, app *wire.App, force bool, now time.Time) {
	if !force && !app.Refresher.Stale(now) {
		return
	}
	if _, err := app.Refresher.RefreshNow(ctx); err != nil && len(app.State.State().Changelogs) > 0 {
		app.Log.WithField("component", "cli").Warn("showing cached changelog")
	}
}

// resolveStyle uses notty when writing to a pipe unless --style was given,
// so redirected output stays free of escape codes.
func resolveStyle(cmd *cobra.Command, v *viper.Viper) string {
	style := strings.TrimSpace(v.GetString("display.style"))
	if cmd.Flags().Changed("style") || isTerminal(cmd.OutOrStdout()) {
		return style
	}
	return "notty"
}
