package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mithrel/changelog/internal/config"
	"github.com/mithrel/changelog/internal/wire"
)

type ctxKey string

const appKey ctxKey = "app"

// skipApp marks commands that run without a wired App (no cache, no config
// validation), so they keep working on a broken config.
const skipApp = "skip-app"

// Execute is the entrypoint: it builds the root cobra.Command
// and calls its Execute() method to run the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the Cobra root command and wires dependencies.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "changelog-cli",
		Short:         "Release notes for the version you run",
		SilenceUsage:  true, // don't show usage on runtime errors
		SilenceErrors: true, // let main print errors once
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipApp] == "true" {
				return nil
			}
			v, err := loadConfig(cmd.Context(), cmd, cfgPath)
			if err != nil {
				return err
			}
			if err := config.CheckConfigValidity(v); err != nil {
				return err
			}
			// Reloads keep the same file and flag overrides.
			loader := func(ctx context.Context) (*viper.Viper, error) {
				return loadConfig(ctx, cmd, cfgPath)
			}
			// Wire up the app and stash it in context for subcommands.
			app, err := wire.BuildApp(cmd.Context(), v, wire.Options{LogOutput: cmd.ErrOrStderr(), Loader: loader})
			if err != nil {
				return err
			}
			ctx := context.WithValue(cmd.Context(), appKey, app)
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app, ok := cmd.Context().Value(appKey).(*wire.App); ok {
				return app.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (toml)")
	cmd.PersistentFlags().String("repo", "", "GitHub repository (owner/name); overrides config")

	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newRefreshCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCacheCmd())
	cmd.AddCommand(newAuthCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newCompletionCmd())
	cmd.AddCommand(newVersionCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

// loadConfig resolves config for the invoked command and applies its flag
// overrides.
func loadConfig(ctx context.Context, cmd *cobra.Command, cfgPath string) (*viper.Viper, error) {
	v := viper.New()
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	}
	if err := config.Load(ctx, v); err != nil {
		return nil, err
	}
	applyConfigFlagOverrides(cmd, v, flagConfigKeys)
	return v, nil
}

func getApp(cmd *cobra.Command) *wire.App {
	v := cmd.Context().Value(appKey)
	if v == nil {
		fmt.Fprintln(os.Stderr, "internal error: app not initialized")
		os.Exit(1)
	}
	return v.(*wire.App)
}
