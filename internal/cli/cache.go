package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mithrel/changelog/internal/db"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached changelogs",
	}
	cmd.AddCommand(newCacheListCmd())
	cmd.AddCommand(newCacheClearCmd())
	return cmd
}

func newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List repositories with a cached changelog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()
			repos, err := app.Cache.ListRepos(ctx)
			if err != nil {
				return fmt.Errorf("list cache: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(repos) == 0 {
				_, _ = fmt.Fprintln(out, "No cached changelogs.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "repo\tentries\tfetched")
			for _, repo := range repos {
				snap, err := app.Cache.LoadSnapshot(ctx, repo)
				if err != nil {
					return fmt.Errorf("load %s: %w", repo, err)
				}
				_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", repo, len(snap.Entries), humanize.Time(snap.FetchedAt))
			}
			return tw.Flush()
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the cached changelog of the configured repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			ctx := cmd.Context()
			repos := []string{app.Source.Repo().String()}
			if all {
				var err error
				if repos, err = app.Cache.ListRepos(ctx); err != nil {
					return fmt.Errorf("list cache: %w", err)
				}
			}
			for _, repo := range repos {
				err := app.Cache.DeleteSnapshot(ctx, repo)
				if errors.Is(err, db.ErrNotFound) && !all {
					return fmt.Errorf("no cached changelog for %s", repo)
				}
				if err != nil {
					return fmt.Errorf("clear %s: %w", repo, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", repo)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "clear every cached repository")
	return cmd
}
