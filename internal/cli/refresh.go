package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch releases and update the cached changelog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			res, err := app.Refresher.RefreshNow(cmd.Context())
			if err != nil {
				return fmt.Errorf("refresh %s: %w", app.Source.Repo(), err)
			}
			out := cmd.OutOrStdout()
			switch {
			case res.NotModified:
				_, _ = fmt.Fprintf(out, "unchanged (not modified, %d entries cached)\n", res.Kept)
			case res.Changed:
				_, _ = fmt.Fprintf(out, "updated: %d entries from %d releases\n", res.Kept, res.Fetched)
			default:
				_, _ = fmt.Fprintf(out, "unchanged (%d entries)\n", res.Kept)
			}
			return nil
		},
	}
	return cmd
}
