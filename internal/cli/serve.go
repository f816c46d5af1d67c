package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mithrel/changelog/internal/daemon"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the changelog over HTTP and refresh it in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd) // initialized via PersistentPreRunE
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving changelog for %s on %s\n", app.Source.Repo(), app.Cfg().GetString("http_addr"))
			return daemon.Run(ctx, app)
		},
	}
	cmd.Flags().String("listen", "", "listen address (overrides http_addr)")
	return cmd
}
