package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mithrel/changelog/internal/config"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "changelog-cli "+config.BuildVersion())
			return err
		},
	}
}
