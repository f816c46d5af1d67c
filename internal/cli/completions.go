package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mithrel/changelog/internal/changelog"
	"github.com/mithrel/changelog/internal/util"
	"github.com/mithrel/changelog/internal/wire"
)

const maxVersionCompletions = 20

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate shell completion scripts",
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		DisableFlagsInUseLine: true,
		Annotations:           map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}
	return cmd
}

// registerVersionCompletion completes flag with cached versions, fuzzy
// matched against what was typed so far. It never touches the network.
func registerVersionCompletion(cmd *cobra.Command, flag string) {
	_ = cmd.RegisterFlagCompletionFunc(flag, func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfgPath, _ := cmd.Flags().GetString("config")
		v, err := loadConfig(cmd.Context(), cmd, cfgPath)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		app, err := wire.BuildApp(cmd.Context(), v, wire.Options{LogOutput: cmd.ErrOrStderr()})
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		defer app.Close()
		entries := changelog.Sorted(app.State.State().Changelogs)
		return util.ScoreCompletions(toComplete, changelog.Versions(entries), maxVersionCompletions), cobra.ShellCompDirectiveNoFileComp
	})
}
