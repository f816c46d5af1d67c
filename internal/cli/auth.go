package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mithrel/changelog/internal/keys"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the GitHub token kept in the system keyring",
	}
	cmd.AddCommand(newAuthSetTokenCmd())
	cmd.AddCommand(newAuthDeleteTokenCmd())
	return cmd
}

func newAuthSetTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "set-token [token]",
		Short:       "Store a GitHub token (reads stdin when no argument is given)",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var tok string
			if len(args) == 1 {
				tok = args[0]
			} else {
				var err error
				tok, err = readToken(cmd)
				if err != nil {
					return err
				}
			}
			tok = strings.TrimSpace(tok)
			if tok == "" {
				return errors.New("empty token")
			}
			store := &keys.KeyringStore{}
			if err := store.Put(keys.DefaultAccount, tok); err != nil {
				return fmt.Errorf("store token: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Token stored in keyring")
			return nil
		},
	}
}

func newAuthDeleteTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "delete-token",
		Short:       "Remove the stored GitHub token",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			store := &keys.KeyringStore{}
			if err := store.Delete(keys.DefaultAccount); err != nil {
				return fmt.Errorf("delete token: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Token removed from keyring")
			return nil
		},
	}
}

// readToken prompts without echo on a terminal, otherwise reads one line.
func readToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "GitHub token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return line, nil
}
