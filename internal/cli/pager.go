package cli

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"

	"github.com/mithrel/changelog/internal/present"
	"github.com/mithrel/changelog/pkg/api"
)

const defaultPager = "less -FRSX"

func renderEntries(ctx context.Context, out, errOut io.Writer, entries []api.Entry, opts present.Options) error {
	return paged(ctx, out, errOut, opts.Mode, func(w io.Writer) error {
		return present.RenderChangelogs(ctx, w, entries, opts)
	})
}

func renderEntry(ctx context.Context, out, errOut io.Writer, entry api.Entry, opts present.Options) error {
	return paged(ctx, out, errOut, opts.Mode, func(w io.Writer) error {
		return present.RenderChangelog(ctx, w, entry, opts)
	})
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// pagerCommand picks CHANGELOG_PAGER, then PAGER, then less. An explicit
// empty CHANGELOG_PAGER or "cat" turns paging off.
func pagerCommand() string {
	if p, ok := os.LookupEnv("CHANGELOG_PAGER"); ok {
		return strings.TrimSpace(p)
	}
	if p := strings.TrimSpace(os.Getenv("PAGER")); p != "" {
		return p
	}
	return defaultPager
}

// paged sends human readable output on a terminal through the pager. The
// TUI owns the screen and machine formats are written as is.
func paged(ctx context.Context, out, errOut io.Writer, mode present.Mode, write func(io.Writer) error) error {
	switch mode {
	case present.ModePretty, present.ModePlain:
	default:
		return write(out)
	}
	pager := pagerCommand()
	if pager == "" || pager == "cat" || !isTerminal(out) {
		return write(out)
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", pager)
	cmd.Stdout = out
	cmd.Stderr = os.Stderr
	if f, ok := errOut.(*os.File); ok {
		cmd.Stderr = f
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return write(out)
	}
	if err := cmd.Start(); err != nil {
		return write(out)
	}
	writeErr := write(stdin)
	_ = stdin.Close()
	if err := cmd.Wait(); err != nil && writeErr == nil {
		return err
	}
	return writeErr
}
