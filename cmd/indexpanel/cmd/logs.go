package cmd

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
	"github.com/Aman-CERP/indexpanel/internal/logging"
)

type logsOptions struct {
	follow  bool
	lines   int
	level   string
	filter  string
	logFile string
}

func newLogsCmd(a *app) *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View the indexpanel log file",
		Long: `View and tail the log written by the panel and by --debug runs.

By default, shows the last 50 lines of ~/.indexpanel/logs/indexpanel.log.
Use -f to follow new entries in real time (like 'tail -f').`,
		Example: `  indexpanel logs                  # Show last 50 lines
  indexpanel logs -n 100           # Show last 100 lines
  indexpanel logs -f               # Follow the log
  indexpanel logs --level warn     # Only warnings and errors
  indexpanel logs --filter submit  # Filter by pattern`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoFileLog: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd.Context(), cmd.OutOrStdout(), opts, a.noColor)
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Filter by log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Filter by keyword/pattern (regex)")
	cmd.Flags().StringVar(&opts.logFile, "file", "", "Path to log file")

	return cmd
}

func runLogs(ctx context.Context, out io.Writer, opts logsOptions, noColor bool) error {
	path, err := logging.FindLogFile(opts.logFile)
	if err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		pattern, err = regexp.Compile(opts.filter)
		if err != nil {
			return perrors.ConfigError(fmt.Sprintf("invalid filter pattern %q", opts.filter), err)
		}
	}

	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   opts.level,
		Pattern: pattern,
		NoColor: noColor,
	}, out)

	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)

	if !opts.follow {
		return nil
	}

	followed := make(chan logging.Entry, 64)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(followed)
		return viewer.Follow(ctx, path, followed)
	})
	g.Go(func() error {
		for entry := range followed {
			if _, err := fmt.Fprintln(out, viewer.Format(entry)); err != nil {
				return err
			}
		}
		return nil
	})
	return g.Wait()
}
