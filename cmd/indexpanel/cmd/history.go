package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexpanel/internal/history"
	"github.com/Aman-CERP/indexpanel/internal/output"
	"github.com/Aman-CERP/indexpanel/internal/ui"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
		clearAll   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent submissions",
		Long: `Show recorded submissions, newest first.

Every submission that reached the backend is recorded with its schema, index,
result and duration. Use --limit 0 to show all of them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			out := output.New(cmd.OutOrStdout())
			if !cfg.History.IsEnabled() {
				out.Warning("History is disabled (history.enabled: false).")
				return nil
			}

			store, err := history.Open(cfg.History.Path, history.DefaultMaxEntries)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if clearAll {
				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				out.Success("History cleared.")
				return nil
			}

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			r := ui.NewTableRenderer(cmd.OutOrStdout(), cfg.UI.NoColor)
			if jsonOutput {
				if entries == nil {
					entries = []history.Entry{}
				}
				return r.RenderJSON(entries)
			}
			return r.RenderHistory(entries)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of submissions to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete all recorded submissions")

	return cmd
}
