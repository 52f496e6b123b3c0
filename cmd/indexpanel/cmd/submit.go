package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexpanel/internal/document"
	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
	"github.com/Aman-CERP/indexpanel/internal/output"
	"github.com/Aman-CERP/indexpanel/internal/ui"
	"github.com/Aman-CERP/indexpanel/internal/workflow"
)

func newSubmitCmd(a *app) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "submit [FILE|-]",
		Short: "Submit a JSON document without the panel",
		Long: `Submit validates FILE (or stdin when FILE is '-' or omitted), pretty-prints
it and sends it to the selected schema and index.

Transitions are printed as plain lines. The exit status is non-zero when the
selection is incomplete, the document is not valid JSON or the backend fails.`,
		Example: `  indexpanel submit --schema shop --index products doc.json
  cat doc.json | indexpanel submit --schema shop --index products -
  indexpanel submit --write doc.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return a.runSubmit(cmd, path, write)
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the pretty-printed document back to FILE")

	return cmd
}

func (a *app) runSubmit(cmd *cobra.Command, path string, write bool) error {
	if _, err := a.config(); err != nil {
		return err
	}

	var (
		doc *document.File
		err error
	)
	if path == "-" {
		if write {
			return perrors.New(perrors.ErrCodeFileNotFound, "--write needs a file, not stdin", nil)
		}
		doc, err = document.Read(cmd.InOrStdin())
	} else {
		doc, err = document.Open(path)
	}
	if err != nil {
		return err
	}

	ctrl, release, err := a.newController()
	if err != nil {
		return err
	}
	defer release()

	renderer := ui.NewRenderer(a.uiConfig(cmd.OutOrStdout()))
	outcome, err := submitOnce(cmd.Context(), ctrl, a.selection(), doc, renderer)
	if err != nil {
		return err
	}

	// The document was valid, so the canonical text is kept whatever the
	// backend answered.
	if write && doc.Modified() {
		if err := doc.Save(cmd.Context()); err != nil {
			return err
		}
		output.New(cmd.ErrOrStderr()).Successf("Wrote %s", path)
	}

	if !outcome.Succeeded() {
		return outcome.Err
	}
	renderer.Complete(outcome)
	return nil
}

// submitOnce runs one submission and streams its transitions to renderer.
// A selection or parse failure is returned as the error; otherwise the
// outcome is returned once the terminal state has been rendered.
func submitOnce(ctx context.Context, ctrl *workflow.Controller, sel workflow.Selection,
	buf workflow.Buffer, renderer ui.Renderer) (workflow.Outcome, error) {
	states, stop := ctrl.Subscribe()
	defer stop()

	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		for st := range states {
			renderer.Update(st)
			if st.Phase == workflow.PhaseSucceeded || st.Phase == workflow.PhaseFailed {
				return
			}
		}
	}()

	pending, err := ctrl.Submit(ctx, sel, buf)
	if err != nil {
		stop()
		<-rendered
		return workflow.Outcome{}, err
	}

	outcome := pending.Result()
	<-rendered
	return outcome, nil
}
