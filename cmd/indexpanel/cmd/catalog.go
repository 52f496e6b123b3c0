package cmd

import (
	"github.com/spf13/cobra"

	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
	"github.com/Aman-CERP/indexpanel/internal/ui"
	"github.com/Aman-CERP/indexpanel/internal/workflow"
)

func newSchemasCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List the schemas on the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := a.newCatalog()
			if err != nil {
				return err
			}
			names, err := catalog.Schemas(cmd.Context())
			if err != nil {
				return err
			}

			r := ui.NewTableRenderer(cmd.OutOrStdout(), a.cfg.UI.NoColor)
			if jsonOutput {
				return r.RenderJSON(orEmpty(names))
			}
			return r.RenderNames("schemas", names)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newIndexesCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "indexes [SCHEMA]",
		Short: "List the indexes of a schema",
		Long:  `List the indexes of SCHEMA, or of the schema selected by --schema or defaults.schema.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.newCatalog()
			if err != nil {
				return err
			}
			sel := a.selection(args...)
			if sel.Schema == "" {
				return perrors.New(perrors.ErrCodeMissingSchema, workflow.ErrMissingSchema.Message, nil)
			}
			names, err := catalog.Indexes(cmd.Context(), sel.Schema)
			if err != nil {
				return err
			}

			r := ui.NewTableRenderer(cmd.OutOrStdout(), a.cfg.UI.NoColor)
			if jsonOutput {
				return r.RenderJSON(orEmpty(names))
			}
			return r.RenderNames("indexes in "+sel.Schema, names)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newFieldsCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "fields [SCHEMA] [INDEX]",
		Short: "Show the field table of an index",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.newCatalog()
			if err != nil {
				return err
			}
			sel := a.selection(args...)
			if err := workflow.CheckSelection(sel); err != nil {
				return err
			}
			fields, err := catalog.Fields(cmd.Context(), sel.Schema, sel.Index)
			if err != nil {
				return err
			}

			r := ui.NewTableRenderer(cmd.OutOrStdout(), a.cfg.UI.NoColor)
			if jsonOutput {
				if fields == nil {
					return r.RenderJSON([]any{})
				}
				return r.RenderJSON(fields)
			}
			return r.RenderFields(sel.Schema, sel.Index, fields)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func orEmpty(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
