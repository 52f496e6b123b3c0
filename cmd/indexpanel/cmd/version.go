package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexpanel/internal/output"
	"github.com/Aman-CERP/indexpanel/pkg/version"
)

// versionReport is the --json output: build info plus what the backend sees.
type versionReport struct {
	version.BuildInfo
	UserAgent string `json:"user_agent"`
	Server    string `json:"server,omitempty"`
}

func newVersionCmd(a *app) *cobra.Command {
	var jsonOutput, shortOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the build version, commit and Go version, the User-Agent sent
with every backend request and the configured backend URL.

The server line is left out when the configuration cannot be loaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if shortOutput {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Short())
				return err
			}

			report := versionReport{BuildInfo: version.GetInfo(), UserAgent: version.UserAgent()}
			if cfg, err := a.config(); err == nil {
				report.Server = cfg.Server.URL
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			if _, err := fmt.Fprintln(cmd.OutOrStdout(), version.String()); err != nil {
				return err
			}
			fields := []string{"User-Agent", report.UserAgent}
			if report.Server != "" {
				fields = append(fields, "Server", report.Server)
			}
			output.New(cmd.OutOrStdout()).Fields(fields...)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the version number")

	return cmd
}
