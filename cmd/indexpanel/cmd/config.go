package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/indexpanel/configs"
	"github.com/Aman-CERP/indexpanel/internal/config"
	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
	"github.com/Aman-CERP/indexpanel/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long: `Manage the user configuration file.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/indexpanel/config.yaml)
  3. Project config (.indexpanel.yaml)
  4. Environment variables (INDEXPANEL_*)
  5. Command line flags (--server, --schema, --index, --no-color)`,
		Example: `  # Create user config from template
  indexpanel config init

  # Show effective configuration (merged from all sources)
  indexpanel config show

  # Print user config file path
  indexpanel config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create user configuration file",
		Long: `Create the user configuration file from a template.

The file is created at ~/.config/indexpanel/config.yaml
(or $XDG_CONFIG_HOME/indexpanel/config.yaml if XDG_CONFIG_HOME is set).

With --force an existing file is backed up and missing options are added
with their defaults. Existing settings are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Upgrade an existing configuration with new defaults")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Example: `  indexpanel config show
  indexpanel config show --json
  indexpanel config show --source user`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func newConfigRestoreCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "restore [BACKUP]",
		Short: "Restore the user config from a backup",
		Long: `Restore the user configuration from a backup made by 'config init --force'.

Without BACKUP the newest backup is restored. The current file is backed up
before it is replaced.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			backups, err := config.ListUserConfigBackups()
			if err != nil {
				return err
			}
			if list {
				if len(backups) == 0 {
					out.Status(output.IconInfo, "No backups found.")
					return nil
				}
				for _, b := range backups {
					out.Status(output.IconInfo, b)
				}
				return nil
			}

			var target string
			switch {
			case len(args) == 1:
				target = args[0]
			case len(backups) > 0:
				target = backups[0]
			default:
				return perrors.New(perrors.ErrCodeConfigNotFound, "no configuration backups found", nil)
			}

			if err := config.RestoreUserConfig(target); err != nil {
				return err
			}
			out.Successf("Restored %s", config.GetUserConfigPath())
			out.Fields("From", target)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List backups, newest first")
	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	configPath := config.GetUserConfigPath()

	if config.UserConfigExists() {
		if !force {
			out.Warning("User configuration already exists")
			out.Fields("Location", configPath)
			out.Newline()
			out.Status(output.IconInfo, "Use --force to upgrade with new defaults (preserves your settings)")
			return nil
		}
		return runConfigUpgrade(out, configPath)
	}

	if err := os.MkdirAll(config.GetUserConfigDir(), 0755); err != nil {
		return perrors.IOError(fmt.Sprintf("failed to create config directory %s", config.GetUserConfigDir()), err)
	}
	if err := os.WriteFile(configPath, []byte(configs.UserConfigTemplate), 0644); err != nil {
		return perrors.IOError("failed to write config file", err)
	}

	out.Success("Created user configuration")
	out.Fields("Location", configPath)
	out.Newline()
	out.Status(output.IconInfo, "Edit the file, then run 'indexpanel config show' to verify")
	return nil
}

// runConfigUpgrade backs up the user config and fills in new defaults.
func runConfigUpgrade(out *output.Writer, configPath string) error {
	backupPath, err := config.BackupUserConfig()
	if err != nil {
		return err
	}

	existing, err := config.ParseFile(configPath)
	if err != nil {
		return err
	}

	added := existing.MergeNewDefaults()
	if err := existing.WriteYAML(configPath); err != nil {
		return err
	}

	out.Success("Configuration upgraded")
	out.Fields("Location", configPath, "Backup", backupPath)
	out.Newline()

	if len(added) == 0 {
		out.Status(output.IconInfo, "Your configuration is already up to date")
		return nil
	}
	out.Status(output.IconInfo, "New options added with defaults:")
	for _, field := range added {
		out.Statusf("", "  - %s", field)
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	out := output.New(cmd.OutOrStdout())

	var (
		cfg        *config.Config
		sourceDesc string
	)

	switch source {
	case "merged":
		root, err := projectRoot()
		if err != nil {
			return err
		}
		cfg, err = config.Load(root)
		if err != nil {
			return err
		}
		sourceDesc = "merged (defaults + user + project + env)"

	case "user":
		path := config.GetUserConfigPath()
		if !config.UserConfigExists() {
			out.Warning("No user configuration file found")
			out.Fields("Expected at", path)
			out.Status(output.IconInfo, "Run 'indexpanel config init' to create one")
			return nil
		}
		parsed, err := config.ParseFile(path)
		if err != nil {
			return err
		}
		cfg = parsed
		sourceDesc = fmt.Sprintf("user (%s)", path)

	case "project":
		root, err := projectRoot()
		if err != nil {
			return err
		}
		path := config.ProjectConfigPath(root)
		if path == "" {
			out.Warning("No project configuration file found")
			out.Fields("Expected at", filepath.Join(root, config.ProjectConfigName))
			return nil
		}
		parsed, err := config.ParseFile(path)
		if err != nil {
			return err
		}
		cfg = parsed
		sourceDesc = fmt.Sprintf("project (%s)", path)

	case "defaults":
		cfg = config.NewConfig()
		sourceDesc = "defaults (hardcoded)"

	default:
		return perrors.ConfigError(fmt.Sprintf("invalid source: %s (use: merged, user, project, defaults)", source), nil)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return perrors.InternalError("failed to marshal config", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return perrors.InternalError("failed to marshal config", err)
	}
	out.Fields("Source", sourceDesc)
	out.Newline()
	out.Code(string(data))
	return nil
}

func projectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", perrors.IOError("failed to get working directory", err)
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		return cwd, nil
	}
	return root, nil
}
