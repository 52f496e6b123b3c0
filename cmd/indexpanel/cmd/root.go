// Package cmd provides the CLI commands for indexpanel.
package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexpanel/internal/client"
	"github.com/Aman-CERP/indexpanel/internal/config"
	"github.com/Aman-CERP/indexpanel/internal/document"
	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
	"github.com/Aman-CERP/indexpanel/internal/history"
	"github.com/Aman-CERP/indexpanel/internal/logging"
	"github.com/Aman-CERP/indexpanel/internal/ui"
	"github.com/Aman-CERP/indexpanel/internal/workflow"
	"github.com/Aman-CERP/indexpanel/pkg/version"
)

// app holds the global flags and the state shared by one command run.
type app struct {
	serverURL string
	schema    string
	index     string
	debug     bool
	noColor   bool

	cfg        *config.Config
	logCleanup func()
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context so in-flight submissions are cancelled cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd creates the root command for the indexpanel CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}
	var file string

	cmd := &cobra.Command{
		Use:   "indexpanel",
		Short: "Interactive panel for indexing JSON documents",
		Long: `indexpanel submits JSON documents to an indexing backend.

Run it without a subcommand to open the panel: pick a schema and an index,
edit the document and press ctrl+s. The document is pretty-printed before it
is sent and the result shows how many records were indexed.

Use 'indexpanel submit' in scripts and 'indexpanel watch' to resubmit a file
whenever it changes.`,
		Version:       version.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPanel(cmd, file)
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.startLogging(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.stopLogging()
		},
	}

	cmd.SetVersionTemplate("indexpanel version {{.Version}}\n")

	cmd.Flags().StringVarP(&file, "file", "f", "", "Document to load into the editor")

	cmd.PersistentFlags().StringVar(&a.serverURL, "server", "", "Backend URL (overrides server.url)")
	cmd.PersistentFlags().StringVar(&a.schema, "schema", "", "Schema to select (overrides defaults.schema)")
	cmd.PersistentFlags().StringVar(&a.index, "index", "", "Index to select (overrides defaults.index)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging to ~/.indexpanel/logs/")
	cmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newSubmitCmd(a))
	cmd.AddCommand(newWatchCmd(a))
	cmd.AddCommand(newSchemasCmd(a))
	cmd.AddCommand(newIndexesCmd(a))
	cmd.AddCommand(newFieldsCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd(a))
	cmd.AddCommand(newVersionCmd(a))

	return cmd
}

// annotationNoFileLog marks commands that never open the log file
// unless --debug is set.
const annotationNoFileLog = "indexpanel/no-file-log"

// startLogging installs the default logger. --debug logs everything to
// the rotating file. Otherwise logging.level selects what reaches the file
// and warnings also go to stderr; without a usable config or log file only
// stderr is used. The panel replaces this with a file-only logger once it
// owns the terminal.
func (a *app) startLogging(cmd *cobra.Command) error {
	if !a.debug {
		slog.SetDefault(logging.NewStderrLogger("warn"))
		if cmd.Annotations[annotationNoFileLog] != "" {
			return nil
		}
		cfg, err := a.config()
		if err != nil {
			return nil
		}
		if cleanup, err := logging.SetupCLIMode(cfg.Logging.Level); err == nil {
			a.logCleanup = cleanup
		}
		return nil
	}

	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	a.logCleanup = cleanup
	slog.Debug("debug_logging_enabled",
		slog.String("command", cmd.CommandPath()),
		slog.String("version", version.Version))
	return nil
}

func (a *app) stopLogging() {
	if a.logCleanup != nil {
		a.logCleanup()
		a.logCleanup = nil
		slog.SetDefault(logging.NewStderrLogger("warn"))
	}
}

// config loads the merged configuration once and applies flag overrides.
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, perrors.IOError("failed to get working directory", err)
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		root = cwd
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	if a.serverURL != "" {
		cfg.Server.URL = a.serverURL
	}
	if a.schema != "" {
		cfg.Defaults.Schema = a.schema
	}
	if a.index != "" {
		cfg.Defaults.Index = a.index
	}
	if a.noColor {
		cfg.UI.NoColor = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a.cfg = cfg
	return cfg, nil
}

func (a *app) newClient() (*client.Client, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return client.New(client.Config{BaseURL: cfg.Server.URL, Logger: slog.Default()})
}

func (a *app) newCatalog() (*client.Catalog, error) {
	c, err := a.newClient()
	if err != nil {
		return nil, err
	}
	return client.NewCatalog(c, client.CatalogConfig{
		TTL:  a.cfg.CatalogTTL(),
		Size: a.cfg.Server.CatalogCacheSize,
	}), nil
}

// shutdownTimeout bounds how long release waits for a cancelled
// submission to finish recording.
const shutdownTimeout = 5 * time.Second

// newController builds the submission controller. Outcomes are recorded
// when history is enabled; a history store that cannot be opened only
// produces a warning. The returned function cancels any in-flight
// submission, waits for it to be recorded and releases the store.
func (a *app) newController() (*workflow.Controller, func(), error) {
	c, err := a.newClient()
	if err != nil {
		return nil, nil, err
	}

	opts := []workflow.Option{
		workflow.WithLogger(slog.Default()),
		workflow.WithTimeout(a.cfg.SubmitTimeout()),
	}
	closeStore := func() {}

	if a.cfg.History.IsEnabled() {
		store, err := history.Open(a.cfg.History.Path, history.DefaultMaxEntries)
		if err != nil {
			slog.Warn("history_unavailable",
				slog.String("path", a.cfg.History.Path),
				slog.String("error", err.Error()))
		} else {
			opts = append(opts, workflow.WithRecorder(store))
			closeStore = func() { _ = store.Close() }
		}
	}

	ctrl := workflow.New(c, opts...)
	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := ctrl.Shutdown(ctx); err != nil {
			slog.Warn("submission_shutdown_timeout", slog.String("error", err.Error()))
		}
		closeStore()
	}
	return ctrl, release, nil
}

// selection returns the configured schema and index. Non-empty args
// override them in order.
func (a *app) selection(args ...string) workflow.Selection {
	sel := workflow.Selection{Schema: a.cfg.Defaults.Schema, Index: a.cfg.Defaults.Index}
	if len(args) > 0 && args[0] != "" {
		sel.Schema = args[0]
	}
	if len(args) > 1 && args[1] != "" {
		sel.Index = args[1]
	}
	return sel
}

func (a *app) uiConfig(out io.Writer) ui.Config {
	return ui.NewConfig(out,
		ui.WithNoColor(a.cfg.UI.NoColor),
		ui.WithForcePlain(a.cfg.UI.Plain),
		ui.WithSpinnerStyle(a.cfg.UI.Spinner))
}

// runPanel opens the interactive panel. Without a terminal it falls back
// to a plain submission of --file.
func (a *app) runPanel(cmd *cobra.Command, file string) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}

	uiCfg := a.uiConfig(cmd.OutOrStdout())
	if !uiCfg.Interactive() {
		if file == "" {
			return perrors.New(perrors.ErrCodeInternal, "the panel needs an interactive terminal", nil).
				WithSuggestion("Run 'indexpanel submit FILE' to submit without the panel")
		}
		return a.runSubmit(cmd, file, false)
	}

	var buf workflow.Buffer
	if file != "" {
		doc, err := document.Open(file)
		if err != nil {
			return err
		}
		buf = doc
	}

	if !a.debug {
		a.stopLogging()
		cleanup, err := logging.SetupPanelMode(cfg.Logging.Level)
		if err != nil {
			return err
		}
		a.logCleanup = cleanup
	}

	ctrl, release, err := a.newController()
	if err != nil {
		return err
	}
	defer release()

	catalog, err := a.newCatalog()
	if err != nil {
		return err
	}

	return ui.RunPanel(cmd.Context(), ui.PanelOptions{
		Controller: ctrl,
		Catalog:    catalog,
		Buffer:     buf,
		Selection:  a.selection(),
		Config:     uiCfg,
		Logger:     slog.Default(),
	})
}
