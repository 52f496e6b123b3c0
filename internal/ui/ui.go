// Package ui provides the terminal surfaces of indexpanel: the interactive
// panel, the plain transition printer and the table renderers.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/indexpanel/internal/workflow"
)

// Spinner styles accepted by Config.SpinnerStyle.
const (
	SpinnerDot  = "dot"
	SpinnerLine = "line"
)

// Renderer displays workflow transitions of a non-interactive submission.
type Renderer interface {
	// Update shows one state transition.
	Update(state workflow.State)

	// Complete shows the final outcome.
	Complete(outcome workflow.Outcome)
}

// Config configures the UI.
type Config struct {
	Output       io.Writer
	ForcePlain   bool
	NoColor      bool
	SpinnerStyle string
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithSpinnerStyle sets the spinner style.
func WithSpinnerStyle(style string) ConfigOption {
	return func(c *Config) {
		c.SpinnerStyle = style
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{
		Output:       output,
		SpinnerStyle: SpinnerDot,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// Interactive reports whether the panel can own the terminal: output is a
// TTY, plain mode is not forced and this is not a CI run.
func (c Config) Interactive() bool {
	return !c.ForcePlain && IsTTY(c.Output) && !DetectCI()
}

// Colored reports whether ANSI styling should be used.
func (c Config) Colored() bool {
	return !c.NoColor && !DetectNoColor() && IsTTY(c.Output)
}

// NewRenderer creates the transition renderer for cfg.
func NewRenderer(cfg Config) Renderer {
	return NewPlainRenderer(cfg)
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}

	// Check if it's a file that's a terminal
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
