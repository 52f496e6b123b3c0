package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Aman-CERP/indexpanel/internal/workflow"
)

// PlainRenderer prints workflow transitions as lines (for CI/pipes).
type PlainRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
	last   workflow.State
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{
		out:    cfg.Output,
		styles: GetStyles(!cfg.Colored()),
	}
}

// Update implements Renderer. Only in-flight phases are printed; the
// terminal phase is printed by Complete.
func (r *PlainRenderer) Update(state workflow.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !state.Phase.InFlight() || state == r.last {
		return
	}
	r.last = state

	tag := r.styles.Label.Render(fmt.Sprintf("[%s]", phaseTag(state.Phase)))
	_, _ = fmt.Fprintf(r.out, "%s %s\n", tag, state.Message)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(outcome workflow.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !outcome.Succeeded() {
		_, _ = fmt.Fprintf(r.out, "%s %s\n", r.styles.Error.Render("ERROR:"), outcome.State.Message)
		return
	}

	_, _ = fmt.Fprintf(r.out, "%s %s (%s/%s in %s)\n",
		r.styles.Success.Render("Complete:"),
		outcome.State.Message,
		outcome.Selection.Schema,
		outcome.Selection.Index,
		outcome.Duration.Round(time.Millisecond))
}

func phaseTag(p workflow.Phase) string {
	switch p {
	case workflow.PhaseValidating:
		return "PARSE"
	case workflow.PhaseSubmitting:
		return "INDEX"
	case workflow.PhaseSucceeded:
		return "DONE"
	case workflow.PhaseFailed:
		return "FAIL"
	default:
		return "IDLE"
	}
}

var _ Renderer = (*PlainRenderer)(nil)
