package workflow

import (
	"sync"
)

// Phase is the current discrete state of the submission workflow.
type Phase int

const (
	// PhaseIdle means no submission is running.
	PhaseIdle Phase = iota
	// PhaseValidating means the document text is being parsed.
	PhaseValidating
	// PhaseSubmitting means the request to the backend is in flight.
	PhaseSubmitting
	// PhaseSucceeded is the result display after a successful submission.
	PhaseSucceeded
	// PhaseFailed is the result display after a failed submission.
	PhaseFailed
)

// String returns the human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight reports whether a submission is between start and outcome.
func (p Phase) InFlight() bool {
	return p == PhaseValidating || p == PhaseSubmitting
}

// State is a snapshot of the workflow.
// Spinning is true only while InFlight.
type State struct {
	Phase    Phase
	Message  string
	Spinning bool
}

// Selection holds the schema and index chosen by the page.
// An empty field means nothing is selected.
type Selection struct {
	Schema string
	Index  string
}

// Buffer is the editable document text owned by the caller.
// The controller reads it and, after a successful parse, replaces its
// content with the canonical text.
type Buffer interface {
	Text() string
	SetText(text string)
}

// TextBuffer is an in-memory Buffer safe for concurrent use.
type TextBuffer struct {
	mu   sync.RWMutex
	text string
}

// NewTextBuffer returns a buffer holding text.
func NewTextBuffer(text string) *TextBuffer {
	return &TextBuffer{text: text}
}

// Text implements Buffer.
func (b *TextBuffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// SetText implements Buffer.
func (b *TextBuffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
}
