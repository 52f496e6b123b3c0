package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/indexpanel/internal/client"
	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
	"github.com/Aman-CERP/indexpanel/internal/workflow"
)

// Catalog supplies the picker contents.
type Catalog interface {
	Schemas(ctx context.Context) ([]string, error)
	Indexes(ctx context.Context, schema string) ([]string, error)
	Fields(ctx context.Context, schema, index string) ([]client.Field, error)
	Invalidate()
}

// Saver is implemented by buffers backed by a file.
type Saver interface {
	Save(ctx context.Context) error
}

// PanelOptions configures the interactive panel.
type PanelOptions struct {
	Controller *workflow.Controller
	Catalog    Catalog // optional
	Buffer     workflow.Buffer
	Selection  workflow.Selection
	Config     Config
	Logger     *slog.Logger
}

type focusArea int

const (
	focusSchemas focusArea = iota
	focusIndexes
	focusEditor
	focusCount
)

const panelHelp = "tab focus • enter select • ctrl+s submit • esc cancel • f fields • r refresh • ctrl+w save • q quit"

// Messages delivered to the panel's event loop.
type (
	stateMsg   workflow.State
	outcomeMsg workflow.Outcome
	schemasMsg struct {
		names []string
		err   error
	}
	indexesMsg struct {
		schema string
		names  []string
		err    error
	}
	fieldsMsg struct {
		sel    workflow.Selection
		fields []client.Field
		err    error
	}
	savedMsg struct{ err error }
)

// Panel is the bubbletea model of the indexing panel: schema and index
// pickers, a document editor and the INDEXING status line.
type Panel struct {
	ctx     context.Context
	ctrl    *workflow.Controller
	catalog Catalog
	buffer  workflow.Buffer
	logger  *slog.Logger
	styles  Styles

	sel     workflow.Selection
	schemas *List
	indexes *List
	editor  textarea.Model
	spin    spinner.Model
	focus   focusArea

	state       workflow.State
	states      <-chan workflow.State
	unsubscribe func()

	showFields bool
	fields     []client.Field
	notice     string
	noticeErr  bool

	queued   []tea.Cmd
	width    int
	height   int
	quitting bool
}

// NewPanel creates the panel model. Call Close when done with it.
func NewPanel(ctx context.Context, opts PanelOptions) *Panel {
	buf := opts.Buffer
	if buf == nil {
		buf = workflow.NewTextBuffer("")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	styles := GetStyles(!opts.Config.Colored())

	s := spinner.New()
	s.Spinner = spinner.Dot
	if opts.Config.SpinnerStyle == SpinnerLine {
		s.Spinner = spinner.Line
	}
	s.Style = styles.Active

	editor := textarea.New()
	editor.Placeholder = `{"id": 1, "title": "..."}`
	editor.ShowLineNumbers = true
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.MaxWidth = 0
	editor.SetValue(buf.Text())
	editor.Blur()

	p := &Panel{
		ctx:     ctx,
		ctrl:    opts.Controller,
		catalog: opts.Catalog,
		buffer:  buf,
		logger:  logger,
		styles:  styles,
		sel:     opts.Selection,
		editor:  editor,
		spin:    s,
		state:   opts.Controller.State(),
		width:   80,
		height:  24,
	}

	p.schemas = NewList("Schemas", nil, p.sel.Schema, p.selectSchema)
	p.indexes = NewList("Indexes", nil, p.sel.Index, p.selectIndex)
	p.schemas.SetStyles(styles)
	p.indexes.SetStyles(styles)

	p.states, p.unsubscribe = opts.Controller.Subscribe()
	return p
}

// Selection returns the current schema and index.
func (p *Panel) Selection() workflow.Selection { return p.sel }

// Close stops the state subscription and cancels any in-flight submission.
func (p *Panel) Close() {
	p.unsubscribe()
	p.ctrl.Cancel()
}

// Init implements tea.Model.
func (p *Panel) Init() tea.Cmd {
	cmds := []tea.Cmd{listenStates(p.states), p.spin.Tick, p.loadSchemas()}
	if p.sel.Schema != "" {
		cmds = append(cmds, p.loadIndexes(p.sel.Schema))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (p *Panel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.editor.SetWidth(max(msg.Width-6, 20))
		p.editor.SetHeight(max(msg.Height-16, 5))
		return p, nil

	case tea.KeyMsg:
		cmd := p.handleKey(msg)
		return p, tea.Batch(append(p.drain(), cmd)...)

	case stateMsg:
		p.state = workflow.State(msg)
		return p, listenStates(p.states)

	case outcomeMsg:
		// The subscription already carried the final state.
		return p, nil

	case schemasMsg:
		if msg.err != nil {
			p.setNotice(msg.err)
			return p, nil
		}
		p.schemas.SetValues(OrderedValues(msg.names))
		return p, nil

	case indexesMsg:
		if msg.schema != p.sel.Schema {
			return p, nil
		}
		if msg.err != nil {
			p.setNotice(msg.err)
			return p, nil
		}
		p.indexes.SetValues(OrderedValues(msg.names))
		return p, nil

	case fieldsMsg:
		if msg.sel != p.sel {
			return p, nil
		}
		if msg.err != nil {
			p.setNotice(msg.err)
			return p, nil
		}
		p.fields = msg.fields
		return p, nil

	case savedMsg:
		if msg.err != nil {
			p.setNotice(msg.err)
		} else {
			p.notice, p.noticeErr = "Saved.", false
		}
		return p, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spin, cmd = p.spin.Update(msg)
		return p, cmd
	}

	if p.focus == focusEditor {
		var cmd tea.Cmd
		p.editor, cmd = p.editor.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p *Panel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		p.quitting = true
		p.ctrl.Cancel()
		return tea.Quit
	case "ctrl+s":
		return p.submit()
	case "ctrl+w":
		return p.save()
	case "tab":
		return p.setFocus((p.focus + 1) % focusCount)
	case "shift+tab":
		return p.setFocus((p.focus + focusCount - 1) % focusCount)
	case "esc":
		switch {
		case p.state.Phase.InFlight():
			p.ctrl.Cancel()
		case p.showFields:
			p.showFields = false
		case p.focus == focusEditor:
			return p.setFocus(focusSchemas)
		}
		return nil
	}

	if p.focus == focusEditor {
		var cmd tea.Cmd
		p.editor, cmd = p.editor.Update(msg)
		return cmd
	}

	list := p.schemas
	if p.focus == focusIndexes {
		list = p.indexes
	}

	switch msg.String() {
	case "q":
		p.quitting = true
		p.ctrl.Cancel()
		return tea.Quit
	case "up", "k":
		list.MoveUp()
	case "down", "j":
		list.MoveDown()
	case "enter", " ":
		list.Choose()
	case "f":
		p.showFields = !p.showFields
		if p.showFields {
			return p.loadFields()
		}
	case "r":
		if p.catalog != nil {
			p.catalog.Invalidate()
		}
		cmds := []tea.Cmd{p.loadSchemas()}
		if p.sel.Schema != "" {
			cmds = append(cmds, p.loadIndexes(p.sel.Schema))
		}
		return tea.Batch(cmds...)
	}
	return nil
}

// selectSchema is the schema picker callback. A new schema invalidates the
// index selection because the index list depends on it.
func (p *Panel) selectSchema(schema string) {
	if schema == p.sel.Schema {
		return
	}
	p.sel = workflow.Selection{Schema: schema}
	p.indexes.Selected = ""
	p.indexes.SetValues(nil)
	p.fields = nil
	p.queued = append(p.queued, p.loadIndexes(schema))
	if p.showFields {
		p.showFields = false
	}
}

func (p *Panel) selectIndex(index string) {
	if index == p.sel.Index {
		return
	}
	p.sel.Index = index
	p.fields = nil
	if p.showFields {
		p.queued = append(p.queued, p.loadFields())
	}
}

func (p *Panel) drain() []tea.Cmd {
	cmds := p.queued
	p.queued = nil
	return cmds
}

func (p *Panel) setFocus(f focusArea) tea.Cmd {
	p.focus = f
	if f == focusEditor {
		return p.editor.Focus()
	}
	p.editor.Blur()
	return nil
}

func (p *Panel) setNotice(err error) {
	p.notice, p.noticeErr = perrors.Message(err), true
	p.logger.Debug("panel_notice", perrors.FormatForLog(err)...)
}

func (p *Panel) submit() tea.Cmd {
	if p.state.Phase.InFlight() {
		return nil
	}
	p.notice = ""

	p.buffer.SetText(p.editor.Value())
	pending, err := p.ctrl.Submit(p.ctx, p.sel, p.buffer)
	p.editor.SetValue(p.buffer.Text())
	if err != nil {
		// The subscription carries the resulting state.
		return nil
	}
	return waitOutcome(pending)
}

func (p *Panel) save() tea.Cmd {
	saver, ok := p.buffer.(Saver)
	if !ok {
		p.notice, p.noticeErr = "No file to save to.", true
		return nil
	}
	p.buffer.SetText(p.editor.Value())
	ctx := p.ctx
	return func() tea.Msg {
		return savedMsg{err: saver.Save(ctx)}
	}
}

func (p *Panel) loadSchemas() tea.Cmd {
	if p.catalog == nil {
		return nil
	}
	ctx, catalog := p.ctx, p.catalog
	return func() tea.Msg {
		names, err := catalog.Schemas(ctx)
		return schemasMsg{names: names, err: err}
	}
}

func (p *Panel) loadIndexes(schema string) tea.Cmd {
	if p.catalog == nil {
		return nil
	}
	ctx, catalog := p.ctx, p.catalog
	return func() tea.Msg {
		names, err := catalog.Indexes(ctx, schema)
		return indexesMsg{schema: schema, names: names, err: err}
	}
}

func (p *Panel) loadFields() tea.Cmd {
	if p.catalog == nil || p.sel.Schema == "" || p.sel.Index == "" {
		return nil
	}
	ctx, catalog, sel := p.ctx, p.catalog, p.sel
	return func() tea.Msg {
		fields, err := catalog.Fields(ctx, sel.Schema, sel.Index)
		return fieldsMsg{sel: sel, fields: fields, err: err}
	}
}

func listenStates(ch <-chan workflow.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(st)
	}
}

func waitOutcome(pending *workflow.Pending) tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg(pending.Result())
	}
}

// View implements tea.Model.
func (p *Panel) View() string {
	if p.quitting {
		return ""
	}

	sections := []string{p.statusLine()}
	if p.notice != "" {
		style := p.styles.Label
		if p.noticeErr {
			style = p.styles.Warning
		}
		sections = append(sections, style.Render(p.notice))
	}

	sections = append(sections,
		lipgloss.JoinHorizontal(lipgloss.Top,
			p.listBox(p.schemas, p.focus == focusSchemas),
			p.listBox(p.indexes, p.focus == focusIndexes)),
		p.selectionLine(),
		p.box(p.focus == focusEditor).Render(p.editor.View()),
	)

	if p.showFields {
		sections = append(sections, p.fieldsView())
	}

	sections = append(sections, p.styles.Dim.Render(panelHelp))
	return strings.Join(sections, "\n")
}

// statusLine renders "INDEXING" followed by the spinner while spinning,
// otherwise the error or task message.
func (p *Panel) statusLine() string {
	header := p.styles.Header.Render("INDEXING")

	var status string
	switch {
	case p.state.Spinning:
		status = p.spin.View() + " " + p.styles.Status.Render(p.state.Message)
	case p.state.Message == "":
		status = ""
	case p.state.Phase == workflow.PhaseFailed || p.state.Phase == workflow.PhaseIdle:
		status = p.styles.Error.Render(p.state.Message)
	default:
		status = p.styles.Success.Render(p.state.Message)
	}

	if status == "" {
		return header
	}
	return header + " " + status
}

func (p *Panel) selectionLine() string {
	value := func(v string) string {
		if v == "" {
			return p.styles.Dim.Render("none")
		}
		return p.styles.Active.Render(v)
	}
	return fmt.Sprintf("%s %s  %s %s",
		p.styles.Label.Render("schema:"), value(p.sel.Schema),
		p.styles.Label.Render("index:"), value(p.sel.Index))
}

func (p *Panel) listBox(l *List, focused bool) string {
	body := l.View(focused)
	if body == "" {
		body = p.styles.Dim.Render("(empty)")
	}
	width := max((p.width-8)/2, 16)
	return p.box(focused).Width(width).Render(p.styles.Label.Render(l.Title) + "\n" + body)
}

func (p *Panel) box(focused bool) lipgloss.Style {
	if focused {
		return p.styles.FocusedPanel
	}
	return p.styles.Panel
}

func (p *Panel) fieldsView() string {
	switch {
	case p.sel.Schema == "" || p.sel.Index == "":
		return p.styles.Dim.Render("Select a schema and an index to see its fields.")
	case len(p.fields) == 0:
		return p.styles.Dim.Render("No fields.")
	default:
		return FieldsTable(p.fields, p.styles)
	}
}

// RunPanel runs the panel until the user quits or ctx is done.
func RunPanel(ctx context.Context, opts PanelOptions) error {
	panel := NewPanel(ctx, opts)
	defer panel.Close()

	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if f, ok := opts.Config.Output.(*os.File); ok {
		progOpts = append(progOpts, tea.WithOutput(f))
	}

	if _, err := tea.NewProgram(panel, progOpts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("panel: %w", err)
	}
	return nil
}

var _ tea.Model = (*Panel)(nil)
