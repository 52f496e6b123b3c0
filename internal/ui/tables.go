package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Aman-CERP/indexpanel/internal/client"
	"github.com/Aman-CERP/indexpanel/internal/history"
)

// TableRenderer prints catalog listings and submission history.
type TableRenderer struct {
	out    io.Writer
	styles Styles
	now    func() time.Time
}

// NewTableRenderer creates a table renderer.
func NewTableRenderer(out io.Writer, noColor bool) *TableRenderer {
	return &TableRenderer{
		out:    out,
		styles: GetStyles(noColor),
		now:    time.Now,
	}
}

// RenderNames prints one name per line under a header.
func (r *TableRenderer) RenderNames(title string, names []string) error {
	if len(names) == 0 {
		_, err := fmt.Fprintf(r.out, "No %s found.\n", title)
		return err
	}
	if _, err := fmt.Fprintln(r.out, r.styles.Header.Render(title)); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(r.out, "  %s\n", name); err != nil {
			return err
		}
	}
	return nil
}

// RenderFields prints the field table of an index.
func (r *TableRenderer) RenderFields(schema, index string, fields []client.Field) error {
	if len(fields) == 0 {
		_, err := fmt.Fprintf(r.out, "No fields in %s/%s.\n", schema, index)
		return err
	}
	_, err := fmt.Fprintln(r.out, r.styles.Header.Render(schema+"/"+index)+"\n"+FieldsTable(fields, r.styles))
	return err
}

// RenderHistory prints recorded submissions, newest first.
func (r *TableRenderer) RenderHistory(entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(r.out, "No submissions recorded.")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.styles.Border).
		Headers("WHEN", "SCHEMA", "INDEX", "RESULT", "COUNT", "TIME", "MESSAGE")

	rowStyles := make([]lipgloss.Style, 0, len(entries))
	for _, e := range entries {
		t.Row(
			formatTime(e.StartedAt, r.now()),
			e.Schema,
			e.Index,
			e.Phase,
			strconv.FormatInt(e.Count, 10),
			e.Duration.Round(time.Millisecond).String(),
			e.Message,
		)
		style := r.styles.Success
		if e.Phase != "succeeded" {
			style = r.styles.Error
		}
		rowStyles = append(rowStyles, style)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return r.styles.Header
		}
		if col == 3 && row >= 0 && row < len(rowStyles) {
			return rowStyles[row]
		}
		return lipgloss.NewStyle()
	})

	_, err := fmt.Fprintln(r.out, t.Render())
	return err
}

// RenderJSON outputs v as indented JSON.
func (r *TableRenderer) RenderJSON(v any) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FieldsTable renders fields as a two-column table.
func FieldsTable(fields []client.Field, styles Styles) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		Headers("FIELD", "DEFINITION").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header
			}
			if col == 0 {
				return styles.Active
			}
			return styles.Label
		})
	for _, f := range fields {
		t.Row(f.Name, string(f.Definition))
	}
	return t.Render()
}

// formatTime formats a time relative to now.
func formatTime(t, now time.Time) string {
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}
