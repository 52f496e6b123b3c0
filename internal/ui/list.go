package ui

import (
	"maps"
	"slices"
	"strings"
)

// Values is what a List shows: OrderedValues or KeyedValues.
type Values interface {
	entries() []string
}

// OrderedValues are shown in the given order.
type OrderedValues []string

func (v OrderedValues) entries() []string { return slices.Clone(v) }

// KeyedValues shows the keys of a map in sorted order.
type KeyedValues[T any] map[string]T

func (v KeyedValues[T]) entries() []string { return Keys(v) }

// Keys returns the sorted keys of m.
func Keys[T any](m map[string]T) []string {
	return slices.Sorted(maps.Keys(m))
}

// List is a selectable list of text values. It keeps no state beyond the
// cursor and the highlighted Selected value; choosing calls OnSelect.
type List struct {
	Title    string
	Selected string
	OnSelect func(value string)

	items  []string
	cursor int
	styles Styles
}

// NewList creates a list over values. A nil values yields an empty list.
func NewList(title string, values Values, selected string, onSelect func(string)) *List {
	l := &List{
		Title:    title,
		Selected: selected,
		OnSelect: onSelect,
		styles:   DefaultStyles(),
	}
	l.SetValues(values)
	return l
}

// SetStyles sets the styles used by View.
func (l *List) SetStyles(s Styles) {
	l.styles = s
}

// SetValues replaces the values, moving the cursor to the selected value
// when it is present.
func (l *List) SetValues(values Values) {
	l.items = nil
	if values != nil {
		l.items = values.entries()
	}
	l.cursor = 0
	if i := slices.Index(l.items, l.Selected); i >= 0 {
		l.cursor = i
	}
}

// Items returns the values in display order.
func (l *List) Items() []string { return l.items }

// Len returns the number of values.
func (l *List) Len() int { return len(l.items) }

// Cursor returns the index under the cursor.
func (l *List) Cursor() int { return l.cursor }

// Current returns the value under the cursor, or "" for an empty list.
func (l *List) Current() string {
	if len(l.items) == 0 {
		return ""
	}
	return l.items[l.cursor]
}

// MoveUp moves the cursor one entry up.
func (l *List) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
}

// MoveDown moves the cursor one entry down.
func (l *List) MoveDown() {
	if l.cursor < len(l.items)-1 {
		l.cursor++
	}
}

// Choose selects the value under the cursor.
func (l *List) Choose() {
	if len(l.items) == 0 {
		return
	}
	l.choose(l.items[l.cursor])
}

// Click selects value if the list holds it, reporting whether it did.
func (l *List) Click(value string) bool {
	i := slices.Index(l.items, value)
	if i < 0 {
		return false
	}
	l.cursor = i
	l.choose(value)
	return true
}

func (l *List) choose(value string) {
	l.Selected = value
	if l.OnSelect != nil {
		l.OnSelect(value)
	}
}

// View renders one line per value. The selected value is marked and the
// cursor is shown when focused. An empty list renders nothing.
func (l *List) View(focused bool) string {
	if len(l.items) == 0 {
		return ""
	}

	lines := make([]string, 0, len(l.items))
	for i, item := range l.items {
		mark := "  "
		style := l.styles.Label
		if item == l.Selected {
			mark = "● "
			style = l.styles.Selected
		}
		line := style.Render(mark + item)
		if focused && i == l.cursor {
			line = l.styles.Cursor.Render(mark + item)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
