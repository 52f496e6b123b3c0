package ui

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/indexpanel/internal/client"
	"github.com/Aman-CERP/indexpanel/internal/history"
)

func TestTableRenderer_RenderNames(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewTableRenderer(buf, true)

	require.NoError(t, r.RenderNames("schemas", []string{"catalog", "blog"}))

	assert.Equal(t, "schemas\n  catalog\n  blog\n", buf.String())
}

func TestTableRenderer_RenderNamesEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewTableRenderer(buf, true)

	require.NoError(t, r.RenderNames("indexes", nil))

	assert.Equal(t, "No indexes found.\n", buf.String())
}

func TestTableRenderer_RenderFields(t *testing.T) {
	// Given: two fields
	buf := &bytes.Buffer{}
	r := NewTableRenderer(buf, true)
	fields := []client.Field{
		{Name: "price", Definition: json.RawMessage(`{"type":"float"}`)},
		{Name: "title", Definition: json.RawMessage(`{"type":"text"}`)},
	}

	// When: rendering
	require.NoError(t, r.RenderFields("catalog", "products", fields))

	// Then: the header and every field appear
	out := buf.String()
	assert.Contains(t, out, "catalog/products")
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "price")
	assert.Contains(t, out, `{"type":"text"}`)
}

func TestTableRenderer_RenderHistory(t *testing.T) {
	// Given: a recorded failure and a success
	buf := &bytes.Buffer{}
	r := NewTableRenderer(buf, true)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	entries := []history.Entry{
		{ID: "2", Schema: "s1", Index: "i1", Phase: "failed", Message: "index is read-only", StartedAt: now.Add(-5 * time.Minute)},
		{ID: "1", Schema: "s1", Index: "i1", Phase: "succeeded", Count: 3, Message: "3 records have been indexed.",
			StartedAt: now.Add(-30 * 24 * time.Hour), Duration: 120 * time.Millisecond},
	}

	// When: rendering
	require.NoError(t, r.RenderHistory(entries))

	// Then: rows carry the relative time and outcome
	out := buf.String()
	assert.Contains(t, out, "5 minutes ago")
	assert.Contains(t, out, "2026-01-30 12:00")
	assert.Contains(t, out, "index is read-only")
	assert.Contains(t, out, "120ms")
}

func TestTableRenderer_RenderHistoryEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewTableRenderer(buf, true)

	require.NoError(t, r.RenderHistory(nil))

	assert.Equal(t, "No submissions recorded.\n", buf.String())
}

func TestTableRenderer_RenderJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewTableRenderer(buf, true)

	require.NoError(t, r.RenderJSON([]string{"a"}))

	assert.Equal(t, "[\n  \"a\"\n]\n", buf.String())
}

func TestFormatTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{42 * time.Minute, "42 minutes ago"},
		{time.Hour, "1 hour ago"},
		{5 * time.Hour, "5 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{3 * 24 * time.Hour, "3 days ago"},
		{9 * 24 * time.Hour, "2026-03-01 12:00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatTime(now.Add(-tt.ago), now))
		})
	}
}
