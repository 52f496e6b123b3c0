package errors

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_IncludesMessageHintAndCode(t *testing.T) {
	// Given: an error with a suggestion
	err := New(ErrCodeNetworkUnavailable, "cannot reach http://localhost:9090", nil).
		WithSuggestion("Start the server or pass --server")

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: all parts are present
	assert.Contains(t, result, "Error: cannot reach http://localhost:9090")
	assert.Contains(t, result, "Hint: Start the server or pass --server")
	assert.Contains(t, result, "Code: ERR_301_NETWORK_UNAVAILABLE")
}

func TestFormatForCLI_StandardErrorIsInternal(t *testing.T) {
	result := FormatForCLI(errors.New("boom"))

	assert.Contains(t, result, "Error: boom")
	assert.Contains(t, result, ErrCodeInternal)
	assert.NotContains(t, result, "Hint:")
}

func TestFormatForCLI_NilError(t *testing.T) {
	assert.Empty(t, FormatForCLI(nil))
}

func TestFormatJSON_BasicError(t *testing.T) {
	// Given: an error with details
	err := New(ErrCodeFileNotFound, "file not found", errors.New("stat failed")).
		WithDetail("path", "/tmp/doc.json").
		WithSuggestion("Check the file path")

	// When: formatting as JSON
	data, jsonErr := FormatJSON(err)

	// Then: valid JSON with expected fields
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, ErrCodeFileNotFound, result["code"])
	assert.Equal(t, "file not found", result["message"])
	assert.Equal(t, string(CategoryIO), result["category"])
	assert.Equal(t, "Check the file path", result["suggestion"])
	assert.Equal(t, "stat failed", result["cause"])

	details, ok := result["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/tmp/doc.json", details["path"])
}

func TestFormatJSON_NilError(t *testing.T) {
	data, err := FormatJSON(nil)

	assert.NoError(t, err)
	assert.Equal(t, "null", strings.TrimSpace(string(data)))
}

func TestFormatForLog_PanelError(t *testing.T) {
	err := BackendError("Index not found", errors.New("404")).WithDetail("status", "404")

	attrs := FormatForLog(err)

	assert.Contains(t, attrs, "error_code")
	assert.Contains(t, attrs, ErrCodeBackend)
	assert.Contains(t, attrs, "detail_status")
	assert.Contains(t, attrs, "404")
	assert.Len(t, attrs, 12)
}

func TestFormatForLog_StandardAndNil(t *testing.T) {
	assert.Equal(t, []any{"error", "boom"}, FormatForLog(errors.New("boom")))
	assert.Nil(t, FormatForLog(nil))
}
