package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
	"github.com/Aman-CERP/indexpanel/pkg/version"
)

func TestRootCmd_ShowsHelp(t *testing.T) {
	stdout, _, err := runCmd(t, "", "--help")

	require.NoError(t, err)
	assert.Contains(t, stdout, "indexpanel")
	for _, sub := range []string{"submit", "watch", "schemas", "indexes", "fields", "history", "config", "logs", "version"} {
		assert.Contains(t, stdout, sub)
	}
}

func TestRootCmd_Version(t *testing.T) {
	stdout, _, err := runCmd(t, "", "--version")

	require.NoError(t, err)
	assert.Equal(t, "indexpanel version "+version.Version+"\n", stdout)
}

func TestRootCmd_NoTerminalWithoutFile(t *testing.T) {
	// Given: output that is not a terminal
	isolate(t)

	// When: opening the panel
	_, _, err := runCmd(t, "")

	// Then: the user is pointed at submit
	require.Error(t, err)
	pe, ok := perrors.As(err)
	require.True(t, ok)
	assert.Contains(t, pe.Suggestion, "indexpanel submit")
}

func TestRootCmd_NoTerminalSubmitsFile(t *testing.T) {
	dir := isolate(t)
	backend, srv := newFakeBackend(t, "0")
	path := writeFile(t, dir, "doc.json", `{}`)

	stdout, _, err := runCmd(t, "", "--file", path, "--server", srv.URL, "--schema", "s", "--index", "i")

	require.NoError(t, err)
	assert.Equal(t, []string{"{}"}, backend.submitted())
	assert.Contains(t, stdout, "Nothing has been indexed.")
}

func TestRootCmd_InvalidServerURL(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "doc.json", `{}`)

	_, _, err := runCmd(t, "", "submit", "--server", "ftp://example.com", "--schema", "s", "--index", "i", path)

	require.Error(t, err)
	assert.Equal(t, perrors.ErrCodeConfigInvalid, perrors.GetCode(err))
}

func TestRootCmd_FlagOverridesProjectConfig(t *testing.T) {
	// Given: a project config selecting one schema
	dir := isolate(t)
	writeFile(t, dir, ".indexpanel.yaml", "defaults:\n  schema: from-file\n  index: idx\n")
	backend, srv := newFakeBackend(t, "1")
	path := writeFile(t, dir, "doc.json", `[]`)

	// When: --schema names another
	_, _, err := runCmd(t, "", "submit", "--server", srv.URL, "--schema", "from-flag", path)

	// Then: the flag wins and the index comes from the file
	require.NoError(t, err)
	require.Len(t, backend.submittedPaths(), 1)
	assert.Equal(t, "/ws/indexes/from-flag/idx/json", backend.submittedPaths()[0])
}

func TestRootCmd_DebugWritesLogFile(t *testing.T) {
	dir := isolate(t)
	_, srv := newFakeBackend(t, "1")
	path := writeFile(t, dir, "doc.json", `[]`)

	_, _, err := runCmd(t, "", "submit", "--debug", "--server", srv.URL, "--schema", "s", "--index", "i", path)
	require.NoError(t, err)

	stdout, _, err := runCmd(t, "", "logs", "--no-color", "--filter", "submission_")
	require.NoError(t, err)
	assert.Contains(t, stdout, "submission_started")
	assert.Contains(t, stdout, "submission_completed")
}

func TestRootCmd_ConfiguredLevelSelectsFileLog(t *testing.T) {
	tests := []struct {
		level     string
		wantEvent bool
	}{
		{level: "info", wantEvent: true},
		{level: "error", wantEvent: false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			// Given: logging.level from the environment and no --debug
			dir := isolate(t)
			t.Setenv("INDEXPANEL_LOG_LEVEL", tt.level)
			_, srv := newFakeBackend(t, "1")
			path := writeFile(t, dir, "doc.json", `[]`)

			// When: submitting
			_, _, err := runCmd(t, "", "submit", "--server", srv.URL, "--schema", "s", "--index", "i", path)
			require.NoError(t, err)

			// Then: the log file holds the submission events only at info
			data, err := os.ReadFile(filepath.Join(dir, ".indexpanel", "logs", "indexpanel.log"))
			require.NoError(t, err)
			if tt.wantEvent {
				assert.Contains(t, string(data), "submission_started")
			} else {
				assert.NotContains(t, string(data), "submission_started")
			}
		})
	}
}

func TestRootCmd_LogsCommandDoesNotCreateLogFile(t *testing.T) {
	dir := isolate(t)

	_, _, err := runCmd(t, "", "logs")

	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, ".indexpanel", "logs", "indexpanel.log"))
}
