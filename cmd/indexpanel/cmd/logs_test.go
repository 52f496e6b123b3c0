package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
)

const testLog = `{"time":"2026-03-01T10:00:00Z","level":"DEBUG","msg":"backend_request","status":200}
{"time":"2026-03-01T10:00:01Z","level":"INFO","msg":"submission_started","schema":"s"}
{"time":"2026-03-01T10:00:02Z","level":"WARN","msg":"submission_failed","error":"boom"}
`

func TestLogsCmd_Tail(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{"all", nil, []string{"backend_request", "submission_started", "submission_failed"}, nil},
		{"last line", []string{"-n", "1"}, []string{"submission_failed"}, []string{"submission_started"}},
		{"level", []string{"--level", "info"}, []string{"submission_started", "submission_failed"}, []string{"backend_request"}},
		{"filter", []string{"--filter", "started"}, []string{"submission_started"}, []string{"submission_failed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := writeFile(t, dir, "test.log", testLog)

			stdout, _, err := runCmd(t, "", append([]string{"logs", "--no-color", "--file", path}, tt.args...)...)

			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, stdout, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, stdout, nw)
			}
		})
	}
}

func TestLogsCmd_DefaultFileMissing(t *testing.T) {
	isolate(t)

	_, _, err := runCmd(t, "", "logs")

	require.Error(t, err)
	assert.Equal(t, perrors.ErrCodeFileNotFound, perrors.GetCode(err))
}

func TestLogsCmd_InvalidFilter(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "test.log", testLog)

	_, _, err := runCmd(t, "", "logs", "--file", path, "--filter", "(")

	assert.Error(t, err)
}

func TestRunLogs_Follow(t *testing.T) {
	// Given: a followed log file
	dir := t.TempDir()
	path := filepath.Join(dir, "follow.log")
	require.NoError(t, os.WriteFile(path, []byte(testLog), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- runLogs(ctx, out, logsOptions{follow: true, lines: 0, logFile: path}, true)
	}()
	time.Sleep(200 * time.Millisecond)

	// When: a record is appended
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"time":"2026-03-01T10:00:09Z","level":"INFO","msg":"appended"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Then: it is printed
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "appended")
	}, 2*time.Second, 20*time.Millisecond)
	assert.NotContains(t, out.String(), "backend_request", "-n 0 shows no history")

	cancel()
	assert.NoError(t, <-done)
}
