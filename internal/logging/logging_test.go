package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()

	if filepath.Base(path) != "indexpanel.log" {
		t.Errorf("DefaultLogPath should end with indexpanel.log, got: %s", path)
	}
	if !strings.Contains(path, filepath.Join(".indexpanel", "logs")) {
		t.Errorf("DefaultLogPath should be under .indexpanel/logs, got: %s", path)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, DefaultLogPath(), cfg.FilePath)
	assert.Equal(t, 10, cfg.MaxSizeMB)
	assert.Equal(t, 5, cfg.MaxFiles)
	assert.False(t, cfg.WriteToStderr)

	assert.Equal(t, "debug", DebugConfig().Level)
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	// Given: a logger on a temp file
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	logger, cleanup, err := Setup(Config{Level: "debug", FilePath: path})
	require.NoError(t, err)

	// When: logging a submission event
	logger.Info("submission_started", slog.String("submission_id", "abc"))
	cleanup()

	// Then: the record is JSON with the attribute
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"submission_started"`)
	assert.Contains(t, string(data), `"submission_id":"abc"`)
}

func TestSetup_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	logger, cleanup, err := Setup(Config{Level: "warn", FilePath: path})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestFanout_RoutesByHandlerLevel(t *testing.T) {
	// Given: a debug file and a warn file behind one logger
	dir := t.TempDir()
	debugPath, warnPath := filepath.Join(dir, "debug.log"), filepath.Join(dir, "warn.log")
	debugLogger, cleanupDebug, err := Setup(Config{Level: "debug", FilePath: debugPath})
	require.NoError(t, err)
	warnLogger, cleanupWarn, err := Setup(Config{Level: "warn", FilePath: warnPath})
	require.NoError(t, err)
	logger := slog.New(fanout{debugLogger.Handler(), warnLogger.Handler()}).With(slog.String("run", "r1"))

	// When: logging at two levels
	logger.Debug("submission_started")
	logger.Warn("history_unavailable")
	cleanupDebug()
	cleanupWarn()

	// Then: each file gets what its level admits, with shared attributes
	debugData, err := os.ReadFile(debugPath)
	require.NoError(t, err)
	assert.Contains(t, string(debugData), "submission_started")
	assert.Contains(t, string(debugData), "history_unavailable")
	assert.Contains(t, string(debugData), `"run":"r1"`)

	warnData, err := os.ReadFile(warnPath)
	require.NoError(t, err)
	assert.NotContains(t, string(warnData), "submission_started")
	assert.Contains(t, string(warnData), "history_unavailable")
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := LevelFromString(tt.input); got != tt.want {
				t.Errorf("LevelFromString(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindLogFile_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	got, err := FindLogFile(path)

	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestFindLogFile_ExplicitMissing(t *testing.T) {
	_, err := FindLogFile(filepath.Join(t.TempDir(), "missing.log"))

	assert.Error(t, err)
}

// =============================================================================
// RotatingWriter
// =============================================================================

func TestRotatingWriter_Rotation(t *testing.T) {
	// Given: a writer with a 1MB limit
	path := filepath.Join(t.TempDir(), "r.log")
	w, err := NewRotatingWriter(path, 1, 3)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	w.SetImmediateSync(false)

	// When: writing past the limit
	chunk := []byte(strings.Repeat("x", 600*1024))
	for i := 0; i < 3; i++ {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}

	// Then: older content moved to numbered files
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(chunk)), info.Size())
}

func TestRotatingWriter_MaxFilesLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()
	w.SetImmediateSync(false)

	chunk := []byte(strings.Repeat("y", 700*1024))
	for i := 0; i < 6; i++ {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}

	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")
}

func TestRotatingWriter_OversizedFirstWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	_, err = w.Write([]byte(strings.Repeat("z", 2*1024*1024)))

	require.NoError(t, err)
	assert.NoFileExists(t, path+".1")
}

func TestRotatingWriter_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	_, err = w.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(data))
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "r.log"), 1, 2)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))

	assert.ErrorIs(t, err, os.ErrClosed)
	assert.NoError(t, w.Sync())
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	w.SetImmediateSync(false)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_, _ = fmt.Fprintf(w, "g%d-%d\n", g, i)
			}
		}(g)
	}
	wg.Wait()
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 400, strings.Count(string(data), "\n"))
}

// =============================================================================
// Viewer
// =============================================================================

const sampleLog = `{"time":"2026-03-01T10:00:00.000Z","level":"DEBUG","msg":"backend_request","status":200}
{"time":"2026-03-01T10:00:01.000Z","level":"INFO","msg":"submission_started","schema":"s1"}
not json at all
{"time":"2026-03-01T10:00:02.000Z","level":"WARN","msg":"submission_failed","error":"boom"}
{"time":"2026-03-01T10:00:03.000Z","level":"INFO","msg":"submission_completed","count":3}
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.log")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0o644))
	return path
}

func TestViewer_TailLastN(t *testing.T) {
	v := NewViewer(ViewerConfig{NoColor: true}, nil)

	entries, err := v.Tail(writeSample(t), 2)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "submission_failed", entries[0].Msg)
	assert.Equal(t, "submission_completed", entries[1].Msg)
}

func TestViewer_TailMoreThanFile(t *testing.T) {
	v := NewViewer(ViewerConfig{NoColor: true}, nil)

	entries, err := v.Tail(writeSample(t), 100)

	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.False(t, entries[2].Valid)
	assert.Equal(t, "not json at all", entries[2].Raw)
}

func TestViewer_TailLevelFilter(t *testing.T) {
	v := NewViewer(ViewerConfig{Level: "warn", NoColor: true}, nil)

	entries, err := v.Tail(writeSample(t), 100)

	require.NoError(t, err)
	// Unparseable lines are never filtered by level.
	require.Len(t, entries, 2)
	assert.Equal(t, "not json at all", entries[0].Raw)
	assert.Equal(t, "submission_failed", entries[1].Msg)
}

func TestViewer_TailPatternFilter(t *testing.T) {
	v := NewViewer(ViewerConfig{Pattern: regexp.MustCompile(`submission_`), NoColor: true}, nil)

	entries, err := v.Tail(writeSample(t), 100)

	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestViewer_TailMissingFile(t *testing.T) {
	v := NewViewer(ViewerConfig{}, nil)

	_, err := v.Tail(filepath.Join(t.TempDir(), "none.log"), 10)

	assert.Error(t, err)
}

func TestViewer_Format(t *testing.T) {
	v := NewViewer(ViewerConfig{NoColor: true}, nil)
	entry := parseLine(`{"time":"2026-03-01T10:00:01.5Z","level":"INFO","msg":"submission_started","schema":"s1","index":"i1"}`)

	assert.Equal(t, "10:00:01.500 INFO  submission_started index=i1 schema=s1", v.Format(entry))
	assert.Equal(t, "plain", v.Format(parseLine("plain")))
}

func TestViewer_Print(t *testing.T) {
	var out strings.Builder
	v := NewViewer(ViewerConfig{NoColor: true}, &out)

	v.Print([]Entry{parseLine("one"), parseLine("two")})

	assert.Equal(t, "one\ntwo\n", out.String())
}

func TestViewer_Follow(t *testing.T) {
	// Given: a log file being followed
	path := writeSample(t)
	v := NewViewer(ViewerConfig{NoColor: true}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	entries := make(chan Entry, 4)
	done := make(chan error, 1)
	go func() { done <- v.Follow(ctx, path, entries) }()
	time.Sleep(2 * pollInterval)

	// When: a new record is appended
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"time":"2026-03-01T10:00:09Z","level":"INFO","msg":"appended"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	// Then: only the new record arrives
	select {
	case entry := <-entries:
		assert.Equal(t, "appended", entry.Msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no entry followed")
	}

	cancel()
	assert.NoError(t, <-done)
}
