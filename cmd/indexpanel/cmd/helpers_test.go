package cmd

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeBackend serves the /ws/indexes API with fixed catalog replies and a
// fixed submission answer. It records every submitted body.
type fakeBackend struct {
	mu      sync.Mutex
	bodies  []string
	paths   []string
	status  int
	answer  string
	catalog map[string]string
}

func newFakeBackend(t *testing.T, answer string) (*fakeBackend, *httptest.Server) {
	t.Helper()
	b := &fakeBackend{
		status: http.StatusOK,
		answer: answer,
		catalog: map[string]string{
			"/ws/indexes":                     `["shop","blog"]`,
			"/ws/indexes/shop":                `["products","orders"]`,
			"/ws/indexes/blog":                `[]`,
			"/ws/indexes/shop/products/fields": `{"title":{"type":"text"},"price":{"type":"double"}}`,
		},
	}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/json") {
		body, _ := io.ReadAll(r.Body)
		b.bodies = append(b.bodies, string(body))
		b.paths = append(b.paths, r.URL.Path)
		w.WriteHeader(b.status)
		_, _ = io.WriteString(w, b.answer)
		return
	}

	reply, ok := b.catalog[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = io.WriteString(w, reply)
}

func (b *fakeBackend) submitted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.bodies...)
}

func (b *fakeBackend) submittedPaths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.paths...)
}

func (b *fakeBackend) setStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
}

// isolate points HOME, XDG_CONFIG_HOME and the working directory at a
// fresh temp dir so no real configuration or history is touched.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	for _, name := range []string{"INDEXPANEL_SERVER_URL", "INDEXPANEL_TIMEOUT", "INDEXPANEL_SCHEMA", "INDEXPANEL_INDEX", "INDEXPANEL_LOG_LEVEL"} {
		t.Setenv(name, "")
	}
	t.Setenv("INDEXPANEL_HISTORY_PATH", filepath.Join(dir, "history.db"))
	t.Setenv("NO_COLOR", "1")
	t.Chdir(dir)
	return dir
}

// runCmd executes the root command with args and returns stdout and stderr.
func runCmd(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// syncBuffer is a bytes.Buffer safe for writers on several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
