package document

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
	"github.com/Aman-CERP/indexpanel/internal/workflow"
)

var _ workflow.Buffer = (*File)(nil)

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestOpen_ReadsContent(t *testing.T) {
	path := writeDoc(t, `{"a":1}`)

	f, err := Open(path)

	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, f.Text())
	assert.Equal(t, path, f.Path())
	assert.False(t, f.Modified())
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.json"))

	require.Error(t, err)
	assert.Equal(t, perrors.ErrCodeFileNotFound, perrors.GetCode(err))
}

func TestRead_Stream(t *testing.T) {
	f, err := Read(strings.NewReader("[1,2]"))

	require.NoError(t, err)
	assert.Equal(t, "[1,2]", f.Text())
	assert.Empty(t, f.Path())

	f.SetText("[\n  1,\n  2\n]")
	assert.Error(t, f.Save(context.Background()))
}

func TestFile_SaveWritesCanonicalText(t *testing.T) {
	// Given: a compact document
	path := writeDoc(t, `{"a":1}`)
	f, err := Open(path)
	require.NoError(t, err)

	// When: the canonical text is set and saved
	f.SetText("{\n  \"a\": 1\n}")
	require.True(t, f.Modified())
	require.NoError(t, f.Save(context.Background()))

	// Then: the file holds it with a final newline and keeps its mode
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}\n", string(data))
	assert.False(t, f.Modified())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFile_SaveUnchangedIsNoop(t *testing.T) {
	// Given: a file already in canonical form
	path := writeDoc(t, "{\n  \"a\": 1\n}\n")
	f, err := Open(path)
	require.NoError(t, err)
	before, err := os.Stat(path)
	require.NoError(t, err)

	// When: the same canonical text (without newline) is saved
	f.SetText("{\n  \"a\": 1\n}")
	assert.False(t, f.Modified())
	require.NoError(t, f.Save(context.Background()))

	// Then: the file was not rewritten
	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestFile_SaveRefusesConcurrentEdit(t *testing.T) {
	path := writeDoc(t, `{"a":1}`)
	f, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"a":2}`), 0o600))
	f.SetText("{\n  \"a\": 1\n}")

	err = f.Save(context.Background())

	require.Error(t, err)
	assert.Contains(t, perrors.Message(err), "changed on disk")
	data, _ := os.ReadFile(path)
	assert.Equal(t, `{"a":2}`, string(data))
}

func TestFile_SaveWaitsForLock(t *testing.T) {
	// Given: another holder of the document lock
	path := writeDoc(t, `[]`)
	f, err := Open(path)
	require.NoError(t, err)
	f.SetText("[]\n\n")

	other := flock.New(LockPath(path))
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	// When: saving with a short deadline
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = f.Save(ctx)

	// Then: the save reports the lock
	require.Error(t, err)
	assert.Equal(t, perrors.ErrCodeFileLocked, perrors.GetCode(err))

	// And: succeeds once released
	require.NoError(t, other.Unlock())
	assert.NoError(t, f.Save(context.Background()))
}

func TestFile_Reload(t *testing.T) {
	path := writeDoc(t, `1`)
	f, err := Open(path)
	require.NoError(t, err)
	f.SetText("2")

	require.NoError(t, os.WriteFile(path, []byte(`3`), 0o600))
	require.NoError(t, f.Reload())

	assert.Equal(t, "3", f.Text())
	assert.False(t, f.Modified())
}

func TestLockPath_StablePerFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")

	assert.Equal(t, LockPath(a), LockPath(a))
	assert.NotEqual(t, LockPath(a), LockPath(filepath.Join(dir, "b.json")))
	assert.True(t, strings.HasSuffix(LockPath(a), ".lock"))
}

func TestFile_WorksAsWorkflowBuffer(t *testing.T) {
	path := writeDoc(t, `{"b":[1,2]}`)
	f, err := Open(path)
	require.NoError(t, err)
	ctrl := workflow.New(workflow.SubmitterFunc(nil))

	// A parse failure must leave the file buffer untouched.
	f.SetText("{")
	_, err = ctrl.Submit(context.Background(), workflow.Selection{Schema: "s", Index: "i"}, f)
	require.Error(t, err)
	assert.Equal(t, "{", f.Text())
}
