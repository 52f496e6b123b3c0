// Package document holds the text being indexed when it comes from a file.
package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
)

// Lock acquisition defaults.
const (
	DefaultLockTimeout = 5 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
)

// File is a document buffer backed by a file on disk. The workflow writes
// the canonical text into it with SetText; Save writes that back to disk.
// File is safe for concurrent use.
type File struct {
	path string
	mode os.FileMode

	mu       sync.Mutex
	original string
	text     string
}

// Open reads path into a new File.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perrors.New(perrors.ErrCodeFileNotFound, fmt.Sprintf("document not found: %s", path), err)
		}
		return nil, perrors.IOError(fmt.Sprintf("failed to read document %s", path), err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	text := string(data)
	return &File{path: path, mode: mode, original: text, text: text}, nil
}

// Read reads a document from r, e.g. stdin. The result cannot be saved.
func Read(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, perrors.IOError("failed to read document", err)
	}
	text := string(data)
	return &File{original: text, text: text}, nil
}

// Path returns the file path, or "" for a document read from a stream.
func (f *File) Path() string { return f.path }

// Text returns the current text.
func (f *File) Text() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text
}

// SetText replaces the current text. Nothing is written until Save.
func (f *File) SetText(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = s
}

// Modified reports whether Save would change the file.
func (f *File) Modified() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.unchangedLocked()
}

// unchangedLocked reports whether the text matches the file, ignoring a
// missing final newline. f.mu must be held.
func (f *File) unchangedLocked() bool {
	return f.text == f.original || render(f.text) == f.original
}

// Save writes the current text back to the file under an exclusive lock
// shared by every indexpanel process. It fails if the file changed on disk
// since it was read.
func (f *File) Save(ctx context.Context) error {
	if f.path == "" {
		return perrors.IOError("document was not read from a file", nil)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.unchangedLocked() {
		return nil
	}
	content := render(f.text)

	lock := flock.New(LockPath(f.path))
	lockCtx, cancel := context.WithTimeout(ctx, DefaultLockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !locked {
		return perrors.New(perrors.ErrCodeFileLocked, fmt.Sprintf("document is locked: %s", f.path), err).
			WithSuggestion("Another indexpanel process may be writing it")
	}
	defer func() { _ = lock.Unlock() }()

	current, err := os.ReadFile(f.path)
	if err != nil {
		return perrors.IOError(fmt.Sprintf("failed to re-read document %s", f.path), err)
	}
	if string(current) != f.original {
		return perrors.IOError(fmt.Sprintf("document changed on disk: %s", f.path), nil).
			WithSuggestion("Reload the file and submit again")
	}

	if err := writeAtomic(f.path, []byte(content), f.mode); err != nil {
		return err
	}
	f.original = content
	f.text = content
	return nil
}

// Reload re-reads the file, dropping any unsaved text.
func (f *File) Reload() error {
	if f.path == "" {
		return nil
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return perrors.IOError(fmt.Sprintf("failed to read document %s", f.path), err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.original = string(data)
	f.text = f.original
	return nil
}

// LockPath returns the lock file guarding writes to path. It lives in the
// temp dir so documents are not littered with lock files.
func LockPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(os.TempDir(), "indexpanel-"+hex.EncodeToString(sum[:8])+".lock")
}

// render terminates text with a newline, as files conventionally are.
func render(text string) string {
	if text == "" || strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n"
}

// writeAtomic writes data to a temp file in the same directory and renames
// it over path.
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return perrors.IOError("failed to create temp file", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return perrors.IOError("failed to write document", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		cleanup()
		return perrors.IOError("failed to set document mode", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return perrors.IOError("failed to write document", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return perrors.IOError("failed to replace document", err)
	}
	return nil
}
