package logging

import (
	"os"
	"path/filepath"

	perrors "github.com/Aman-CERP/indexpanel/internal/errors"
)

// DefaultLogDir returns ~/.indexpanel/logs, or a temp dir without a home.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".indexpanel", "logs")
	}
	return filepath.Join(home, ".indexpanel", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "indexpanel.log")
}

// FindLogFile returns explicit if it exists, otherwise the default log file.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", perrors.New(perrors.ErrCodeFileNotFound, "log file not found: "+explicit, err)
		}
		return explicit, nil
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err != nil {
		return "", perrors.New(perrors.ErrCodeFileNotFound, "no log file found at "+path, err).
			WithSuggestion("Run a command such as 'indexpanel submit' to create it")
	}
	return path, nil
}
