package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// AppIdentifier names the data directory shared with the desktop app
	AppIdentifier = "com.dialectic.dev"
	dirPrefix     = "sess_"
	FileName      = "session.json" // per-session document
)

var (
	ErrNotFound   = errors.New("session not found")
	ErrInvalidID  = errors.New("invalid session id")
	ErrLocked     = errors.New("session is locked by another process")
	ErrNoSnapshot = errors.New("no previous snapshot")
)

// NormalizeID strips an optional "sess_" prefix and checks that the rest is
// non-empty and made only of letters, digits, '-' and '_'.
func NormalizeID(id string) (string, error) {
	id = strings.TrimPrefix(id, dirPrefix)
	if id == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidID)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
	}
	return id, nil
}

// IDFromDirName returns the session id for a sess_<id> directory name
func IDFromDirName(name string) (string, bool) {
	if !strings.HasPrefix(name, dirPrefix) {
		return "", false
	}
	id, err := NormalizeID(name)
	if err != nil {
		return "", false
	}
	return id, true
}

// DefaultDataDir returns the platform data directory used by the desktop app:
// $XDG_DATA_HOME or ~/.local/share on Linux, ~/Library/Application Support on
// macOS, %AppData% on Windows.
func DefaultDataDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("resolve data dir: %w", err)
		}
		base = dir
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve data dir: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			base = xdg
			break
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve data dir: %w", err)
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, AppIdentifier), nil
}
