package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const lockFileName = "session.lock"

// fileLock is an advisory cross-process lock: a file created with O_EXCL.
// A lock file older than stale is assumed abandoned and taken over.
type fileLock struct {
	path string
}

func acquireFileLock(ctx context.Context, dir string, stale, retry time.Duration) (*fileLock, error) {
	path := filepath.Join(dir, lockFileName)
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
			_ = f.Close()
			return &fileLock{path: path}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}

		if info, statErr := os.Stat(path); statErr == nil && time.Since(info.ModTime()) > stale {
			_ = os.Remove(path)
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		case <-time.After(retry):
		}
	}
}

func (l *fileLock) release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
