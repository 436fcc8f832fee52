// Package publish owns the staging directory of a job and its single-rename
// hand-off to the destination path.
package publish

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"hlspack/internal/fileutil"
)

var (
	// ErrDestinationExists is returned when the destination path is taken.
	ErrDestinationExists = errors.New("destination already exists")
	// ErrLocked is returned when another job holds the destination lock.
	ErrLocked = errors.New("destination locked by another job")
)

// WorkingDir returns the hidden staging directory for dst: "_<base>" next
// to the destination.
func WorkingDir(dst string) string {
	dst = filepath.Clean(dst)
	return filepath.Join(filepath.Dir(dst), "_"+filepath.Base(dst))
}

// ManifestName returns the top-level playlist name for dst.
func ManifestName(dst string) string {
	return filepath.Base(filepath.Clean(dst)) + ".m3u8"
}

// Finalize renames workDir to dst. It refuses to replace an existing
// destination.
func Finalize(workDir, dst string) error {
	exists, err := fileutil.Exists(dst)
	if err != nil {
		return fmt.Errorf("stat destination: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	}
	if err := os.Rename(workDir, dst); err != nil {
		return fmt.Errorf("publish %s: %w", dst, err)
	}
	return nil
}

// Lock is an advisory lock guarding one destination path.
type Lock struct {
	path  string
	flock *flock.Flock
}

// LockPath returns the lock file used for dst under lockDir. The name is a
// hash of the absolute destination path.
func LockPath(lockDir, dst string) (string, error) {
	abs, err := filepath.Abs(dst)
	if err != nil {
		return "", fmt.Errorf("resolve destination: %w", err)
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return filepath.Join(lockDir, hex.EncodeToString(sum[:8])+".lock"), nil
}

// Acquire takes the destination lock without blocking. ErrLocked is
// returned when another process holds it.
func Acquire(lockDir, dst string) (*Lock, error) {
	if strings.TrimSpace(lockDir) == "" {
		return nil, errors.New("lock directory is empty")
	}
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	path, err := LockPath(lockDir, dst)
	if err != nil {
		return nil, err
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dst)
	}
	return &Lock{path: path, flock: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release drops the lock. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	return l.flock.Unlock()
}
