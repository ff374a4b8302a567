// Package fsutil provides the durable file primitives every configuration
// scope is built on: scoped reads, crash-safe atomic writes, and
// timestamped backups.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ErrNotFound is returned by Read when the target file does not exist.
// Callers are expected to treat it as "no document yet", not as a failure.
var ErrNotFound = errors.New("file not found")

// Read reads a file by opening a root at the file's directory.
// This scopes access to the intended directory and avoids path traversal.
// A missing file is reported as ErrNotFound.
func Read(path string) ([]byte, error) {
	cleaned := filepath.Clean(path)
	dir := filepath.Dir(cleaned)
	base := filepath.Base(cleaned)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid file path: %q", path)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer root.Close()

	file, err := root.Open(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// Exists reports whether path exists and is a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// EnsureDir creates the directory and any missing parents. It is idempotent.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}

// AtomicWrite writes data to path so that a crash mid-write never leaves a
// partial file: the previous content either survives intact or is fully
// replaced. Parent directories are created as needed.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	// Preserve the permissions of an existing target.
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	if err := atomicWriteFile(path, data, perm); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// BackupFile copies path to a timestamped sibling and returns the backup
// path. It returns "" with no error when there is nothing to back up.
// An existing backup is never overwritten; a numeric suffix is appended
// until a free name is found.
func BackupFile(path string) (string, error) {
	data, err := Read(path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	stamp := time.Now().Format("20060102-150405")
	backup := fmt.Sprintf("%s.backup-%s", path, stamp)
	for n := 1; Exists(backup); n++ {
		backup = fmt.Sprintf("%s.backup-%s-%d", path, stamp, n)
	}

	perm := os.FileMode(0o600)
	if info, statErr := os.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
	}
	if err := os.WriteFile(backup, data, perm); err != nil {
		return "", fmt.Errorf("writing backup %s: %w", backup, err)
	}
	return backup, nil
}

// CopyFile copies src to dst, creating dst's directory as needed.
func CopyFile(src, dst string) error {
	data, err := Read(src)
	if err != nil {
		return err
	}
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}
