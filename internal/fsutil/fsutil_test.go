package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReadMissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := Read(filepath.Join(t.TempDir(), "no", "such", "dir", "file.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAtomicWriteAndRead(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "config.json")
	content := []byte(`{"version":"1.0.0"}`)

	if err := AtomicWrite(path, content, 0o600); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	for i := 0; i < 5; i++ {
		if err := AtomicWrite(path, []byte("content"), 0o600); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Fatalf("expected only the target file, found %v", names)
	}
}

func TestAtomicWritePreservesPermissions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("old"), 0o640); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	if err := AtomicWrite(path, []byte("new"), 0o600); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o640 {
		t.Fatalf("permissions changed: got %o, want 640", perm)
	}
}

func TestAtomicWriteReplacesContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := AtomicWrite(path, []byte("first"), 0o600); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := AtomicWrite(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("got %q, want %q", got, "second")
	}
}

func TestBackupFileMissingSource(t *testing.T) {
	t.Parallel()

	backup, err := BackupFile(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("BackupFile failed: %v", err)
	}
	if backup != "" {
		t.Fatalf("expected empty backup path, got %q", backup)
	}
}

func TestBackupFileNeverOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "preferences.toml")
	if err := os.WriteFile(path, []byte("v1"), 0o600); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	first, err := BackupFile(path)
	if err != nil {
		t.Fatalf("first backup: %v", err)
	}
	second, err := BackupFile(path)
	if err != nil {
		t.Fatalf("second backup: %v", err)
	}

	if first == second {
		t.Fatalf("backups collided at %q", first)
	}
	for _, b := range []string{first, second} {
		if !strings.Contains(filepath.Base(b), ".backup-") {
			t.Fatalf("unexpected backup name %q", b)
		}
		if !Exists(b) {
			t.Fatalf("backup %q does not exist", b)
		}
	}
}

func TestBackupFilePreservesContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	content := []byte(`{"sessions":[]}`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	backup, err := BackupFile(path)
	if err != nil {
		t.Fatalf("BackupFile failed: %v", err)
	}
	got, err := Read(backup)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("backup content mismatch: got %q", got)
	}
}

func TestCopyFileCreatesDestinationDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.json")
	dst := filepath.Join(dir, "backups", "migration", "src.json")
	if err := os.WriteFile(src, []byte("payload"), 0o600); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}
	got, err := Read(dst)
	if err != nil {
		t.Fatalf("reading copy: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("copy content mismatch: got %q", got)
	}
}

func TestEnsureDirIdempotent(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("first EnsureDir: %v", err)
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("second EnsureDir: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory missing after EnsureDir: %v", err)
	}
}
