package shasplit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// tempSuffix returns a filesystem-safe, unique suffix for a sibling temp
// path, so concurrent invocations never collide on the same temp slot.
func tempSuffix() string {
	return ".shasplit-tmp-" + uuid.NewString()
}

// MkdirAll idempotently creates path and all necessary parents.
func MkdirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdirs %s: %w", path, err)
	}
	return nil
}

// WriteFile writes data to path with a crash-safe postcondition: either path
// exists with exactly this content, or it does not exist at all. It writes
// to a sibling temp file, fsyncs it, then renames it onto path, replacing
// any existing file atomically.
func WriteFile(path string, data []byte) error {
	if err := MkdirAll(filepath.Dir(path)); err != nil {
		return err
	}

	tmp := path + tempSuffix()
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("fsync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename onto %s: %w", path, err)
	}
	return nil
}

// Symlink creates a symlink at path pointing at target, with the same
// crash-safe postcondition as WriteFile: create at a sibling temp name,
// then rename onto path.
func Symlink(target, path string) error {
	if err := MkdirAll(filepath.Dir(path)); err != nil {
		return err
	}

	tmp := path + tempSuffix()
	if err := os.Symlink(target, tmp); err != nil {
		return fmt.Errorf("create temp symlink for %s: %w", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename onto %s: %w", path, err)
	}
	return nil
}
