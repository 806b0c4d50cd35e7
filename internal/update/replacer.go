package update

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileReplacer writes files so that a reader (or a crash) never observes a
// half-written file: content goes to a sibling temporary file that is then
// renamed over the target. No backup of the previous file is kept.
type FileReplacer struct{}

// NewFileReplacer creates a new file replacer
func NewFileReplacer() *FileReplacer {
	return &FileReplacer{}
}

// Replace writes src to target with perm, overwriting any existing file.
// Executable bits already present on target are kept.
func (r *FileReplacer) Replace(target string, src io.Reader, perm os.FileMode) error {
	if info, err := os.Stat(target); err == nil {
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrIO, target)
		}
		perm |= info.Mode().Perm() & 0o111
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".new-*")
	if err != nil {
		return fmt.Errorf("%w: failed to create temporary file: %v", ErrIO, err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath) // Clean up partial file
		return fmt.Errorf("%w: failed to write %s: %v", ErrIO, target, err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to flush %s: %v", ErrIO, target, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to close %s: %v", ErrIO, target, err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to set permissions on %s: %v", ErrIO, target, err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to replace %s: %v", ErrIO, target, err)
	}

	return nil
}
