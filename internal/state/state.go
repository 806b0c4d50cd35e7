// Package state reads and writes the small on-disk files the updater keeps
// under the installation root: the running updater's version and the
// persisted update-mode preference.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bluecraft-server/bcupdater/internal/types"
)

const (
	// DefaultDir is the state directory relative to the installation root.
	DefaultDir = "Version_Check"
	// VersionFile records the version of the updater that last ran.
	VersionFile = "Updater_Version.txt"
	// ModeFile records the update mode preference: Full or Resources.
	ModeFile = "Update_Partner.txt"
)

// ErrInvalidMode is matched by InvalidModeError.
var ErrInvalidMode = errors.New("invalid update mode")

// InvalidModeError reports unrecognized content in the mode file.
type InvalidModeError struct {
	Path  string
	Value string
}

func (e *InvalidModeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid update mode %q (must be Full or Resources)", e.Value)
	}
	return fmt.Sprintf("invalid update mode %q in %s (must be Full or Resources)", e.Value, e.Path)
}

// Is makes errors.Is(err, ErrInvalidMode) match.
func (e *InvalidModeError) Is(target error) bool {
	return target == ErrInvalidMode
}

// Store is the Version_Check directory of one installation root.
type Store struct {
	Root string
	Dir  string

	mu sync.Mutex
}

// NewStore returns a store rooted at root using the default directory.
func NewStore(root string) *Store {
	return &Store{Root: root, Dir: DefaultDir}
}

// Path returns the absolute path of a file inside the state directory.
func (s *Store) Path(name string) string {
	dir := s.Dir
	if dir == "" {
		dir = DefaultDir
	}
	return filepath.Join(s.Root, dir, name)
}

// WriteUpdaterVersion overwrites the version file with the running updater's version.
func (s *Store) WriteUpdaterVersion(version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(VersionFile, version)
}

// UpdaterVersion returns the recorded updater version, or "" if none was written.
func (s *Store) UpdaterVersion() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.Path(VersionFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", VersionFile, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Mode returns the persisted update mode. A missing file is created with
// Full and Full is returned.
func (s *Store) Mode() (types.UpdateMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(ModeFile)
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to read %s: %w", ModeFile, err)
		}
		if err := s.write(ModeFile, types.ModeFull.String()); err != nil {
			return "", err
		}
		return types.ModeFull, nil
	}

	value := strings.TrimSpace(string(b))
	mode := types.UpdateMode(value)
	if err := mode.Validate(); err != nil {
		return "", &InvalidModeError{Path: path, Value: value}
	}
	return mode, nil
}

// SetMode persists a new update mode. The file is left untouched when the
// stored value already matches.
func (s *Store) SetMode(mode types.UpdateMode) error {
	if err := mode.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, err := os.ReadFile(s.Path(ModeFile)); err == nil && strings.TrimSpace(string(b)) == mode.String() {
		return nil
	}
	return s.write(ModeFile, mode.String())
}

// write replaces name atomically via a temporary file in the same directory.
func (s *Store) write(name, content string) error {
	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
