package update

import (
	"errors"
	"fmt"

	"github.com/bluecraft-server/bcupdater/internal/state"
)

var (
	// ErrFetch covers network failures and non-2xx responses.
	ErrFetch = errors.New("fetch failed")
	// ErrParse covers malformed descriptor payloads.
	ErrParse = errors.New("malformed descriptor")
	// ErrNoMatch means a text payload had no "<version>|<url>" pair.
	ErrNoMatch = errors.New("no version|url pair found")
	// ErrIO covers filesystem failures during extraction and cleanup.
	ErrIO = errors.New("filesystem error")
	// ErrArchive means the downloaded bytes are not a readable zip archive.
	ErrArchive = errors.New("cannot open archive")
	// ErrPathTraversal is matched by PathTraversalError.
	ErrPathTraversal = errors.New("archive entry escapes installation root")
	// ErrCancelled means the run was cancelled by the user.
	ErrCancelled = errors.New("update cancelled")
	// ErrElevationUnsupported is returned where no elevation mechanism exists.
	ErrElevationUnsupported = errors.New("elevation is not supported on this platform")

	// ErrInvalidMode is matched by InvalidModeError.
	ErrInvalidMode = state.ErrInvalidMode
)

// InvalidModeError reports an unrecognized persisted update mode.
type InvalidModeError = state.InvalidModeError

// PathTraversalError names the archive entry that would be written outside the root.
type PathTraversalError struct {
	Entry string
	Root  string
}

func (e *PathTraversalError) Error() string {
	return fmt.Sprintf("archive entry %q resolves outside %s", e.Entry, e.Root)
}

// Is makes errors.Is(err, ErrPathTraversal) match.
func (e *PathTraversalError) Is(target error) bool {
	return target == ErrPathTraversal
}

// Stage names the part of a run that failed.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
)

// StageError attaches the failing stage to a run error.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
