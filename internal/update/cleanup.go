package update

import (
	"errors"
	"fmt"
	"os"
)

// CleanupOutcome classifies a cleanup attempt.
type CleanupOutcome int

const (
	CleanupRemoved CleanupOutcome = iota
	CleanupNotFound
	CleanupFailed
)

func (o CleanupOutcome) String() string {
	switch o {
	case CleanupRemoved:
		return "removed"
	case CleanupNotFound:
		return "not found"
	case CleanupFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CleanupResult reports what happened to one directory.
type CleanupResult struct {
	Path    string
	Outcome CleanupOutcome
	Err     error
}

// Cleanup recursively deletes rel under root. rel must name a directory
// strictly inside root. The caller decides whether a failure matters.
func Cleanup(root, rel string) CleanupResult {
	target, err := resolveUnder(root, rel)
	if err != nil {
		return CleanupResult{Path: rel, Outcome: CleanupFailed, Err: &PathTraversalError{Entry: rel, Root: root}}
	}
	if target == root {
		return CleanupResult{Path: target, Outcome: CleanupFailed, Err: fmt.Errorf("%w: refusing to delete the installation root", ErrIO)}
	}

	if _, err := os.Lstat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return CleanupResult{Path: target, Outcome: CleanupNotFound}
		}
		return CleanupResult{Path: target, Outcome: CleanupFailed, Err: fmt.Errorf("%w: %v", ErrIO, err)}
	}

	if err := os.RemoveAll(target); err != nil {
		return CleanupResult{Path: target, Outcome: CleanupFailed, Err: fmt.Errorf("%w: %v", ErrIO, err)}
	}
	return CleanupResult{Path: target, Outcome: CleanupRemoved}
}
