package update

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
)

// Token carries the cancellation request for one run and the path of the
// temporary artifact the run is writing. It is created once per run and
// passed to every step that can observe cancellation.
type Token struct {
	cancelled atomic.Bool
	once      sync.Once
	done      chan struct{}

	mu       sync.Mutex
	artifact string
}

// NewToken returns a token that is not cancelled.
func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel requests cancellation. Calling it more than once has no further effect.
func (t *Token) Cancel() {
	t.once.Do(func() {
		t.cancelled.Store(true)
		close(t.done)
	})
}

// IsCancelled reports whether Cancel has been called.
func (t *Token) IsCancelled() bool {
	return t.cancelled.Load()
}

// Done is closed when Cancel is called.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Context derives a context that is cancelled together with the token, so
// blocked network reads return promptly after Cancel.
func (t *Token) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-t.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// SetArtifact records the temporary file currently being written.
func (t *Token) SetArtifact(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.artifact = path
}

// Artifact returns the recorded temporary file, or "".
func (t *Token) Artifact() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.artifact
}

// RemoveArtifact deletes the recorded temporary file and forgets it.
// The path is read and removed under one lock.
func (t *Token) RemoveArtifact() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.artifact == "" {
		return nil
	}
	err := os.Remove(t.artifact)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	if err == nil {
		t.artifact = ""
	}
	return err
}
