package update

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTokenCancel(t *testing.T) {
	token := NewToken()
	if token.IsCancelled() {
		t.Fatal("new token is cancelled")
	}

	token.Cancel()
	token.Cancel()

	if !token.IsCancelled() {
		t.Fatal("token not cancelled after Cancel")
	}
	select {
	case <-token.Done():
	default:
		t.Fatal("Done not closed after Cancel")
	}
}

func TestTokenContext(t *testing.T) {
	token := NewToken()
	ctx, stop := token.Context(context.Background())
	defer stop()

	token.Cancel()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled with token")
	}
}

func TestTokenRemoveArtifact(t *testing.T) {
	token := NewToken()
	if err := token.RemoveArtifact(); err != nil {
		t.Fatalf("RemoveArtifact() with nothing recorded = %v", err)
	}

	path := filepath.Join(t.TempDir(), "partial.zip")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	token.SetArtifact(path)

	if err := token.RemoveArtifact(); err != nil {
		t.Fatalf("RemoveArtifact() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("artifact still exists: %v", err)
	}
	if token.Artifact() != "" {
		t.Errorf("Artifact() = %q after removal", token.Artifact())
	}

	token.SetArtifact(path)
	if err := token.RemoveArtifact(); err != nil {
		t.Errorf("RemoveArtifact() on missing file = %v", err)
	}
}
