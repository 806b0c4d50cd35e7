package update

import (
	"context"
	"io"

	"github.com/bluecraft-server/bcupdater/internal/types"
)

// Descriptor is the normalized answer to "what should be installed".
type Descriptor struct {
	Version     string           `json:"version,omitempty" yaml:"version,omitempty"` // Empty for resources-only updates
	DownloadURL string           `json:"download_url" yaml:"download_url"`
	Mode        types.UpdateMode `json:"mode" yaml:"mode"`
}

// HasVersion reports whether the descriptor carries a version bump.
func (d *Descriptor) HasVersion() bool {
	return d.Version != ""
}

// Platform describes the current system platform
type Platform struct {
	OS   string // Operating system (windows, darwin, linux)
	Arch string // Architecture (amd64, arm64)
}

// DescriptorResolver produces the descriptor for one run
type DescriptorResolver interface {
	Resolve(ctx context.Context) (*Descriptor, error)
}

// Fetcher opens a byte stream for a URL. total is -1 when the length is unknown.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (body io.ReadCloser, total int64, err error)
}

// ArchiveDownloader stores an archive as a temporary artifact and returns its path
type ArchiveDownloader interface {
	Download(ctx context.Context, token *Token, url string, reporter Reporter) (string, error)
}

// ArchiveExtractor opens and installs a downloaded archive
type ArchiveExtractor interface {
	Open(path string) (*Archive, error)
	Extract(archive *Archive, root string) (Summary, error)
}

// Launcher starts the relaunch target without waiting for it
type Launcher interface {
	Start(path, dir string) error
}

// PrivilegeChecker reports and requests administrator rights.
// Platforms without such a concept report false and return
// ErrElevationUnsupported from RelaunchElevated.
type PrivilegeChecker interface {
	HasElevatedRights() bool
	RelaunchElevated() error
}

// Reporter receives stage changes and byte counts from a run.
// Progress totals are -1 when unknown; done never decreases.
type Reporter interface {
	Stage(state State)
	Progress(done, total int64)
	Finish(result Result)
}

// Notifier receives human-readable notices. Implementations must not block.
type Notifier interface {
	Notify(message string)
}

// VersionRecorder persists the running updater's version
type VersionRecorder interface {
	WriteUpdaterVersion(version string) error
}

// ModeSource supplies the persisted update mode
type ModeSource interface {
	Mode() (types.UpdateMode, error)
}

// DiscardReporter ignores all events.
type DiscardReporter struct{}

func (DiscardReporter) Stage(State) {}
func (DiscardReporter) Progress(int64, int64) {}
func (DiscardReporter) Finish(Result) {}

// DiscardNotifier ignores all notices.
type DiscardNotifier struct{}

func (DiscardNotifier) Notify(string) {}
