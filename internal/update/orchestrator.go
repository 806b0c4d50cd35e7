package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// State is a step of an update run.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateFetching
	StateCleaning
	StateExtracting
	StateRelaunching
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving descriptor"
	case StateFetching:
		return "fetching"
	case StateCleaning:
		return "cleaning"
	case StateExtracting:
		return "extracting"
	case StateRelaunching:
		return "relaunching"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the run has ended in s.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Status is the user-facing line for a terminal state.
func (s State) Status() string {
	switch s {
	case StateCompleted:
		return "update complete"
	case StateCancelled:
		return "update cancelled"
	case StateFailed:
		return "update failed"
	default:
		return s.String()
	}
}

// Result is the outcome of one run.
type Result struct {
	State       State
	Descriptor  *Descriptor
	Summary     Summary
	Transitions []State
	Err         error // *StageError when State is StateFailed
}

// Options configures an Orchestrator.
type Options struct {
	Root         string   // Installation root; every write stays under it
	Version      string   // Version of the running updater
	CleanDirs    []string // Directories under Root deleted before extraction
	LauncherName string   // Relaunch target in Root, already platform-named
	SkipLaunch   bool
}

// Orchestrator drives one update run: resolve, fetch, clean, extract,
// relaunch. Steps run strictly in sequence on the caller's goroutine.
type Orchestrator struct {
	opts       Options
	resolver   DescriptorResolver
	downloader ArchiveDownloader
	extractor  ArchiveExtractor
	launcher   Launcher
	versions   VersionRecorder
	reporter   Reporter
	logger     *log.Logger

	state       State
	transitions []State
}

// NewOrchestrator wires the collaborators of a run.
func NewOrchestrator(opts Options, resolver DescriptorResolver, downloader ArchiveDownloader, extractor ArchiveExtractor) *Orchestrator {
	return &Orchestrator{
		opts:       opts,
		resolver:   resolver,
		downloader: downloader,
		extractor:  extractor,
		launcher:   ExecLauncher{},
		reporter:   DiscardReporter{},
		logger:     log.New(io.Discard),
	}
}

// WithLauncher replaces the process launcher
func (o *Orchestrator) WithLauncher(l Launcher) *Orchestrator {
	o.launcher = l
	return o
}

// WithVersionRecorder sets where the updater version is written at start
func (o *Orchestrator) WithVersionRecorder(v VersionRecorder) *Orchestrator {
	o.versions = v
	return o
}

// WithReporter sets the progress reporter
func (o *Orchestrator) WithReporter(r Reporter) *Orchestrator {
	o.reporter = r
	return o
}

// WithLogger sets the logger
func (o *Orchestrator) WithLogger(l *log.Logger) *Orchestrator {
	o.logger = l
	return o
}

// Run performs the update. Cancellation through token is honored until
// extraction starts; after that the run completes or fails.
func (o *Orchestrator) Run(ctx context.Context, token *Token) Result {
	o.state = StateIdle
	o.transitions = nil

	o.transition(StateResolving)
	o.recordVersion()

	if token.IsCancelled() {
		return o.finish(StateCancelled, nil, Summary{}, nil)
	}

	netCtx, stop := token.Context(ctx)
	defer stop()

	desc, err := o.resolver.Resolve(netCtx)
	if err != nil {
		if token.IsCancelled() {
			return o.finish(StateCancelled, nil, Summary{}, nil)
		}
		return o.fail(StageResolve, nil, Summary{}, err)
	}
	if desc.DownloadURL == "" {
		return o.fail(StageResolve, desc, Summary{}, fmt.Errorf("%w: empty download url", ErrParse))
	}
	if desc.HasVersion() {
		o.logger.Info("new version found", "version", desc.Version, "mode", desc.Mode)
	} else {
		o.logger.Info("refreshing resources", "mode", desc.Mode)
	}

	o.transition(StateFetching)
	path, err := o.downloader.Download(netCtx, token, desc.DownloadURL, o.reporter)
	if errors.Is(err, ErrCancelled) {
		return o.finish(StateCancelled, desc, Summary{}, nil)
	}
	if err != nil {
		return o.fail(StageFetch, desc, Summary{}, err)
	}
	defer func() {
		if err := token.RemoveArtifact(); err != nil {
			o.logger.Warn("failed to remove downloaded archive", "path", path, "err", err)
		}
	}()

	if token.IsCancelled() {
		return o.finish(StateCancelled, desc, Summary{}, nil)
	}

	archive, err := o.extractor.Open(path)
	if err != nil {
		return o.fail(StageFetch, desc, Summary{}, err)
	}
	defer archive.Close()

	o.transition(StateCleaning)
	for _, dir := range o.opts.CleanDirs {
		o.proceedAfterCleanup(Cleanup(o.opts.Root, dir))
	}

	o.transition(StateExtracting)
	sum, err := o.extractor.Extract(archive, o.opts.Root)
	if err != nil {
		o.logger.Error("extraction stopped; installation may be partially updated", "files", sum.Files, "err", err)
		return o.fail(StageExtract, desc, sum, err)
	}
	o.logger.Info("update installed", "files", sum.Files, "dirs", sum.Dirs)

	o.transition(StateRelaunching)
	o.relaunch()

	return o.finish(StateCompleted, desc, sum, nil)
}

// proceedAfterCleanup is the cleanup policy: failures are logged and the
// run continues with extraction. A missing directory is expected.
func (o *Orchestrator) proceedAfterCleanup(res CleanupResult) {
	switch res.Outcome {
	case CleanupRemoved:
		o.logger.Info("removed directory", "path", res.Path)
	case CleanupNotFound:
		o.logger.Debug("directory not present", "path", res.Path)
	case CleanupFailed:
		o.logger.Warn("cleanup failed, continuing", "path", res.Path, "err", res.Err)
	}
}

// relaunch starts the launcher if present. A missing or failing launcher
// does not fail the update.
func (o *Orchestrator) relaunch() {
	if o.opts.SkipLaunch {
		o.logger.Debug("relaunch skipped")
		return
	}
	if o.opts.LauncherName == "" {
		o.logger.Warn("no relaunch target configured")
		return
	}

	target := filepath.Join(o.opts.Root, o.opts.LauncherName)
	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		o.logger.Warn("relaunch target not found", "path", target)
		return
	}

	if err := o.launcher.Start(target, o.opts.Root); err != nil {
		o.logger.Error("failed to start relaunch target", "path", target, "err", err)
		return
	}
	o.logger.Info("relaunched", "path", target)
}

func (o *Orchestrator) recordVersion() {
	if o.versions == nil || o.opts.Version == "" {
		return
	}
	if err := o.versions.WriteUpdaterVersion(o.opts.Version); err != nil {
		o.logger.Warn("failed to record updater version", "err", err)
	}
}

func (o *Orchestrator) transition(s State) {
	o.logger.Debug("state", "from", o.state, "to", s)
	o.state = s
	o.transitions = append(o.transitions, s)
	if !s.IsTerminal() {
		o.reporter.Stage(s)
	}
}

func (o *Orchestrator) fail(stage Stage, desc *Descriptor, sum Summary, err error) Result {
	o.logger.Error(StateFailed.Status(), "stage", stage, "err", err)
	return o.finish(StateFailed, desc, sum, &StageError{Stage: stage, Err: err})
}

func (o *Orchestrator) finish(s State, desc *Descriptor, sum Summary, err error) Result {
	o.transition(s)
	if s != StateFailed {
		o.logger.Info(s.Status())
	}
	res := Result{
		State:       s,
		Descriptor:  desc,
		Summary:     sum,
		Transitions: append([]State(nil), o.transitions...),
		Err:         err,
	}
	o.reporter.Finish(res)
	return res
}
