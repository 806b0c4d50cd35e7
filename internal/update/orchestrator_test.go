package update

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/bluecraft-server/bcupdater/internal/state"
	"github.com/bluecraft-server/bcupdater/internal/types"
)

type fakeLauncher struct {
	mu     sync.Mutex
	starts []string
	err    error
}

func (f *fakeLauncher) Start(path, dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, path)
	return f.err
}

// countingExtractor records how often the archive is opened and extracted.
type countingExtractor struct {
	*Extractor
	opens    int
	extracts int
}

func (c *countingExtractor) Open(path string) (*Archive, error) {
	c.opens++
	return c.Extractor.Open(path)
}

func (c *countingExtractor) Extract(a *Archive, root string) (Summary, error) {
	c.extracts++
	return c.Extractor.Extract(a, root)
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(context.Context) (*Descriptor, error) {
	return nil, f.err
}

type harness struct {
	root      string
	tmp       string
	store     *state.Store
	launcher  *fakeLauncher
	extractor *countingExtractor
	reporter  *recordingReporter
	logs      *bytes.Buffer
	server    *httptest.Server
}

// newHarness serves a JSON descriptor whose full and resources URLs both
// point at archive.
func newHarness(t *testing.T, archive []byte) *harness {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/descriptor", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		fmt.Fprintf(w, `{"version_downloader":"1.0.0.7","url_downloader":"%s/full.zip","url_resource":"%s/res.zip"}`, base, base)
	})
	serveArchive := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}
	mux.HandleFunc("/full.zip", serveArchive)
	mux.HandleFunc("/res.zip", serveArchive)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	root := t.TempDir()
	return &harness{
		root:      root,
		tmp:       t.TempDir(),
		store:     state.NewStore(root),
		launcher:  &fakeLauncher{},
		extractor: &countingExtractor{Extractor: NewExtractor()},
		reporter:  &recordingReporter{},
		logs:      &bytes.Buffer{},
		server:    server,
	}
}

func (h *harness) orchestrator(opts Options) *Orchestrator {
	opts.Root = h.root
	if opts.Version == "" {
		opts.Version = "1.0.0.6"
	}
	logger := log.New(h.logs)
	resolver := NewResolver(h.server.URL+"/descriptor", h.store)
	downloader := NewDownloader(NewHTTPFetcher("bcupdater-test"), h.tmp).WithChunkSize(64)
	return NewOrchestrator(opts, resolver, downloader, h.extractor).
		WithLauncher(h.launcher).
		WithVersionRecorder(h.store).
		WithReporter(h.reporter).
		WithLogger(logger)
}

func (h *harness) writeLauncher(t *testing.T) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(h.root, "Launcher"), []byte("bin"), 0o755); err != nil {
		t.Fatal(err)
	}
}

var sampleArchive = []zipEntry{
	{Name: "Resources/a.txt", Body: "alpha"},
	{Name: "Resources/sub/b.txt", Body: strings.Repeat("b", 500)},
}

func TestRunCompletesAndRelaunches(t *testing.T) {
	h := newHarness(t, buildZip(t, sampleArchive))
	h.writeLauncher(t)

	res := h.orchestrator(Options{CleanDirs: []string{"Resources"}, LauncherName: "Launcher"}).
		Run(context.Background(), NewToken())

	if res.State != StateCompleted {
		t.Fatalf("State = %v, err = %v; want completed", res.State, res.Err)
	}
	if res.Descriptor == nil || res.Descriptor.Version != "1.0.0.7" {
		t.Errorf("Descriptor = %+v", res.Descriptor)
	}

	wantTransitions := []State{StateResolving, StateFetching, StateCleaning, StateExtracting, StateRelaunching, StateCompleted}
	if !reflect.DeepEqual(res.Transitions, wantTransitions) {
		t.Errorf("Transitions = %v, want %v", res.Transitions, wantTransitions)
	}

	files := listFiles(t, h.root)
	if files["Resources/a.txt"] != "alpha" || len(files["Resources/sub/b.txt"]) != 500 {
		t.Errorf("installed files = %v", sortedKeys(files))
	}

	want := filepath.Join(h.root, "Launcher")
	if len(h.launcher.starts) != 1 || h.launcher.starts[0] != want {
		t.Errorf("launcher starts = %v, want [%s]", h.launcher.starts, want)
	}

	if v, _ := h.store.UpdaterVersion(); v != "1.0.0.6" {
		t.Errorf("recorded updater version = %q", v)
	}
	if left := artifacts(t, h.tmp); len(left) != 0 {
		t.Errorf("artifacts left after run: %v", left)
	}

	if len(h.reporter.results) != 1 || h.reporter.results[0].State != StateCompleted {
		t.Errorf("reporter results = %+v", h.reporter.results)
	}
	wantStages := wantTransitions[:len(wantTransitions)-1]
	if !reflect.DeepEqual(h.reporter.stages, wantStages) {
		t.Errorf("reporter stages = %v, want %v", h.reporter.stages, wantStages)
	}
}

func TestRunMissingLauncherStillCompletes(t *testing.T) {
	h := newHarness(t, buildZip(t, sampleArchive))

	res := h.orchestrator(Options{LauncherName: "Launcher"}).Run(context.Background(), NewToken())

	if res.State != StateCompleted {
		t.Fatalf("State = %v, err = %v; want completed", res.State, res.Err)
	}
	if len(h.launcher.starts) != 0 {
		t.Errorf("launcher started: %v", h.launcher.starts)
	}
	if !strings.Contains(h.logs.String(), "relaunch target not found") {
		t.Errorf("log missing warning:\n%s", h.logs.String())
	}
}

func TestRunLauncherErrorStillCompletes(t *testing.T) {
	h := newHarness(t, buildZip(t, sampleArchive))
	h.writeLauncher(t)
	h.launcher.err = errors.New("exec format error")

	res := h.orchestrator(Options{LauncherName: "Launcher"}).Run(context.Background(), NewToken())
	if res.State != StateCompleted {
		t.Fatalf("State = %v; want completed", res.State)
	}
	if !strings.Contains(h.logs.String(), "exec format error") {
		t.Errorf("log missing launcher error:\n%s", h.logs.String())
	}
}

func TestRunSkipLaunch(t *testing.T) {
	h := newHarness(t, buildZip(t, sampleArchive))
	h.writeLauncher(t)

	res := h.orchestrator(Options{LauncherName: "Launcher", SkipLaunch: true}).Run(context.Background(), NewToken())
	if res.State != StateCompleted {
		t.Fatalf("State = %v; want completed", res.State)
	}
	if len(h.launcher.starts) != 0 {
		t.Errorf("launcher started despite SkipLaunch")
	}
}

func TestRunCancelledDuringFetch(t *testing.T) {
	h := newHarness(t, buildZip(t, []zipEntry{
		{Name: "Resources/big.bin", Body: strings.Repeat("0123456789", 200)},
	}))
	token := NewToken()
	h.reporter.onChunk = func(int64) { token.Cancel() }

	res := h.orchestrator(Options{CleanDirs: []string{"Resources"}}).Run(context.Background(), token)

	if res.State != StateCancelled {
		t.Fatalf("State = %v, err = %v; want cancelled", res.State, res.Err)
	}
	if res.Err != nil {
		t.Errorf("Err = %v, want nil", res.Err)
	}
	if h.extractor.opens != 0 || h.extractor.extracts != 0 {
		t.Errorf("extractor used after cancel: opens=%d extracts=%d", h.extractor.opens, h.extractor.extracts)
	}
	if left := artifacts(t, h.tmp); len(left) != 0 {
		t.Errorf("artifacts left after cancel: %v", left)
	}
	if _, err := os.Stat(filepath.Join(h.root, "Resources")); !os.IsNotExist(err) {
		t.Errorf("Resources created after cancel: %v", err)
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	h := newHarness(t, buildZip(t, sampleArchive))
	token := NewToken()
	token.Cancel()

	res := h.orchestrator(Options{}).Run(context.Background(), token)
	if res.State != StateCancelled {
		t.Fatalf("State = %v; want cancelled", res.State)
	}
	want := []State{StateResolving, StateCancelled}
	if !reflect.DeepEqual(res.Transitions, want) {
		t.Errorf("Transitions = %v, want %v", res.Transitions, want)
	}
}

func TestRunResolveFailure(t *testing.T) {
	h := newHarness(t, nil)
	o := NewOrchestrator(Options{Root: h.root}, failingResolver{err: ErrNoMatch}, NewDownloader(NewHTTPFetcher(""), h.tmp), h.extractor).
		WithLauncher(h.launcher).
		WithLogger(log.New(h.logs))

	res := o.Run(context.Background(), NewToken())
	if res.State != StateFailed {
		t.Fatalf("State = %v; want failed", res.State)
	}
	var se *StageError
	if !errors.As(res.Err, &se) || se.Stage != StageResolve {
		t.Fatalf("Err = %v, want resolve StageError", res.Err)
	}
	if !errors.Is(res.Err, ErrNoMatch) {
		t.Errorf("Err = %v, want ErrNoMatch in chain", res.Err)
	}
	if h.extractor.opens != 0 {
		t.Errorf("extractor used after resolve failure")
	}
}

func TestRunInvalidModeFailsResolve(t *testing.T) {
	h := newHarness(t, buildZip(t, sampleArchive))
	if err := writeModeFile(h.store, "Sometimes"); err != nil {
		t.Fatal(err)
	}

	res := h.orchestrator(Options{}).Run(context.Background(), NewToken())
	if res.State != StateFailed || !errors.Is(res.Err, ErrInvalidMode) {
		t.Fatalf("Run() = %v / %v, want failed with ErrInvalidMode", res.State, res.Err)
	}
}

func TestRunTraversalFailsExtract(t *testing.T) {
	h := newHarness(t, buildZip(t, []zipEntry{
		{Name: "Resources/a.txt", Body: "alpha"},
		{Name: "../escape.txt", Body: "pwned"},
	}))
	h.writeLauncher(t)

	res := h.orchestrator(Options{LauncherName: "Launcher"}).Run(context.Background(), NewToken())

	if res.State != StateFailed {
		t.Fatalf("State = %v; want failed", res.State)
	}
	var se *StageError
	if !errors.As(res.Err, &se) || se.Stage != StageExtract {
		t.Fatalf("Err = %v, want extract StageError", res.Err)
	}
	if !errors.Is(res.Err, ErrPathTraversal) {
		t.Errorf("Err = %v, want ErrPathTraversal in chain", res.Err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(h.root), "escape.txt")); !os.IsNotExist(err) {
		t.Errorf("escape.txt written outside root")
	}
	if len(h.launcher.starts) != 0 {
		t.Errorf("launcher started after failed extraction")
	}
	if left := artifacts(t, h.tmp); len(left) != 0 {
		t.Errorf("artifacts left after failure: %v", left)
	}
}

func TestRunFetchFailure(t *testing.T) {
	h := newHarness(t, nil)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/descriptor" {
			fmt.Fprintf(w, "1.0.0.7|http://%s/gone.zip", r.Host)
			return
		}
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()
	h.server = server

	res := h.orchestrator(Options{}).Run(context.Background(), NewToken())

	var se *StageError
	if res.State != StateFailed || !errors.As(res.Err, &se) || se.Stage != StageFetch {
		t.Fatalf("Run() = %v / %v, want fetch failure", res.State, res.Err)
	}
	if !errors.Is(res.Err, ErrFetch) {
		t.Errorf("Err = %v, want ErrFetch in chain", res.Err)
	}
}

func TestRunCleansStaleResources(t *testing.T) {
	h := newHarness(t, buildZip(t, sampleArchive))
	if err := h.store.SetMode(types.ModeResources); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(h.root, "Resources", "stale.dat")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	keep := filepath.Join(h.root, "Saves", "slot1.dat")
	if err := os.MkdirAll(filepath.Dir(keep), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keep, []byte("save"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := h.orchestrator(Options{CleanDirs: []string{"Resources"}}).Run(context.Background(), NewToken())
	if res.State != StateCompleted {
		t.Fatalf("State = %v, err = %v; want completed", res.State, res.Err)
	}
	if res.Descriptor.HasVersion() {
		t.Errorf("resources run carried version %q", res.Descriptor.Version)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale file survived cleanup: %v", err)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("file outside clean dirs was touched: %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.root, "Resources", "a.txt")); err != nil {
		t.Errorf("new resource missing: %v", err)
	}
}

func TestStateStrings(t *testing.T) {
	if StateCompleted.Status() != "update complete" || StateCancelled.Status() != "update cancelled" || StateFailed.Status() != "update failed" {
		t.Error("unexpected terminal status lines")
	}
	for _, s := range []State{StateCompleted, StateCancelled, StateFailed} {
		if !s.IsTerminal() {
			t.Errorf("%v should be terminal", s)
		}
	}
	if StateExtracting.IsTerminal() {
		t.Error("extracting should not be terminal")
	}
	if State(99).String() != "unknown" {
		t.Errorf("State(99) = %q", State(99).String())
	}
}
