package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bluecraft-server/bcupdater/internal/config"
	"github.com/bluecraft-server/bcupdater/internal/output"
	"github.com/bluecraft-server/bcupdater/internal/state"
	"github.com/bluecraft-server/bcupdater/internal/update"
)

// logFileName is written inside the state directory while the dialog owns the terminal.
const logFileName = "bcupdater.log"

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1 // resolution, fetch, config and usage errors
	ExitExtract = 2 // extraction failed; the installation may be partial
)

// resultError maps a finished run to the command's error.
func resultError(res update.Result) error {
	switch res.State {
	case update.StateCompleted, update.StateCancelled:
		return nil
	}

	err := res.Err
	if err == nil {
		err = errors.New(res.State.Status())
	}

	code := ExitFailure
	var stageErr *update.StageError
	if errors.As(err, &stageErr) && stageErr.Stage == update.StageExtract {
		code = ExitExtract
	}
	return &ExitError{Code: code, Err: fmt.Errorf("%s: %w", update.StateFailed.Status(), err)}
}

// environment is what every command needs: the installation root, the
// loaded config and the persisted state.
type environment struct {
	root       string
	configFile string
	cfg        *config.Config
	store      *state.Store
}

// loadEnvironment resolves --dir, finds and loads the config file and
// opens the state store.
func loadEnvironment() (*environment, error) {
	root, err := resolveRoot(rootDir)
	if err != nil {
		return nil, err
	}

	path, err := config.Find(configPath, root)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	store := state.NewStore(root)
	store.Dir = cfg.StateDir

	return &environment{root: root, configFile: path, cfg: cfg, store: store}, nil
}

// resolveRoot returns the absolute installation root.
func resolveRoot(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to determine working directory: %w", err)
		}
		dir = wd
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve installation directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("installation directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("installation directory %s is not a directory", abs)
	}
	return abs, nil
}

// downloadDir returns where temporary archives go; "" means the OS temp dir.
func (e *environment) downloadDir() string {
	dir := e.cfg.DownloadDir
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(e.root, dir)
}

// newLogger builds the process logger at the level chosen by -v and -q.
func newLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          "bcupdater",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	switch {
	case verbose:
		logger.SetLevel(log.DebugLevel)
	case quiet:
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// openLogFile truncates the run log inside the state directory.
func openLogFile(store *state.Store) (*os.File, error) {
	path := store.Path(logFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// newOutputWriter parses -o for commands that print results.
func newOutputWriter(w io.Writer) (*output.Writer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewWriter(w, format), nil
}
