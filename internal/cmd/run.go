package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bluecraft-server/bcupdater/internal/interactive"
	"github.com/bluecraft-server/bcupdater/internal/output"
	"github.com/bluecraft-server/bcupdater/internal/progress"
	"github.com/bluecraft-server/bcupdater/internal/update"
)

// errRelaunched stops this process after an elevated copy was started.
var errRelaunched = errors.New("relaunched with administrator rights")

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Download and install the latest update",
		Long: `Resolve the update descriptor for the persisted mode, download the
archive, clean the configured directories, extract the archive into the
installation directory and start the launcher.

Press esc or ctrl+c while downloading to cancel. Once extraction has
started the update runs to completion.

Examples:
  bcupdater run                     # Update the current directory
  bcupdater run --dir /opt/bluecraft
  bcupdater run --plain --no-launch # Log-friendly output, no restart`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd)
		},
	}
}

func runUpdate(cmd *cobra.Command) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	useDialog := !plain && !quiet && format == output.FormatText && interactive.IsOutputTerminal()

	var logOut io.Writer = cmd.ErrOrStderr()
	if useDialog {
		f, err := openLogFile(env.store)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(logOut)
	if env.configFile != "" {
		logger.Debug("loaded config", "path", env.configFile)
	}

	if env.cfg.RequireElevation {
		err := ensureElevation(update.NewPrivilegeChecker(), logger, func(q string) bool {
			return interactive.Confirm(q, false)
		})
		if errors.Is(err, errRelaunched) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token := update.NewToken()
	go func() {
		select {
		case <-ctx.Done():
			token.Cancel()
		case <-token.Done():
		}
	}()

	var res update.Result
	if useDialog {
		dialog := progress.NewDialog(cmd.OutOrStdout(), os.Stdin, token.Cancel)
		res = runWithDialog(ctx, env, logger, token, dialog)
		fmt.Fprintln(cmd.ErrOrStderr(), progress.StatusLine(res))
	} else {
		var reporter interface {
			update.Reporter
			update.Notifier
		} = progress.NewPlain(cmd.ErrOrStderr())
		if quiet {
			reporter = silent{}
		}
		res = runOrchestrator(ctx, env, logger, token, reporter, reporter)
		if format != output.FormatText {
			w := output.NewWriter(cmd.OutOrStdout(), format)
			if err := w.Write(newRunReport(res)); err != nil {
				return err
			}
		}
	}

	return resultError(res)
}

// runWithDialog runs the update on a worker goroutine while the dialog
// owns the terminal.
func runWithDialog(ctx context.Context, env *environment, logger *log.Logger, token *update.Token, dialog *progress.Dialog) update.Result {
	resc := make(chan update.Result, 1)
	go func() {
		resc <- runOrchestrator(ctx, env, logger, token, dialog, dialog)
	}()

	if err := dialog.Run(); err != nil {
		logger.Error("progress dialog failed", "err", err)
	}
	return <-resc
}

// runOrchestrator wires the configured collaborators and performs one run.
func runOrchestrator(ctx context.Context, env *environment, logger *log.Logger, token *update.Token, reporter update.Reporter, notifier update.Notifier) update.Result {
	notices := update.NewAsyncNotifier(notifier, 8)
	defer notices.Close()

	resolver := update.NewResolver(env.cfg.DescriptorURL, env.store).
		WithFormat(env.cfg.DescriptorFormat).
		WithTimeout(env.cfg.RequestTimeout()).
		WithUserAgent(userAgent(env.cfg.UserAgent)).
		WithNotifier(notices).
		WithLogger(logger)

	downloader := update.NewDownloader(update.NewHTTPFetcher(userAgent(env.cfg.UserAgent)), env.downloadDir()).
		WithChunkSize(env.cfg.ChunkSize).
		WithLogger(logger)

	extractor := update.NewExtractor().WithLogger(logger)

	opts := update.Options{
		Root:         env.root,
		Version:      buildInfo.Version,
		CleanDirs:    env.cfg.CleanDirs,
		LauncherName: update.Detect().ExecutableName(env.cfg.Launcher),
		SkipLaunch:   noLaunch,
	}

	return update.NewOrchestrator(opts, resolver, downloader, extractor).
		WithVersionRecorder(env.store).
		WithReporter(reporter).
		WithLogger(logger).
		Run(ctx, token)
}

// ensureElevation makes sure the run has administrator rights. When the
// elevated relaunch succeeds it returns errRelaunched; when it fails the
// user may continue unelevated.
func ensureElevation(checker update.PrivilegeChecker, logger *log.Logger, confirm func(string) bool) error {
	if checker.HasElevatedRights() {
		return nil
	}

	err := checker.RelaunchElevated()
	if err == nil {
		logger.Info(errRelaunched.Error())
		return errRelaunched
	}

	logger.Warn("could not obtain administrator rights", "err", err)
	if !interactive.IsTerminal() {
		logger.Warn("continuing without administrator rights")
		return nil
	}
	if !confirm("Continue without administrator rights?") {
		return &ExitError{Code: ExitFailure, Err: errors.New("administrator rights required")}
	}
	return nil
}

func userAgent(configured string) string {
	if configured == "" {
		configured = "bcupdater"
	}
	return configured + "/" + buildInfo.Version
}

// runReport is the -o json|yaml form of a finished run.
type runReport struct {
	State      string             `json:"state" yaml:"state"`
	Descriptor *update.Descriptor `json:"descriptor,omitempty" yaml:"descriptor,omitempty"`
	Summary    update.Summary     `json:"summary" yaml:"summary"`
	Error      string             `json:"error,omitempty" yaml:"error,omitempty"`
}

func newRunReport(res update.Result) runReport {
	r := runReport{
		State:      res.State.String(),
		Descriptor: res.Descriptor,
		Summary:    res.Summary,
	}
	if res.Err != nil {
		r.Error = res.Err.Error()
	}
	return r
}

// silent reports nothing; -q leaves only error logs.
type silent struct {
	update.DiscardReporter
	update.DiscardNotifier
}
