package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bluecraft-server/bcupdater/internal/output"
	"github.com/bluecraft-server/bcupdater/internal/types"
	"github.com/bluecraft-server/bcupdater/internal/update"
)

// Check statuses.
const (
	checkNewer     = "newer version available"
	checkCurrent   = "up to date"
	checkDiffers   = "remote version differs"
	checkResources = "resources refresh"
)

type checkReport struct {
	DescriptorURL   string           `json:"descriptor_url" yaml:"descriptor_url"`
	Mode            types.UpdateMode `json:"mode" yaml:"mode"`
	RemoteVersion   string           `json:"remote_version,omitempty" yaml:"remote_version,omitempty"`
	DownloadURL     string           `json:"download_url" yaml:"download_url"`
	RunningVersion  string           `json:"running_version" yaml:"running_version"`
	RecordedVersion string           `json:"recorded_version,omitempty" yaml:"recorded_version,omitempty"`
	Status          string           `json:"status" yaml:"status"`
}

func (r checkReport) RenderText(w io.Writer) error {
	output.Field(w, "Descriptor", r.DescriptorURL)
	output.Field(w, "Mode", string(r.Mode))
	output.Field(w, "Remote version", r.RemoteVersion)
	output.Field(w, "Download URL", r.DownloadURL)
	output.Field(w, "Running version", r.RunningVersion)
	output.Field(w, "Last recorded", r.RecordedVersion)
	output.Field(w, "Status", r.Status)
	return nil
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Show what the next update would install",
		Long: `Resolve the update descriptor for the persisted mode and print it
without downloading anything.

Examples:
  bcupdater check           # Human-readable summary
  bcupdater check -o json   # Machine-readable descriptor`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd)
		},
	}
}

func runCheck(cmd *cobra.Command) error {
	w, err := newOutputWriter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr())

	resolver := update.NewResolver(env.cfg.DescriptorURL, env.store).
		WithFormat(env.cfg.DescriptorFormat).
		WithTimeout(env.cfg.RequestTimeout()).
		WithUserAgent(userAgent(env.cfg.UserAgent)).
		WithLogger(logger)

	desc, err := resolver.Resolve(cmd.Context())
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("failed to resolve update: %w", err)}
	}

	recorded, err := env.store.UpdaterVersion()
	if err != nil {
		logger.Warn("failed to read recorded updater version", "err", err)
	}

	return w.Write(checkReport{
		DescriptorURL:   env.cfg.DescriptorURL,
		Mode:            desc.Mode,
		RemoteVersion:   desc.Version,
		DownloadURL:     desc.DownloadURL,
		RunningVersion:  buildInfo.Version,
		RecordedVersion: recorded,
		Status:          checkStatus(desc, buildInfo.Version),
	})
}

// checkStatus compares the remote version with the running one. The
// comparison is informational; it never blocks an update.
func checkStatus(desc *update.Descriptor, running string) string {
	if !desc.HasVersion() {
		return checkResources
	}
	cmp, err := update.CompareVersions(desc.Version, running)
	if err != nil {
		if desc.Version == running {
			return checkCurrent
		}
		return checkDiffers
	}
	switch {
	case cmp > 0:
		return checkNewer
	case cmp == 0:
		return checkCurrent
	default:
		return checkDiffers
	}
}
