package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bluecraft-server/bcupdater/internal/update"
)

type versionReport struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
	OS      string `json:"os" yaml:"os"`
	Arch    string `json:"arch" yaml:"arch"`
}

func (r versionReport) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "bcupdater version %s (commit %s, built %s, %s/%s)\n", r.Version, r.Commit, r.Date, r.OS, r.Arch)
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newOutputWriter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			platform := update.Detect()
			return w.Write(versionReport{
				Version: buildInfo.Version,
				Commit:  buildInfo.Commit,
				Date:    buildInfo.Date,
				OS:      platform.OS,
				Arch:    platform.Arch,
			})
		},
	}
}
