package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bluecraft-server/bcupdater/internal/state"
	"github.com/bluecraft-server/bcupdater/internal/types"
)

type modeReport struct {
	Mode  types.UpdateMode `json:"mode" yaml:"mode"`
	Label string           `json:"label" yaml:"label"`
	Path  string           `json:"path" yaml:"path"`
}

func (r modeReport) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s (%s)\n", r.Mode, r.Label)
	return err
}

func newModeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mode [Full|Resources]",
		Short: "Show or set the update mode",
		Long: `Show the persisted update mode, or set it.

Full installs the complete application archive. Resources only refreshes
the resource files. The mode is stored in Version_Check/Update_Partner.txt.

Examples:
  bcupdater mode             # Show the current mode
  bcupdater mode Resources   # Only refresh resources on the next run`,
		ValidArgs: []string{string(types.ModeFull), string(types.ModeResources)},
		Args:      cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(cmd, args)
		},
	}
}

func runMode(cmd *cobra.Command, args []string) error {
	w, err := newOutputWriter(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	env, err := loadEnvironment()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		mode, err := types.ParseUpdateMode(args[0])
		if err != nil {
			return err
		}
		if err := env.store.SetMode(mode); err != nil {
			return fmt.Errorf("failed to set update mode: %w", err)
		}
	}

	mode, err := env.store.Mode()
	if err != nil {
		return err
	}

	return w.Write(modeReport{
		Mode:  mode,
		Label: mode.Label(),
		Path:  env.store.Path(state.ModeFile),
	})
}
