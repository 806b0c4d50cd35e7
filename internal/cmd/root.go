package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	rootDir      string
	verbose      bool
	quiet        bool
	plain        bool
	noLaunch     bool
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

var buildInfo = BuildInfo{Version: "dev", Commit: "none", Date: "unknown"}

// Execute runs the root command.
func Execute(version, commit, date string) error {
	buildInfo = BuildInfo{Version: version, Commit: commit, Date: date}
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bcupdater",
		Short: "Update the Bluecraft installation in place",
		Long: `bcupdater checks the Bluecraft update endpoint, downloads the published
archive, replaces the installation files and restarts the launcher.

Run it from the installation directory, or point it there with --dir.
The update mode (Full or Resources) is read from Version_Check/Update_Partner.txt.`,
		Version:       buildInfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to bcupdater config file")
	rootCmd.PersistentFlags().StringVar(&rootDir, "dir", "", "Installation directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "Print progress lines instead of the terminal dialog")
	rootCmd.PersistentFlags().BoolVar(&noLaunch, "no-launch", false, "Do not start the launcher after updating")

	// Add subcommands
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newModeCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Register completion function for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.MarkPersistentFlagDirname("dir")

	return rootCmd
}
