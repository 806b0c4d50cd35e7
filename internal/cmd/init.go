package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bluecraft-server/bcupdater/internal/config"
	"github.com/bluecraft-server/bcupdater/internal/interactive"
	"github.com/bluecraft-server/bcupdater/internal/templates"
)

func newInitCmd() *cobra.Command {
	var templateName string
	var format string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file in the installation directory",
		Long: `Create bcupdater.yaml (or bcupdater.toml) in the installation directory
from a built-in template.

Available templates:
  standard   - Default endpoint, cleans Resources before extracting
  elevated   - Standard plus administrator rights

Examples:
  bcupdater init                       # standard template as YAML
  bcupdater init --format toml
  bcupdater init --template elevated --dir "C:\Program Files\Bluecraft"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(rootDir)
			if err != nil {
				return err
			}
			return runInit(cmd.InOrStdin(), cmd.OutOrStdout(), root, templateName, format, force)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", "standard", "Template name")
	cmd.Flags().StringVar(&format, "format", "yaml", "Config format: yaml, toml")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	// Register completion for template flag
	_ = cmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var completions []string
		for _, name := range templates.List() {
			completions = append(completions, fmt.Sprintf("%s\t%s", name, templates.GetDescription(name)))
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "toml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runInit writes the chosen template into root.
func runInit(stdin io.Reader, stdout io.Writer, root, templateName, format string, force bool) error {
	tmpl, err := templates.Get(templateName, format)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}

	// Validate the template content before writing
	if _, err := config.Parse(tmpl.Content, tmpl.FileName()); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	outputPath := filepath.Join(root, tmpl.FileName())
	if _, err := os.Stat(outputPath); err == nil && !force {
		p := interactive.NewPrompterWithIO(stdin, stdout)
		if !p.Confirm(fmt.Sprintf("%s already exists. Overwrite?", outputPath)) {
			_, _ = fmt.Fprintln(stdout, "Aborted.")
			return nil
		}
	}

	if err := os.WriteFile(outputPath, tmpl.Content, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	_, _ = fmt.Fprintf(stdout, "Created %s from the '%s' template\n", outputPath, tmpl.Name)
	_, _ = fmt.Fprintln(stdout, "\nNext steps:")
	_, _ = fmt.Fprintln(stdout, "  1. Edit the config to customize")
	_, _ = fmt.Fprintln(stdout, "  2. Run 'bcupdater check' to see what would be installed")
	_, _ = fmt.Fprintln(stdout, "  3. Run 'bcupdater' to update")

	return nil
}
