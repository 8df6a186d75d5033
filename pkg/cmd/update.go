package cmd

import (
	"fmt"

	"github.com/skillset/skillset/pkg/config"
	"github.com/spf13/cobra"
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update [name]",
		Short: "Update installed skills",
		Long:  "Re-fetches and reorganizes skills from skillset.toml. With no arguments, updates every skill.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runUpdate,
	}
}

func runUpdate(cmd *cobra.Command, args []string) error {
	wd, err := cwd()
	if err != nil {
		return err
	}
	manifest, err := config.LoadProject(wd)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}

	e, err := newEnv(manifest)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		result, err := e.Installer.Update(cmd.Context(), manifest, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s to %s\n", result.Name, result.Version)
		return nil
	}

	results, err := e.Installer.InstallAll(cmd.Context(), manifest)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %d skill(s)\n", len(results))
	return nil
}
