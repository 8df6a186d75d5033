package cmd

import (
	"fmt"
	"os"

	"github.com/skillset/skillset/pkg/project"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new skillset project",
		Long:  "Creates a skillset.toml manifest and configures .gitignore entries.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	if err := project.Init(wd); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", project.ManifestFile)

	added, err := project.EnsureGitignore(wd, project.IgnoreEntries)
	if err != nil {
		return err
	}
	for _, entry := range added {
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s to .gitignore\n", entry)
	}

	return nil
}
