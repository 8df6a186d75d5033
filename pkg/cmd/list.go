package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/skillset/skillset/pkg/config"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List skills in the project",
		Long:  "Lists skills from skillset.toml with their installed state.",
		RunE:  runList,
	}

	listCmd.Flags().BoolP("verbose", "v", false, "Show source and install path")

	return listCmd
}

func runList(cmd *cobra.Command, args []string) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}

	wd, err := cwd()
	if err != nil {
		return err
	}
	manifest, err := config.LoadProject(wd)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}

	names := manifestSkillNames(manifest)
	if len(names) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No skills in this project")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	if verbose {
		fmt.Fprintln(w, "NAME\tVERSION\tCONVENTION\tSOURCE\tPATH\tINSTALLED")
	} else {
		fmt.Fprintln(w, "NAME\tVERSION\tCONVENTION\tINSTALLED")
	}

	for _, name := range names {
		entry := manifest.Skills[name]
		record, installed := manifest.Installed[name]

		version := entry.Version
		if version == "" {
			version = record.Version
		}
		if version == "" {
			version = "latest"
		}

		state := "no"
		if installed {
			state = record.InstalledAt.Format("2006-01-02")
		}

		if verbose {
			src := entry.Source
			if src == "" {
				src = record.Source
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", name, version, record.Convention, src, record.Path, state)
		} else {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, version, record.Convention, state)
		}
	}

	return w.Flush()
}
