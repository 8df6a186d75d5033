package cmd

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/skillset/skillset/pkg/config"
	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	removeCmd := &cobra.Command{
		Use:   "remove [name...]",
		Short: "Remove installed skills",
		Long:  "Removes skills from skillset.toml and deletes their installed files. With no arguments, prompts for which skills to remove.",
		RunE:  runRemove,
	}

	removeCmd.Flags().Bool("all", false, "Remove all skills without prompting")
	removeCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	return removeCmd
}

func runRemove(cmd *cobra.Command, args []string) error {
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
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to remove")
		return nil
	}

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return err
	}

	var selected []string
	switch {
	case len(args) > 0:
		selected = args
	case all:
		selected = names
	default:
		options := make([]huh.Option[string], len(names))
		for i, name := range names {
			options[i] = huh.NewOption(name, name)
		}
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewMultiSelect[string]().
					Title("Select skills to remove").
					Options(options...).
					Value(&selected),
			),
		).Run()
		if err != nil {
			return fmt.Errorf("selection prompt failed: %w", err)
		}
	}

	if len(selected) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing selected")
		return nil
	}

	if !yes {
		confirmed := false
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Remove %d skill(s)?", len(selected))).
					Value(&confirmed),
			),
		).Run()
		if err != nil {
			return fmt.Errorf("confirmation prompt failed: %w", err)
		}
		if !confirmed {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
	}

	e, err := newEnv(manifest)
	if err != nil {
		return err
	}

	for _, name := range selected {
		if err := e.Installer.Remove(manifest, name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
	}
	return nil
}

// manifestSkillNames returns every skill known to the manifest, requested
// or installed, sorted.
func manifestSkillNames(m *config.Manifest) []string {
	seen := make(map[string]bool)
	var names []string
	for name := range m.Skills {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range m.Installed {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
