package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/skillset/skillset/pkg/convention"
	"github.com/spf13/cobra"
)

func newConventionCmd() *cobra.Command {
	conventionCmd := &cobra.Command{
		Use:   "convention",
		Short: "Manage skill organization conventions",
		Long:  "Lists, enables, and disables the conventions used to organize installed skills.",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List known conventions",
		RunE:  runConventionList,
	}

	enableCmd := &cobra.Command{
		Use:   "enable [name]",
		Short: "Enable a convention for detection",
		Args:  cobra.ExactArgs(1),
		RunE:  runConventionEnable,
	}

	disableCmd := &cobra.Command{
		Use:   "disable [name]",
		Short: "Disable a convention without unregistering it",
		Args:  cobra.ExactArgs(1),
		RunE:  runConventionDisable,
	}

	conventionCmd.AddCommand(listCmd)
	conventionCmd.AddCommand(enableCmd)
	conventionCmd.AddCommand(disableCmd)
	return conventionCmd
}

func runConventionList(cmd *cobra.Command, args []string) error {
	manifest, err := loadOrInitManifest()
	if err != nil {
		return err
	}

	wd, err := cwd()
	if err != nil {
		return err
	}
	registry, err := conventionRegistry(wd, manifest)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENABLED\tDESCRIPTION")
	for _, name := range registry.Names() {
		c, err := registry.Get(name)
		if err != nil {
			return err
		}
		state := "no"
		if registry.Enabled(name) {
			state = "yes"
		}
		if name == convention.CustomName {
			state = "fallback"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, state, c.Description())
	}
	return w.Flush()
}

func runConventionEnable(cmd *cobra.Command, args []string) error {
	return setConventionEnabled(cmd, args[0], true)
}

func runConventionDisable(cmd *cobra.Command, args []string) error {
	return setConventionEnabled(cmd, args[0], false)
}

func setConventionEnabled(cmd *cobra.Command, name string, enabled bool) error {
	manifest, err := loadOrInitManifest()
	if err != nil {
		return err
	}

	wd, err := cwd()
	if err != nil {
		return err
	}
	registry, err := conventionRegistry(wd, manifest)
	if err != nil {
		return err
	}
	if _, err := registry.Get(name); err != nil {
		return err
	}

	if !manifest.SetConventionEnabled(name, enabled) {
		if enabled {
			fmt.Fprintf(cmd.OutOrStdout(), "Convention %q is already enabled\n", name)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Convention %q is already disabled\n", name)
		}
		return nil
	}

	if err := manifest.Save(); err != nil {
		return err
	}

	if enabled {
		fmt.Fprintf(cmd.OutOrStdout(), "Enabled convention %q\n", name)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Disabled convention %q\n", name)
	}
	return nil
}
