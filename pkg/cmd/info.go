package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/skillset/skillset/pkg/cache"
	"github.com/skillset/skillset/pkg/config"
	"github.com/skillset/skillset/pkg/resolver"
	"github.com/skillset/skillset/pkg/skill"
	"github.com/skillset/skillset/pkg/source"
	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [name]",
		Short: "Show details for a skill",
		Long:  "Shows the manifest entry, install record, and cached provenance for a skill.",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	name := args[0]

	wd, err := cwd()
	if err != nil {
		return err
	}
	manifest, err := config.LoadProject(wd)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}

	entry, requested := manifest.Skills[name]
	record, installed := manifest.Installed[name]
	if !requested && !installed {
		return fmt.Errorf("skill %q is not in the manifest", name)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Name:       %s\n", name)

	if requested {
		version := entry.Version
		if version == "" {
			version = "latest"
		}
		fmt.Fprintf(out, "Requested:  %s\n", version)
		if entry.Source != "" {
			fmt.Fprintf(out, "Source:     %s\n", entry.Source)
		}
		if entry.Convention != "" {
			fmt.Fprintf(out, "Convention: %s (pinned)\n", entry.Convention)
		}
	}

	if !installed {
		fmt.Fprintln(out, "Installed:  no")
		return nil
	}

	fmt.Fprintf(out, "Installed:  %s\n", record.InstalledAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Version:    %s\n", record.Version)
	fmt.Fprintf(out, "Convention: %s\n", record.Convention)
	fmt.Fprintf(out, "Path:       %s\n", record.Path)
	fmt.Fprintf(out, "Source:     %s\n", record.Source)

	printCacheProvenance(cmd, record)

	// A SKILL.md in the installed tree carries its own description.
	if s, err := skill.Load(filepath.Join(wd, filepath.FromSlash(record.Path))); err == nil {
		if s.Description != "" {
			fmt.Fprintf(out, "About:      %s\n", s.Description)
		}
		if s.License != "" {
			fmt.Fprintf(out, "License:    %s\n", s.License)
		}
	}

	return nil
}

// printCacheProvenance shows the cache metadata record backing the
// install, when one exists.
func printCacheProvenance(cmd *cobra.Command, record config.InstallRecord) {
	// The recorded version keys the cache entry when the source locator
	// carries no version of its own.
	ref, err := resolver.ResolveWithVersion(record.Source, record.Version, resolver.Defaults{})
	if err != nil {
		return
	}
	key := source.MetadataKey(ref)
	if key == "" {
		return
	}

	meta, err := cache.LoadMetadata(cachePaths().MetadataPath(key))
	if err != nil || meta == nil {
		return
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cached:     %s", meta.URL)
	if meta.Reference != "" {
		fmt.Fprintf(out, " @ %s", meta.Reference)
	}
	fmt.Fprintln(out)
}
