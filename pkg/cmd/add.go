package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skillset/skillset/pkg/config"
	"github.com/skillset/skillset/pkg/installer"
	"github.com/skillset/skillset/pkg/project"
	"github.com/skillset/skillset/pkg/resolver"
	"github.com/skillset/skillset/pkg/source"
	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add [ref]",
		Short: "Add and install a skill",
		Long: `Adds a skill to skillset.toml and installs it.

A bare name like "file-analyzer" or a scoped name like "@owner/skill"
resolves against the project registry. Explicit locators are also
accepted: git:https://..., oci:registry/repo:tag, or a local path
starting with ./ or ../`,
		Args: cobra.ExactArgs(1),
		RunE: runAdd,
	}

	addCmd.Flags().String("version", "", "version to install when the reference carries none")
	addCmd.Flags().String("convention", "", "convention override, skipping detection")

	return addCmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	version, err := cmd.Flags().GetString("version")
	if err != nil {
		return err
	}
	override, err := cmd.Flags().GetString("convention")
	if err != nil {
		return err
	}

	raw := args[0]

	name, entry, err := manifestEntry(raw, version, override)
	if err != nil {
		return err
	}

	manifest, err := loadOrInitManifest()
	if err != nil {
		return err
	}

	e, err := newEnv(manifest)
	if err != nil {
		return err
	}

	// The requested skill is written to the manifest before the install
	// runs, so a failed fetch can be retried with a plain update.
	manifest.AddSkill(name, entry)
	if err := manifest.Save(); err != nil {
		return err
	}

	result, err := e.Installer.Install(cmd.Context(), installer.RequestFromEntry(name, entry))
	if err != nil {
		if errors.Is(err, installer.ErrRecord) {
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %s %s to %s (manifest record failed: %v)\n",
				result.Name, result.Version, result.Path, err)
			return nil
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Installed %s %s (%s) to %s\n",
		result.Name, result.Version, result.Convention, result.Path)
	return nil
}

// manifestEntry derives the manifest key and entry for a raw reference.
// Name references key by name with a version entry; locators key by the
// derived skill name with an explicit source.
func manifestEntry(raw, version, override string) (string, config.SkillEntry, error) {
	if isNameRef(raw) {
		name, inlineVersion, err := resolver.SplitNameVersion(raw)
		if err != nil {
			return "", config.SkillEntry{}, err
		}
		if inlineVersion != "latest" {
			if version != "" && version != inlineVersion {
				return "", config.SkillEntry{}, fmt.Errorf("conflicting versions %q and %q", inlineVersion, version)
			}
			version = inlineVersion
		}
		if err := resolver.ValidateName(name); err != nil {
			return "", config.SkillEntry{}, err
		}
		if version != "" {
			if err := resolver.ValidateVersion(version); err != nil {
				return "", config.SkillEntry{}, err
			}
		}
		return name, config.SkillEntry{Version: version, Convention: override}, nil
	}

	// Locator versions stay verbatim: a git version may be any branch,
	// tag, or commit, so semver validation happens only where an OCI tag
	// gets built from it.
	ref, err := resolver.ResolveWithVersion(raw, version, resolver.Defaults{})
	if err != nil {
		return "", config.SkillEntry{}, err
	}
	return source.SkillName(ref), config.SkillEntry{Source: raw, Version: version, Convention: override}, nil
}

func isNameRef(raw string) bool {
	if strings.HasPrefix(raw, "@") {
		return true
	}
	if strings.ContainsAny(raw, ":/\\") {
		return false
	}
	return raw != "" && !strings.HasPrefix(raw, ".") && !strings.HasPrefix(raw, "~")
}

func loadOrInitManifest() (*config.Manifest, error) {
	wd, err := cwd()
	if err != nil {
		return nil, err
	}
	return project.LoadOrInit(wd)
}
