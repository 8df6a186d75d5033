package cmd

import (
	"fmt"

	"github.com/skillset/skillset/pkg/oci"
	"github.com/skillset/skillset/pkg/skill"
	"github.com/spf13/cobra"
)

func newPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish [path] [reference]",
		Short: "Package and push a skill to an OCI registry",
		Long: `Packages a skill directory into an OCI artifact and pushes it.

The reference must include a tag, e.g. ghcr.io/owner/my-skill:v1.0.0.
Identity metadata is taken from the directory's SKILL.md frontmatter
when present.`,
		Args: cobra.ExactArgs(2),
		RunE: runPublish,
	}
}

func runPublish(cmd *cobra.Command, args []string) error {
	dir, reference := args[0], args[1]

	if _, err := oci.ParseReference(reference); err != nil {
		return err
	}

	// Validate declared metadata up front when the skill carries any.
	if s, err := skill.Load(dir); err == nil {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("invalid SKILL.md in %s: %w", dir, err)
		}
	}

	paths := cachePaths()
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	store, err := oci.NewStore(paths.OCIStoreDir())
	if err != nil {
		return err
	}

	packager := oci.NewPackager(store)
	result, err := packager.Package(cmd.Context(), dir)
	if err != nil {
		return fmt.Errorf("packaging %s: %w", dir, err)
	}

	plainHTTP := settings != nil && settings.PlainHTTP
	client, err := oci.NewClient(oci.WithPlainHTTP(plainHTTP))
	if err != nil {
		return err
	}

	if err := client.Push(cmd.Context(), store, result.ManifestDigest, reference); err != nil {
		return fmt.Errorf("pushing %s: %w", reference, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Published %s to %s\n", result.Name, reference)
	fmt.Fprintf(cmd.OutOrStdout(), "Digest: %s\n", result.ManifestDigest)
	return nil
}
