package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skillset/skillset/pkg/cache"
	"github.com/skillset/skillset/pkg/logger"
	"github.com/skillset/skillset/pkg/oci"
	"github.com/skillset/skillset/pkg/resolver"
)

// OCISource fetches skills published as OCI artifacts. Pulled artifacts
// land in a local OCI layout under the cache root and are extracted into
// a per-skill checkout directory with the same clean-overwrite semantics
// as the git source.
type OCISource struct {
	paths  cache.Paths
	client *oci.Client
}

var _ Source = (*OCISource)(nil)

// NewOCISource returns an OCI source using the given registry client and
// cache root.
func NewOCISource(paths cache.Paths, client *oci.Client) *OCISource {
	return &OCISource{paths: paths, client: client}
}

// Type implements Source.
func (o *OCISource) Type() resolver.SourceType {
	return resolver.TypeOCI
}

// Fetch pulls the artifact, extracts its content layer into the checkout
// directory, and commits the metadata record. As with git, metadata is
// written only after extraction completes.
func (o *OCISource) Fetch(ctx context.Context, ref resolver.SkillReference) (*FetchedSkill, error) {
	parsedRef, err := oci.ParseReference(ref.Locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", resolver.ErrInvalidReference, err)
	}

	url := parsedRef.Registry + "/" + parsedRef.Repository
	tag := parsedRef.Reference
	skillName := SkillName(ref)

	store, err := oci.NewStore(o.paths.OCIStoreDir())
	if err != nil {
		return nil, fmt.Errorf("%w: opening artifact store: %v", cache.ErrCache, err)
	}

	logger.Debugw("pulling artifact", "ref", ref.Locator)
	dgst, err := o.client.Pull(ctx, store, ref.Locator)
	if err != nil {
		return nil, fmt.Errorf("%w: pulling %s: %w", ErrFetchFailed, ref.Locator, err)
	}

	manifest, err := store.Manifest(ctx, dgst)
	if err != nil {
		return nil, fmt.Errorf("%w: reading manifest for %s: %w", ErrFetchFailed, ref.Locator, err)
	}
	if len(manifest.Layers) == 0 {
		return nil, fmt.Errorf("%w: artifact %s has no layers", ErrFetchFailed, ref.Locator)
	}

	layerData, err := store.FetchBytes(ctx, manifest.Layers[0].Digest)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching content layer: %w", ErrFetchFailed, err)
	}

	files, err := oci.ExtractTarGz(layerData)
	if err != nil {
		return nil, fmt.Errorf("%w: extracting %s: %w", ErrFetchFailed, ref.Locator, err)
	}

	checkout := o.paths.OCICheckoutPath(skillName)
	if err := writeCheckout(checkout, files); err != nil {
		return nil, err
	}

	key := cache.CacheKey(url, tag)
	meta := &cache.Metadata{
		URL:        url,
		Reference:  tag,
		SkillName:  skillName,
		SourceType: string(resolver.TypeOCI),
	}
	if err := meta.Save(o.paths.MetadataPath(key)); err != nil {
		return nil, err
	}

	version := ref.Version
	if version == "" {
		version = tag
	}

	return &FetchedSkill{
		Name:     skillName,
		Version:  version,
		Path:     checkout,
		Metadata: meta,
	}, nil
}

// GetMetadata resolves the artifact digest on the remote without pulling
// any content.
func (o *OCISource) GetMetadata(ctx context.Context, ref resolver.SkillReference) (*SkillMetadata, error) {
	parsedRef, err := oci.ParseReference(ref.Locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", resolver.ErrInvalidReference, err)
	}

	dgst, err := o.client.Resolve(ctx, ref.Locator)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving %s: %w", ErrFetchFailed, ref.Locator, err)
	}

	return &SkillMetadata{
		Name:      SkillName(ref),
		Reference: parsedRef.Reference,
		Digest:    dgst.String(),
		URL:       parsedRef.Registry + "/" + parsedRef.Repository,
	}, nil
}

// writeCheckout materializes extracted archive entries under dir,
// replacing any prior checkout entirely.
func writeCheckout(dir string, files []oci.FileEntry) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: removing stale checkout %s: %v", cache.ErrCache, dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating checkout %s: %v", cache.ErrCache, dir, err)
	}

	for _, f := range files {
		dest := filepath.Join(dir, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", cache.ErrCache, filepath.Dir(dest), err)
		}
		mode := os.FileMode(f.Mode & 0o777)
		if mode == 0 {
			mode = 0o644
		}
		if err := os.WriteFile(dest, f.Content, mode); err != nil {
			return fmt.Errorf("%w: writing %s: %v", cache.ErrCache, dest, err)
		}
	}
	return nil
}
