package oci

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkillDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestPackageRoundtrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	dir := writeSkillDir(t, map[string]string{
		"SKILL.md":      "---\nname: file-analyzer\ndescription: Analyzes files\nversion: 1.0.0\n---\n# File Analyzer\n",
		"lib/parse.py":  "def parse(): pass\n",
		".git/HEAD":     "ref: refs/heads/main\n",
	})

	result, err := NewPackager(store).Package(ctx, dir)
	require.NoError(t, err)

	assert.Equal(t, "file-analyzer", result.Name)
	assert.Equal(t, "1.0.0", result.Version)

	manifest, err := store.Manifest(ctx, result.ManifestDigest)
	require.NoError(t, err)
	assert.Equal(t, ArtifactTypeSkill, manifest.ArtifactType)
	assert.Equal(t, "file-analyzer", manifest.Annotations[AnnotationSkillName])
	require.Len(t, manifest.Layers, 1)
	assert.Equal(t, ocispec.MediaTypeImageLayerGzip, manifest.Layers[0].MediaType)

	layer, err := store.FetchBytes(ctx, manifest.Layers[0].Digest)
	require.NoError(t, err)
	files, err := ExtractTarGz(layer)
	require.NoError(t, err)

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{"SKILL.md", "lib/parse.py"}, paths, "VCS bookkeeping must be excluded")
}

func TestPackageFallsBackToDirectoryName(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	parent := t.TempDir()
	dir := filepath.Join(parent, "my-skill")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tool.yaml"), []byte("name: x\n"), 0o644))

	result, err := NewPackager(store).Package(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "my-skill", result.Name)
	assert.Empty(t, result.Version)
}

func TestPackageEmptyDirectory(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = NewPackager(store).Package(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestPackageIsDeterministic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	files := map[string]string{
		"SKILL.md": "---\nname: demo\ndescription: d\n---\n",
		"a.py":     "pass\n",
	}

	storeA, err := NewStore(t.TempDir())
	require.NoError(t, err)
	resultA, err := NewPackager(storeA).Package(ctx, writeSkillDir(t, files))
	require.NoError(t, err)

	storeB, err := NewStore(t.TempDir())
	require.NoError(t, err)
	resultB, err := NewPackager(storeB).Package(ctx, writeSkillDir(t, files))
	require.NoError(t, err)

	assert.Equal(t, resultA.LayerDigest, resultB.LayerDigest)
	assert.Equal(t, resultA.ManifestDigest, resultB.ManifestDigest)
}

func TestStoreTagAndResolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	dir := writeSkillDir(t, map[string]string{"SKILL.md": "---\nname: demo\ndescription: d\n---\n"})
	result, err := NewPackager(store).Package(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, store.Tag(ctx, result.ManifestDigest, "v1.0.0"))

	got, err := store.Resolve(ctx, "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, result.ManifestDigest, got)

	_, err = store.Resolve(ctx, "no-such-tag")
	require.Error(t, err)
}
