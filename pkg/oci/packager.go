package oci

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	specs "github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"gopkg.in/yaml.v3"
)

// Packager creates reproducible skill artifacts from directories on disk.
type Packager struct {
	store *Store
}

// PackageResult describes the artifact produced by one Package call.
type PackageResult struct {
	ManifestDigest digest.Digest
	ConfigDigest   digest.Digest
	LayerDigest    digest.Digest
	Name           string
	Version        string
}

// frontmatter is the YAML block at the top of a SKILL.md file. Only the
// identity fields matter for packaging.
type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
}

// maxFrontmatterSize caps the YAML block to keep parsing cheap.
const maxFrontmatterSize = 64 * 1024

// NewPackager creates a packager writing into the given local store.
func NewPackager(store *Store) *Packager {
	return &Packager{store: store}
}

// Package archives the skill directory into a single-layer OCI artifact
// in the local store and returns its digests. Identity metadata comes
// from SKILL.md frontmatter when present, falling back to the directory
// name.
func (p *Packager) Package(ctx context.Context, skillDir string) (*PackageResult, error) {
	files, err := readDirectory(skillDir)
	if err != nil {
		return nil, fmt.Errorf("reading skill directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("skill directory %s is empty", skillDir)
	}

	name := filepath.Base(skillDir)
	var description, version string
	if fm := parseFrontmatter(files); fm != nil {
		if fm.Name != "" {
			name = fm.Name
		}
		description = fm.Description
		version = fm.Version
	}

	layerBytes, err := CreateTarGz(files)
	if err != nil {
		return nil, fmt.Errorf("creating content layer: %w", err)
	}
	layerDigest, err := p.store.PutBlob(ctx, layerBytes)
	if err != nil {
		return nil, fmt.Errorf("storing layer blob: %w", err)
	}

	imgConfig := ocispec.Image{
		Config: ocispec.ImageConfig{
			Labels: map[string]string{
				AnnotationSkillName:        name,
				AnnotationSkillDescription: description,
				AnnotationSkillVersion:     version,
			},
		},
	}
	configBytes, err := json.Marshal(imgConfig)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	configDigest, err := p.store.PutBlob(ctx, configBytes)
	if err != nil {
		return nil, fmt.Errorf("storing config blob: %w", err)
	}

	manifest := ocispec.Manifest{
		Versioned:    specs.Versioned{SchemaVersion: 2},
		MediaType:    ocispec.MediaTypeImageManifest,
		ArtifactType: ArtifactTypeSkill,
		Config: ocispec.Descriptor{
			MediaType: ocispec.MediaTypeImageConfig,
			Digest:    configDigest,
			Size:      int64(len(configBytes)),
		},
		Layers: []ocispec.Descriptor{{
			MediaType: ocispec.MediaTypeImageLayerGzip,
			Digest:    layerDigest,
			Size:      int64(len(layerBytes)),
			Annotations: map[string]string{
				ocispec.AnnotationTitle: name + ".tar.gz",
			},
		}},
		Annotations: map[string]string{
			AnnotationSkillName:        name,
			AnnotationSkillDescription: description,
			AnnotationSkillVersion:     version,
		},
	}
	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	manifestDigest, err := p.store.PutManifest(ctx, manifestBytes)
	if err != nil {
		return nil, fmt.Errorf("storing manifest: %w", err)
	}

	return &PackageResult{
		ManifestDigest: manifestDigest,
		ConfigDigest:   configDigest,
		LayerDigest:    layerDigest,
		Name:           name,
		Version:        version,
	}, nil
}

// readDirectory collects all regular files under dir as archive entries
// with slash-separated relative paths. VCS bookkeeping is skipped.
func readDirectory(dir string) ([]FileEntry, error) {
	var files []FileEntry
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		files = append(files, FileEntry{
			Path:    filepath.ToSlash(rel),
			Content: content,
			Mode:    int64(info.Mode().Perm()),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// parseFrontmatter extracts the YAML block between "---" delimiters at
// the top of SKILL.md, if the archive carries one.
func parseFrontmatter(files []FileEntry) *frontmatter {
	var skillMD []byte
	for _, f := range files {
		if f.Path == "SKILL.md" {
			skillMD = f.Content
			break
		}
	}
	if skillMD == nil {
		return nil
	}

	block := frontmatterBlock(skillMD)
	if block == nil || len(block) > maxFrontmatterSize {
		return nil
	}

	var fm frontmatter
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil
	}
	return &fm
}

func frontmatterBlock(content []byte) []byte {
	delim := []byte("---")
	lines := bytes.Split(content, []byte("\n"))
	if len(lines) == 0 || !bytes.HasPrefix(bytes.TrimSpace(lines[0]), delim) {
		return nil
	}
	var block [][]byte
	for _, line := range lines[1:] {
		if bytes.HasPrefix(bytes.TrimSpace(line), delim) {
			return bytes.Join(block, []byte("\n"))
		}
		block = append(block, line)
	}
	return nil
}
