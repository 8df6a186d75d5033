package oci

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content/oci"
	"oras.land/oras-go/v2/errdef"
)

// Store is local OCI artifact storage backed by an OCI Image Layout on
// disk. Pulls land here before extraction; publishes are staged here
// before pushing.
type Store struct {
	root  string
	inner *oci.Store
}

// NewStore opens (creating if needed) an OCI Image Layout rooted at root.
func NewStore(root string) (*Store, error) {
	inner, err := oci.New(root)
	if err != nil {
		return nil, fmt.Errorf("creating OCI store at %s: %w", root, err)
	}
	return &Store{root: root, inner: inner}, nil
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}

// Target exposes the underlying oras.Target for copy operations.
func (s *Store) Target() oras.Target {
	return s.inner
}

// PutBlob stores a blob and returns its digest. Re-storing existing
// content is a no-op.
func (s *Store) PutBlob(ctx context.Context, content []byte) (digest.Digest, error) {
	d := digest.FromBytes(content)
	desc := ocispec.Descriptor{
		MediaType: "application/octet-stream",
		Digest:    d,
		Size:      int64(len(content)),
	}
	if err := s.inner.Push(ctx, desc, bytes.NewReader(content)); err != nil {
		if errors.Is(err, errdef.ErrAlreadyExists) {
			return d, nil
		}
		return "", fmt.Errorf("writing blob: %w", err)
	}
	return d, nil
}

// PutManifest stores manifest JSON under its declared media type and
// returns its digest.
func (s *Store) PutManifest(ctx context.Context, content []byte) (digest.Digest, error) {
	d := digest.FromBytes(content)

	var header struct {
		MediaType string `json:"mediaType"`
	}
	mediaType := "application/octet-stream"
	if err := json.Unmarshal(content, &header); err == nil && header.MediaType != "" {
		mediaType = header.MediaType
	}

	desc := ocispec.Descriptor{
		MediaType: mediaType,
		Digest:    d,
		Size:      int64(len(content)),
	}
	if err := s.inner.Push(ctx, desc, bytes.NewReader(content)); err != nil {
		if errors.Is(err, errdef.ErrAlreadyExists) {
			return d, nil
		}
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return d, nil
}

// FetchBytes retrieves raw content by digest.
func (s *Store) FetchBytes(ctx context.Context, d digest.Digest) ([]byte, error) {
	rc, err := s.inner.Fetch(ctx, ocispec.Descriptor{Digest: d})
	if err != nil {
		return nil, fmt.Errorf("content not found: %s: %w", d, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading content %s: %w", d, err)
	}
	return data, nil
}

// Manifest resolves a digest that may point at either an image manifest
// or an image index; indexes are followed to their first manifest.
func (s *Store) Manifest(ctx context.Context, d digest.Digest) (*ocispec.Manifest, error) {
	data, err := s.FetchBytes(ctx, d)
	if err != nil {
		return nil, err
	}

	var header struct {
		MediaType string `json:"mediaType"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("parsing media type of %s: %w", d, err)
	}

	if header.MediaType == ocispec.MediaTypeImageIndex {
		var index ocispec.Index
		if err := json.Unmarshal(data, &index); err != nil {
			return nil, fmt.Errorf("parsing index %s: %w", d, err)
		}
		if len(index.Manifests) == 0 {
			return nil, fmt.Errorf("index %s has no manifests", d)
		}
		return s.Manifest(ctx, index.Manifests[0].Digest)
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", d, err)
	}
	return &manifest, nil
}

// Tag associates a tag with a stored manifest digest.
func (s *Store) Tag(ctx context.Context, d digest.Digest, tag string) error {
	desc, err := s.inner.Resolve(ctx, d.String())
	if err != nil {
		return fmt.Errorf("resolving digest for tag: %w", err)
	}
	if err := s.inner.Tag(ctx, desc, tag); err != nil {
		return fmt.Errorf("tagging: %w", err)
	}
	return nil
}

// Resolve resolves a tag to its manifest digest.
func (s *Store) Resolve(ctx context.Context, tag string) (digest.Digest, error) {
	desc, err := s.inner.Resolve(ctx, tag)
	if err != nil {
		return "", fmt.Errorf("tag not found: %s: %w", tag, err)
	}
	return desc.Digest, nil
}
