package oci

import (
	"context"
	"fmt"

	"github.com/opencontainers/go-digest"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/registry"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
)

// Client performs remote registry operations for skill artifacts,
// authenticating through the Docker credential store by default.
type Client struct {
	credStore credentials.Store
	plainHTTP bool

	// newTarget creates the oras.Target for a reference. Tests override
	// it to inject an in-memory repository.
	newTarget func(ref registry.Reference) (oras.Target, error)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPlainHTTP switches the client to insecure plain-HTTP registries.
func WithPlainHTTP(enabled bool) ClientOption {
	return func(c *Client) {
		c.plainHTTP = enabled
	}
}

// WithCredentialStore sets a custom credential store.
func WithCredentialStore(store credentials.Store) ClientOption {
	return func(c *Client) {
		c.credStore = store
	}
}

// NewClient creates a registry client.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	if c.credStore == nil {
		credStore, err := credentials.NewStoreFromDocker(credentials.StoreOptions{})
		if err != nil {
			return nil, fmt.Errorf("creating credential store: %w", err)
		}
		c.credStore = credStore
	}
	if c.newTarget == nil {
		c.newTarget = c.defaultNewTarget
	}

	return c, nil
}

// Pull copies the artifact at ref from its registry into the local store
// and returns its digest. The content is tagged locally under both the
// short tag and the full reference.
func (c *Client) Pull(ctx context.Context, store *Store, ref string) (digest.Digest, error) {
	parsedRef, err := ParseReference(ref)
	if err != nil {
		return "", err
	}

	target, err := c.newTarget(parsedRef)
	if err != nil {
		return "", fmt.Errorf("getting repository: %w", err)
	}

	desc, err := oras.Copy(ctx, target, parsedRef.Reference, store.Target(), parsedRef.Reference, oras.DefaultCopyOptions)
	if err != nil {
		return "", fmt.Errorf("pulling from registry: %w", err)
	}

	if err := store.Tag(ctx, desc.Digest, ref); err != nil {
		return "", fmt.Errorf("tagging locally: %w", err)
	}

	return desc.Digest, nil
}

// Push copies a locally stored artifact to the registry named by ref and
// tags it there.
func (c *Client) Push(ctx context.Context, store *Store, artifactDigest digest.Digest, ref string) error {
	parsedRef, err := ParseReference(ref)
	if err != nil {
		return err
	}

	desc, err := store.Target().Resolve(ctx, artifactDigest.String())
	if err != nil {
		return fmt.Errorf("resolving artifact descriptor: %w", err)
	}

	target, err := c.newTarget(parsedRef)
	if err != nil {
		return fmt.Errorf("getting repository: %w", err)
	}

	if err := oras.CopyGraph(ctx, store.Target(), target, desc, oras.DefaultCopyGraphOptions); err != nil {
		return fmt.Errorf("pushing to registry: %w", err)
	}

	if err := target.Tag(ctx, desc, parsedRef.Reference); err != nil {
		return fmt.Errorf("tagging remote: %w", err)
	}

	return nil
}

// Resolve looks up the digest for ref on the remote without pulling any
// content.
func (c *Client) Resolve(ctx context.Context, ref string) (digest.Digest, error) {
	parsedRef, err := ParseReference(ref)
	if err != nil {
		return "", err
	}

	target, err := c.newTarget(parsedRef)
	if err != nil {
		return "", fmt.Errorf("getting repository: %w", err)
	}

	desc, err := target.Resolve(ctx, parsedRef.Reference)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", ref, err)
	}
	return desc.Digest, nil
}

// ParseReference parses an OCI reference and requires a tag or digest.
func ParseReference(ref string) (registry.Reference, error) {
	parsedRef, err := registry.ParseReference(ref)
	if err != nil {
		return registry.Reference{}, fmt.Errorf("parsing reference %q: %w", ref, err)
	}
	if parsedRef.Reference == "" {
		return registry.Reference{}, fmt.Errorf("reference %q must include a tag or digest", ref)
	}
	return parsedRef, nil
}

func (c *Client) defaultNewTarget(ref registry.Reference) (oras.Target, error) {
	repoPath := ref.Registry + "/" + ref.Repository

	repo, err := remote.NewRepository(repoPath)
	if err != nil {
		return nil, fmt.Errorf("creating repository for %q: %w", repoPath, err)
	}

	repo.Client = &auth.Client{
		Credential: credentials.Credential(c.credStore),
	}
	repo.PlainHTTP = c.plainHTTP

	return repo, nil
}
