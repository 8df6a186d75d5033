// Package source implements the pluggable fetch protocol: each Source
// variant knows how to retrieve skill content for one kind of locator
// (git repository, OCI registry, local path), populating the shared cache
// as a side effect. A Registry dispatches resolved references to the
// source registered for their type tag.
package source

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/skillset/skillset/pkg/cache"
	"github.com/skillset/skillset/pkg/resolver"
)

var (
	// ErrSourceNotFound indicates no source is registered for a
	// reference's type tag.
	ErrSourceNotFound = errors.New("source not found")

	// ErrFetchFailed wraps transport and VCS failures. Retry is a
	// user-initiated re-run; every stateful step is repeatable.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrUnsupported indicates a capability a source variant does not
	// implement (e.g. remote metadata lookup for local paths).
	ErrUnsupported = errors.New("unsupported operation")
)

// FetchedSkill is the result of one fetch: ready-to-organize content on
// disk plus the provenance record committed to the cache. It lives for
// the duration of a single install and is never persisted itself.
type FetchedSkill struct {
	Name     string
	Version  string
	Path     string
	Metadata *cache.Metadata
}

// SkillMetadata is a lightweight remote existence/version check, obtained
// without materializing full content.
type SkillMetadata struct {
	Name      string
	Reference string
	Digest    string
	URL       string
}

// Source fetches skill content for resolved references of one type.
// Fetch must be idempotent from the caller's perspective: repeated calls
// with the same reference yield equivalent content, though the cache may
// re-fetch internally.
type Source interface {
	Fetch(ctx context.Context, ref resolver.SkillReference) (*FetchedSkill, error)
	GetMetadata(ctx context.Context, ref resolver.SkillReference) (*SkillMetadata, error)
	Type() resolver.SourceType
}

// Registry holds at most one Source per type tag; registering a second
// source for a tag replaces the first.
type Registry struct {
	sources map[resolver.SourceType]Source
}

// NewRegistry returns an empty source registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[resolver.SourceType]Source)}
}

// Register adds a source under its own type tag. Last registration wins.
func (r *Registry) Register(s Source) {
	r.sources[s.Type()] = s
}

// Get returns the source registered for the given type tag.
func (r *Registry) Get(t resolver.SourceType) (Source, error) {
	s, ok := r.sources[t]
	if !ok {
		return nil, fmt.Errorf("%w: no source registered for type %q", ErrSourceNotFound, t)
	}
	return s, nil
}

// Fetch dispatches to the source matching the reference's type tag.
func (r *Registry) Fetch(ctx context.Context, ref resolver.SkillReference) (*FetchedSkill, error) {
	s, err := r.Get(ref.Type)
	if err != nil {
		return nil, err
	}
	return s.Fetch(ctx, ref)
}

// GetMetadata dispatches a metadata lookup to the matching source.
func (r *Registry) GetMetadata(ctx context.Context, ref resolver.SkillReference) (*SkillMetadata, error) {
	s, err := r.Get(ref.Type)
	if err != nil {
		return nil, err
	}
	return s.GetMetadata(ctx, ref)
}

// MetadataKey derives the cache metadata key a fetch of the given
// reference commits under. Local references keep no cache entry and
// yield "".
func MetadataKey(ref resolver.SkillReference) string {
	switch ref.Type {
	case resolver.TypeGit:
		url, gitRef := splitGitLocator(ref)
		return cache.CacheKey(url, gitRef)
	case resolver.TypeOCI:
		repo := ref.Locator
		tag := ""
		if at := strings.LastIndex(repo, "@"); at > 0 {
			tag = repo[at+1:]
			repo = repo[:at]
		} else if slash := strings.LastIndex(repo, "/"); slash >= 0 {
			if colon := strings.LastIndex(repo[slash:], ":"); colon >= 0 {
				tag = repo[slash+colon+1:]
				repo = repo[:slash+colon]
			}
		}
		return cache.CacheKey(repo, tag)
	default:
		return ""
	}
}

// SkillName derives the skill name a fetch of the given reference will
// use for its checkout directory. Callers wanting to serialize installs
// per skill name key their locks on this.
func SkillName(ref resolver.SkillReference) string {
	switch ref.Type {
	case resolver.TypeGit:
		url, _, _ := strings.Cut(ref.Locator, "#")
		return strings.TrimSuffix(path.Base(strings.TrimSuffix(url, "/")), ".git")
	case resolver.TypeOCI:
		repo := ref.Locator
		if slash := strings.LastIndex(repo, "/"); slash >= 0 {
			repo = repo[slash+1:]
		}
		name, _, _ := strings.Cut(repo, ":")
		name, _, _ = strings.Cut(name, "@")
		return name
	default:
		return path.Base(strings.TrimSuffix(ref.Locator, "/"))
	}
}
