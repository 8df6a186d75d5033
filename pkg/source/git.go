package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/skillset/skillset/pkg/cache"
	"github.com/skillset/skillset/pkg/logger"
	"github.com/skillset/skillset/pkg/resolver"
)

// GitSource fetches skills by cloning git repositories. Every fetch is a
// clean checkout: the previous working tree for the skill name is removed
// before cloning, so stale partial state never lingers and a half-written
// checkout self-heals on the next attempt.
type GitSource struct {
	paths cache.Paths
}

var _ Source = (*GitSource)(nil)

// NewGitSource returns a git source writing under the given cache root.
func NewGitSource(paths cache.Paths) *GitSource {
	return &GitSource{paths: paths}
}

// Type implements Source.
func (g *GitSource) Type() resolver.SourceType {
	return resolver.TypeGit
}

// Fetch clones the repository named by the reference into the cache and
// commits a metadata record for it. The metadata write happens strictly
// after the clone completes; a failed or interrupted clone leaves no
// metadata file behind.
func (g *GitSource) Fetch(ctx context.Context, ref resolver.SkillReference) (*FetchedSkill, error) {
	url, gitRef := splitGitLocator(ref)
	skillName := SkillName(ref)
	if skillName == "" || skillName == "." {
		return nil, fmt.Errorf("%w: cannot derive skill name from git URL %q", ErrFetchFailed, url)
	}

	key := cache.CacheKey(url, gitRef)
	checkout := g.paths.GitCheckoutPath(skillName)

	// No incremental updates: remove any prior checkout entirely.
	if err := os.RemoveAll(checkout); err != nil {
		return nil, fmt.Errorf("%w: removing stale checkout %s: %v", cache.ErrCache, checkout, err)
	}

	logger.Debugw("cloning repository", "url", url, "ref", gitRef, "checkout", checkout)
	if err := g.clone(ctx, url, gitRef, checkout); err != nil {
		// Leave no half-committed state: the partial tree is harmless
		// without its metadata file, but cleaning it keeps the cache tidy.
		_ = os.RemoveAll(checkout)
		return nil, fmt.Errorf("%w: cloning %s: %w", ErrFetchFailed, url, err)
	}

	meta := &cache.Metadata{
		URL:        url,
		Reference:  gitRef,
		SkillName:  skillName,
		SourceType: string(resolver.TypeGit),
	}
	if err := meta.Save(g.paths.MetadataPath(key)); err != nil {
		return nil, err
	}

	version := gitRef
	if version == "" {
		version = "latest"
	}

	return &FetchedSkill{
		Name:     skillName,
		Version:  version,
		Path:     checkout,
		Metadata: meta,
	}, nil
}

// GetMetadata checks the remote via ls-remote without materializing a
// clone, returning the resolved commit hash for the reference.
func (g *GitSource) GetMetadata(ctx context.Context, ref resolver.SkillReference) (*SkillMetadata, error) {
	url, gitRef := splitGitLocator(ref)

	args := []string{"ls-remote", url}
	if gitRef != "" {
		args = append(args, gitRef, gitRef+"^{}")
	} else {
		args = append(args, "HEAD")
	}

	out, err := exec.CommandContext(ctx, "git", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ls-remote %s: %w", ErrFetchFailed, url, execError(err))
	}

	commit := scanLsRemote(out)
	if commit == "" {
		return nil, fmt.Errorf("%w: ref %q not found in %s", ErrFetchFailed, gitRef, url)
	}

	return &SkillMetadata{
		Name:      SkillName(ref),
		Reference: gitRef,
		Digest:    commit,
		URL:       url,
	}, nil
}

// clone checks out url at gitRef into dest. Branches and tags use a
// shallow --branch clone; commit hashes use init+fetch-by-SHA, which the
// major hosts all support.
func (g *GitSource) clone(ctx context.Context, url, gitRef, dest string) error {
	switch {
	case gitRef == "":
		return runGit(ctx, "clone", "--depth", "1", url, dest)
	case isCommitHash(gitRef):
		for _, args := range [][]string{
			{"init", dest},
			{"-C", dest, "remote", "add", "origin", url},
			{"-C", dest, "fetch", "--depth", "1", "origin", gitRef},
			{"-C", dest, "checkout", "FETCH_HEAD"},
		} {
			if err := runGit(ctx, args...); err != nil {
				return err
			}
		}
		return nil
	default:
		return runGit(ctx, "clone", "--depth", "1", "--branch", gitRef, url, dest)
	}
}

// splitGitLocator separates a git locator into its URL and optional
// "#ref" fragment. A reference version other than "latest" serves as the
// ref when the locator carries no fragment, so manifest entries like
// {source = "git:…", version = "main"} check out the named branch.
func splitGitLocator(ref resolver.SkillReference) (url, gitRef string) {
	url, gitRef, _ = strings.Cut(ref.Locator, "#")
	if gitRef == "" && ref.Version != "" && ref.Version != "latest" {
		gitRef = ref.Version
	}
	return url, gitRef
}

// scanLsRemote picks the commit hash out of ls-remote output, preferring
// the dereferenced (^{}) entry of an annotated tag.
func scanLsRemote(out []byte) string {
	var commit string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		commit = fields[0]
		if strings.HasSuffix(fields[1], "^{}") {
			return fields[0]
		}
	}
	return commit
}

func runGit(ctx context.Context, args ...string) error {
	if _, err := exec.CommandContext(ctx, "git", args...).Output(); err != nil {
		return execError(err)
	}
	return nil
}

// isCommitHash reports whether s is a full 40-character hex SHA-1 hash.
func isCommitHash(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// execError surfaces git's stderr alongside the exit error.
func execError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return err
}
