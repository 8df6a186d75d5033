package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skillset/skillset/pkg/resolver"
)

// LocalSource serves skills straight from a directory on disk. Nothing is
// copied into the cache; the organize step reads the directory in place.
type LocalSource struct{}

var _ Source = (*LocalSource)(nil)

// NewLocalSource returns a local-path source.
func NewLocalSource() *LocalSource {
	return &LocalSource{}
}

// Type implements Source.
func (l *LocalSource) Type() resolver.SourceType {
	return resolver.TypeLocal
}

// Fetch validates that the locator is an existing directory and returns
// it as ready-to-organize content.
func (l *LocalSource) Fetch(_ context.Context, ref resolver.SkillReference) (*FetchedSkill, error) {
	p := expandHome(ref.Locator)

	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving path %q: %v", ErrFetchFailed, p, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: local path does not exist: %s", ErrFetchFailed, abs)
		}
		return nil, fmt.Errorf("%w: checking local path %s: %v", ErrFetchFailed, abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: local path is not a directory: %s", ErrFetchFailed, abs)
	}

	return &FetchedSkill{
		Name:    filepath.Base(abs),
		Version: "local",
		Path:    abs,
	}, nil
}

// GetMetadata is not meaningful for local paths.
func (l *LocalSource) GetMetadata(context.Context, resolver.SkillReference) (*SkillMetadata, error) {
	return nil, fmt.Errorf("%w: local sources have no remote metadata", ErrUnsupported)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
