// Package cache owns the shared on-disk cache used by all skill sources:
// its directory layout, the content-addressed cache keys, and the per-key
// metadata records describing what each cached fetch contains.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// ErrCache wraps filesystem failures while preparing or writing cache
// state. Callers test for it with errors.Is.
var ErrCache = errors.New("cache error")

const dirPerm = 0o755

// Paths resolves locations inside the shared cache root. The path-builder
// methods are pure (no I/O) so key and layout derivation stay testable
// independently of directory creation. A Paths value is safe to share
// read-only across sources; each source writes only its own subtree.
type Paths struct {
	root string
}

// New returns Paths rooted at the given directory. Tests pass a temporary
// directory here instead of the user cache.
func New(root string) Paths {
	return Paths{root: root}
}

// Default returns Paths rooted at the platform user-cache directory
// (e.g. ~/.cache/skillset on Linux).
func Default() Paths {
	return Paths{root: filepath.Join(xdg.CacheHome, "skillset")}
}

// Root returns the cache root directory.
func (p Paths) Root() string {
	return p.root
}

// EnsureDirectories creates the fixed cache subtree. It is idempotent and
// safe to call on every process start.
func (p Paths) EnsureDirectories() error {
	for _, dir := range []string{
		p.GitDBDir(),
		p.GitCheckoutsDir(),
		p.OCIStoreDir(),
		p.OCICheckoutsDir(),
		p.MetadataDir(),
	} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ErrCache, dir, err)
		}
	}
	return nil
}

// GitDBDir is reserved for future bare-repository storage.
func (p Paths) GitDBDir() string {
	return filepath.Join(p.root, "git", "db")
}

// GitCheckoutsDir holds git working trees, one per skill name.
func (p Paths) GitCheckoutsDir() string {
	return filepath.Join(p.root, "git", "checkouts")
}

// GitCheckoutPath returns the working-tree path for a skill fetched from git.
func (p Paths) GitCheckoutPath(skillName string) string {
	return filepath.Join(p.GitCheckoutsDir(), skillName)
}

// OCIStoreDir holds the local OCI image layout shared by pulls and publishes.
func (p Paths) OCIStoreDir() string {
	return filepath.Join(p.root, "oci", "store")
}

// OCICheckoutsDir holds extracted OCI artifact contents, one per skill name.
func (p Paths) OCICheckoutsDir() string {
	return filepath.Join(p.root, "oci", "checkouts")
}

// OCICheckoutPath returns the extraction path for a skill pulled from a registry.
func (p Paths) OCICheckoutPath(skillName string) string {
	return filepath.Join(p.OCICheckoutsDir(), skillName)
}

// MetadataDir holds one metadata record per cache key.
func (p Paths) MetadataDir() string {
	return filepath.Join(p.root, "metadata")
}

// MetadataPath returns the metadata file path for a cache key.
func (p Paths) MetadataPath(key string) string {
	return filepath.Join(p.MetadataDir(), key+".json")
}

// CacheKey derives the content-addressed key for a (url, reference) pair.
// An empty reference normalizes to "latest", so Key(url, "") always equals
// Key(url, "latest"). Equal pairs always produce equal keys; differing
// references for the same URL produce different keys.
func CacheKey(url, reference string) string {
	if reference == "" {
		reference = "latest"
	}
	sum := sha256.Sum256([]byte(url + "#" + reference))
	return hex.EncodeToString(sum[:])
}
