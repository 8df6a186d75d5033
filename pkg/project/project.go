// Package project manages the project directory: manifest creation and
// gitignore upkeep for installed skill trees.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skillset/skillset/pkg/config"
)

const ManifestFile = config.ManifestFileName

// IgnoreEntries are directories the tool manages inside a project that
// should typically be gitignored.
var IgnoreEntries = []string{
	"skills/",
	config.LocalSettingsFile,
}

// Init creates a skillset.toml manifest in dir. Returns an error if the
// manifest already exists.
func Init(dir string) error {
	path := config.ManifestPath(dir)

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", ManifestFile)
	}

	m := config.NewManifest(path)
	m.Registry = config.DefaultRegistry
	m.Conventions = m.EnabledConventions()
	return m.Save()
}

// LoadOrInit loads the project manifest, creating a default one when the
// project has none yet. Used by commands that mutate the manifest.
func LoadOrInit(dir string) (*config.Manifest, error) {
	path := config.ManifestPath(dir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Init(dir); err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

// EnsureGitignore ensures that each entry appears somewhere in the
// .gitignore file within dir. Only entries not already present are
// appended. Returns the list of entries that were actually added.
func EnsureGitignore(dir string, entries []string) ([]string, error) {
	path := filepath.Join(dir, ".gitignore")

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(existing), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var toAdd []string
	for _, entry := range entries {
		if !present[entry] {
			toAdd = append(toAdd, entry)
		}
	}

	if len(toAdd) == 0 {
		return nil, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	// Ensure we start on a new line if file doesn't end with one.
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		if _, err := f.WriteString("\n"); err != nil {
			return nil, err
		}
	}

	for _, entry := range toAdd {
		if _, err := f.WriteString(entry + "\n"); err != nil {
			return nil, err
		}
	}

	return toAdd, nil
}
