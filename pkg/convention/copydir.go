package convention

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// targetPath expands a convention's path template for a skill and anchors
// it under the project directory.
func targetPath(projectPath, template, skillName string) string {
	rel := strings.ReplaceAll(template, "{name}", skillName)
	return filepath.Join(projectPath, filepath.FromSlash(rel))
}

// copyTree copies src into dst, replacing dst entirely first. Replacing
// rather than merging keeps repeated installs idempotent and removes
// files deleted upstream.
func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: reading source %s: %v", ErrOrganize, src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: source %s is not a directory", ErrOrganize, src)
	}

	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("%w: clearing %s: %v", ErrOrganize, dst, err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrOrganize, dst, err)
	}

	err = filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(dst, rel), 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dst, rel), content, info.Mode().Perm())
	})
	if err != nil {
		return fmt.Errorf("%w: copying %s: %v", ErrOrganize, src, err)
	}
	return nil
}

// anyMatch reports whether dir contains a file matching any of the glob
// patterns. Patterns apply to the top level of dir only.
func anyMatch(dir string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return false, fmt.Errorf("bad detect pattern %q: %w", pattern, err)
		}
		if len(matches) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// allExist reports whether every named file is present in dir.
func allExist(dir string, names []string) (bool, error) {
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}
