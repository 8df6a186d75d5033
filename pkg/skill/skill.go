// Package skill reads skill metadata from SKILL.md frontmatter.
package skill

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"sigs.k8s.io/yaml"
)

const fileName = "SKILL.md"

var (
	frontMatterDelim = []byte{'-', '-', '-'}
	validNameRegex   = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,62}[a-z0-9])?$`)
)

// Skill is the metadata a skill declares about itself in its SKILL.md
// frontmatter.
type Skill struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Version     string            `json:"version,omitempty"`
	License     string            `json:"license,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`

	dir string
}

// Dir returns where the skill contents live on disk.
func (s *Skill) Dir() string {
	return s.dir
}

// Validate checks the declared metadata against the naming and size rules
// shared with publishing.
func (s *Skill) Validate() error {
	var err error
	if !validNameRegex.MatchString(s.Name) {
		err = errors.Join(err, fmt.Errorf("skill name must be max 64 characters with only lowercase letters, numbers, and hyphens. must not start or end with a hyphen"))
	}

	if len(s.Description) == 0 {
		err = errors.Join(err, fmt.Errorf("skill description must be provided"))
	}
	if len(s.Description) > 1024 {
		err = errors.Join(err, fmt.Errorf("skill description must be max 1024 characters"))
	}

	return err
}

// Load parses the SKILL.md frontmatter in dir.
func Load(dir string) (*Skill, error) {
	f, err := os.Open(filepath.Join(dir, fileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file in %q", fileName, dir)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	inFrontMatter := false
	yamlBuffer := bytes.Buffer{}

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading %s frontmatter: %w", fileName, err)
		}

		if bytes.HasPrefix(line, frontMatterDelim) {
			if inFrontMatter {
				break
			}

			inFrontMatter = true
			continue
		}

		if inFrontMatter {
			if _, err := yamlBuffer.Write(line); err != nil {
				return nil, fmt.Errorf("error buffering %s frontmatter: %w", fileName, err)
			}
		}
	}

	if yamlBuffer.Len() == 0 {
		return nil, fmt.Errorf("%s in %q is missing YAML front matter ('---' delimiters)", fileName, dir)
	}

	s := &Skill{dir: dir}
	err = yaml.Unmarshal(yamlBuffer.Bytes(), s)
	return s, err
}
