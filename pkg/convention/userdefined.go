package convention

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"
)

// userDefined is a convention loaded from a YAML definition file. It has
// no post-copy behavior; detection and placement come entirely from the
// definition.
type userDefined struct {
	config Config
}

var _ Convention = (*userDefined)(nil)

func (u *userDefined) Name() string        { return u.config.Name }
func (u *userDefined) Description() string { return u.config.Description }
func (u *userDefined) Config() Config      { return u.config }

func (u *userDefined) Detect(path string) (bool, error) {
	if len(u.config.DetectPatterns) == 0 {
		return false, nil
	}
	return anyMatch(path, u.config.DetectPatterns)
}

func (u *userDefined) Organize(skillName, sourcePath, projectPath string) error {
	return copyTree(sourcePath, targetPath(projectPath, u.config.PathTemplate, skillName))
}

// LoadDefinition parses a convention definition from YAML. The name is
// required; the path template defaults to skills/<name>/{name}.
func LoadDefinition(data []byte) (Convention, error) {
	var config Config
	if err := yaml.UnmarshalStrict(data, &config); err != nil {
		return nil, fmt.Errorf("parsing convention definition: %w", err)
	}
	if config.Name == "" {
		return nil, fmt.Errorf("convention definition missing name")
	}
	if config.PathTemplate == "" {
		config.PathTemplate = "skills/" + config.Name + "/{name}"
	}
	return &userDefined{config: config}, nil
}

// LoadDefinitions registers every *.yaml/*.yml definition found in dir.
// A missing directory is not an error; projects without custom
// conventions simply don't have one.
func LoadDefinitions(r *Registry, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading conventions directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		c, err := LoadDefinition(data)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
		r.Register(c)
	}
	return nil
}
