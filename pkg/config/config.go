package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ManifestFileName is the project manifest filename.
const ManifestFileName = "skillset.toml"

// DefaultRegistry is the registry used for bare skill names when the
// manifest does not set one.
const DefaultRegistry = "ghcr.io/skillset"

// DefaultConventions are enabled in new projects, in detection order.
var DefaultConventions = []string{"autogpt", "langchain", "agent-skills"}

// SkillEntry is one requested skill in the manifest. In TOML a skill may
// be written as a bare version string or as a table with explicit fields;
// both normalize to this shape.
type SkillEntry struct {
	Version    string `toml:"version,omitempty"`
	Source     string `toml:"source,omitempty"`
	Convention string `toml:"convention,omitempty"`
}

// InstallRecord captures what an install actually did, persisted under
// [installed] so list/info/update can report without re-fetching.
type InstallRecord struct {
	Version     string    `toml:"version"`
	Convention  string    `toml:"convention"`
	Path        string    `toml:"path"`
	Source      string    `toml:"source"`
	InstalledAt time.Time `toml:"installed_at"`
}

// Manifest is the parsed project manifest plus the path it was loaded
// from, so mutations can be saved back in place.
type Manifest struct {
	Registry    string                   `toml:"registry,omitempty"`
	Conventions []string                 `toml:"conventions,omitempty"`
	Skills      map[string]SkillEntry    `toml:"-"`
	Installed   map[string]InstallRecord `toml:"installed,omitempty"`

	path string
}

// manifestFile is the on-disk shape. Skills stay untyped here because a
// value may be either a version string or an entry table.
type manifestFile struct {
	Registry    string                   `toml:"registry,omitempty"`
	Conventions []string                 `toml:"conventions,omitempty"`
	Skills      map[string]any           `toml:"skills,omitempty"`
	Installed   map[string]InstallRecord `toml:"installed,omitempty"`
}

// NewManifest returns an empty manifest that will save to path.
func NewManifest(path string) *Manifest {
	return &Manifest{
		Skills:    map[string]SkillEntry{},
		Installed: map[string]InstallRecord{},
		path:      path,
	}
}

// ManifestPath returns the manifest location for a project directory.
func ManifestPath(dir string) string {
	return filepath.Join(dir, ManifestFileName)
}

// Load reads and normalizes the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var file manifestFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	m := &Manifest{
		Registry:    file.Registry,
		Conventions: file.Conventions,
		Skills:      map[string]SkillEntry{},
		Installed:   file.Installed,
		path:        path,
	}
	if m.Installed == nil {
		m.Installed = map[string]InstallRecord{}
	}

	for name, raw := range file.Skills {
		entry, err := normalizeSkill(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: skill %q: %w", path, name, err)
		}
		m.Skills[name] = entry
	}

	return m, nil
}

// LoadProject loads the manifest from a project directory.
func LoadProject(dir string) (*Manifest, error) {
	return Load(ManifestPath(dir))
}

// normalizeSkill converts a decoded TOML value into a SkillEntry. Strings
// are shorthand for a version-only entry.
func normalizeSkill(raw any) (SkillEntry, error) {
	switch v := raw.(type) {
	case string:
		return SkillEntry{Version: v}, nil
	case map[string]any:
		var entry SkillEntry
		for key, val := range v {
			s, ok := val.(string)
			if !ok {
				return SkillEntry{}, fmt.Errorf("field %q must be a string", key)
			}
			switch key {
			case "version":
				entry.Version = s
			case "source":
				entry.Source = s
			case "convention":
				entry.Convention = s
			default:
				return SkillEntry{}, fmt.Errorf("unknown field %q", key)
			}
		}
		return entry, nil
	default:
		return SkillEntry{}, fmt.Errorf("must be a version string or a table, got %T", raw)
	}
}

// denormalizeSkill renders an entry back to its most compact TOML form.
func denormalizeSkill(entry SkillEntry) any {
	if entry.Source == "" && entry.Convention == "" {
		return entry.Version
	}
	return entry
}

// Path returns where the manifest saves to.
func (m *Manifest) Path() string {
	return m.path
}

// RegistryBase returns the configured registry, falling back to the
// default.
func (m *Manifest) RegistryBase() string {
	if m.Registry != "" {
		return m.Registry
	}
	return DefaultRegistry
}

// EnabledConventions returns the convention names enabled for this
// project, falling back to the defaults.
func (m *Manifest) EnabledConventions() []string {
	if len(m.Conventions) > 0 {
		return m.Conventions
	}
	out := make([]string, len(DefaultConventions))
	copy(out, DefaultConventions)
	return out
}

// SetConventionEnabled adds or removes a name from the enabled list,
// preserving order. Reports whether the list changed.
func (m *Manifest) SetConventionEnabled(name string, enabled bool) bool {
	current := m.EnabledConventions()

	idx := -1
	for i, n := range current {
		if n == name {
			idx = i
			break
		}
	}

	if enabled {
		if idx >= 0 {
			return false
		}
		m.Conventions = append(current, name)
		return true
	}

	if idx < 0 {
		return false
	}
	m.Conventions = append(current[:idx], current[idx+1:]...)
	return true
}

// AddSkill records a requested skill. An existing entry is replaced.
func (m *Manifest) AddSkill(name string, entry SkillEntry) {
	if m.Skills == nil {
		m.Skills = map[string]SkillEntry{}
	}
	m.Skills[name] = entry
}

// RemoveSkill drops a skill and its install record. Reports whether the
// skill was present in either section.
func (m *Manifest) RemoveSkill(name string) bool {
	_, requested := m.Skills[name]
	_, installed := m.Installed[name]
	delete(m.Skills, name)
	delete(m.Installed, name)
	return requested || installed
}

// Record persists the outcome of an install under [installed].
func (m *Manifest) Record(name string, record InstallRecord) error {
	if m.Installed == nil {
		m.Installed = map[string]InstallRecord{}
	}
	m.Installed[name] = record
	return m.Save()
}

// Save writes the manifest back to its path.
func (m *Manifest) Save() error {
	file := manifestFile{
		Registry:    m.Registry,
		Conventions: m.Conventions,
		Installed:   m.Installed,
	}
	if len(m.Skills) > 0 {
		file.Skills = make(map[string]any, len(m.Skills))
		for name, entry := range m.Skills {
			file.Skills[name] = denormalizeSkill(entry)
		}
	}
	if len(file.Installed) == 0 {
		file.Installed = nil
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", m.path, err)
	}
	return nil
}
