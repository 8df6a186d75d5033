// Package convention detects which agent-framework layout a fetched skill
// follows and organizes its files into the framework's expected directory
// under the project. Detection is pure inspection; organize copies with
// overwrite semantics so re-running an install is always safe.
package convention

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a convention name with no registration.
	ErrNotFound = errors.New("convention not found")

	// ErrOrganize wraps copy/write failures while placing skill content.
	ErrOrganize = errors.New("organize failed")
)

// Config describes a convention's static shape: how it is detected and
// where it places skills. Immutable after construction.
type Config struct {
	Name string `json:"name" yaml:"name"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// DetectPatterns are file globs, relative to the fetched content
	// root, whose presence marks the convention.
	DetectPatterns []string `json:"detect,omitempty" yaml:"detect,omitempty"`

	// PathTemplate is the target directory relative to the project,
	// with {name} standing in for the skill name.
	PathTemplate string `json:"path,omitempty" yaml:"path,omitempty"`

	// MetadataFile names the convention's per-skill metadata file,
	// if it has one.
	MetadataFile string `json:"metadata_file,omitempty" yaml:"metadata_file,omitempty"`
}

// Convention is one framework's detection rules plus placement policy.
type Convention interface {
	// Name returns the registry key for this convention.
	Name() string

	// Description returns a one-line human summary.
	Description() string

	// Config returns the convention's static configuration.
	Config() Config

	// Detect reports whether the content directory matches this
	// convention's file-pattern signature. No mutation.
	Detect(path string) (bool, error)

	// Organize places the content into the project's layout for this
	// convention, replacing any previous installation of the skill.
	Organize(skillName, sourcePath, projectPath string) error
}

// Registry holds conventions by name, remembers registration order for
// detection, and tracks which are enabled. Disabling a convention removes
// it from detection without unregistering it.
type Registry struct {
	order       []string
	conventions map[string]Convention
	disabled    map[string]bool
	fallback    string
}

// NewRegistry returns a registry whose fallback convention (selected when
// nothing detects) is named by fallback.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		conventions: make(map[string]Convention),
		disabled:    make(map[string]bool),
		fallback:    fallback,
	}
}

// Register adds a convention under its name. Re-registering a name
// replaces the instance but keeps its original detection position.
func (r *Registry) Register(c Convention) {
	name := c.Name()
	if _, exists := r.conventions[name]; !exists {
		r.order = append(r.order, name)
	}
	r.conventions[name] = c
}

// Get returns the convention registered under name.
func (r *Registry) Get(name string) (Convention, error) {
	c, ok := r.conventions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return c, nil
}

// Names returns all registered convention names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Enabled reports whether the named convention participates in detection.
func (r *Registry) Enabled(name string) bool {
	_, registered := r.conventions[name]
	return registered && !r.disabled[name]
}

// Enable re-admits a convention to detection.
func (r *Registry) Enable(name string) error {
	if _, ok := r.conventions[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(r.disabled, name)
	return nil
}

// Disable removes a convention from detection without unregistering it.
func (r *Registry) Disable(name string) error {
	if _, ok := r.conventions[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	r.disabled[name] = true
	return nil
}

// Detect runs detection over the enabled conventions in registration
// order and returns the first match, or (nil, false) when nothing
// matches.
func (r *Registry) Detect(path string) (Convention, bool, error) {
	for _, name := range r.order {
		if r.disabled[name] {
			continue
		}
		c := r.conventions[name]
		match, err := c.Detect(path)
		if err != nil {
			return nil, false, err
		}
		if match {
			return c, true, nil
		}
	}
	return nil, false, nil
}

// Select picks the convention for a fetched skill. An explicit override
// wins outright, skipping detection; otherwise the first enabled match in
// registration order is used; otherwise the fallback.
func (r *Registry) Select(path, override string) (Convention, error) {
	if override != "" {
		return r.Get(override)
	}

	c, found, err := r.Detect(path)
	if err != nil {
		return nil, err
	}
	if found {
		return c, nil
	}

	return r.Get(r.fallback)
}
