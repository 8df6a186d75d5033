// Package installer orchestrates the install flow: resolve the reference,
// fetch through the matching source, pick a convention, organize the
// content into the project, and record the result in the manifest.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/skillset/skillset/pkg/config"
	"github.com/skillset/skillset/pkg/convention"
	"github.com/skillset/skillset/pkg/logger"
	"github.com/skillset/skillset/pkg/resolver"
	"github.com/skillset/skillset/pkg/source"
)

// ErrRecord indicates the skill was installed but the manifest record
// could not be written. The installation itself is intact.
var ErrRecord = errors.New("recording install")

// Recorder persists what an install did. The manifest layer implements
// it.
type Recorder interface {
	Record(name string, record config.InstallRecord) error
}

// Request is one skill to install.
type Request struct {
	// Raw is the user-supplied reference: a bare or scoped name, or an
	// explicit git:/oci:/local locator.
	Raw string

	// Version applies when Raw is a bare or scoped name, or a locator
	// that carries no version of its own.
	Version string

	// Convention, when set, skips detection.
	Convention string
}

// Result describes a completed installation.
type Result struct {
	Name       string
	Version    string
	Convention string
	Path       string
	Source     string
}

// Installer wires the resolver, sources, and conventions together for a
// project directory.
type Installer struct {
	Sources     *source.Registry
	Conventions *convention.Registry
	Defaults    resolver.Defaults
	ProjectDir  string
	Recorder    Recorder

	// locks serializes operations per skill name; concurrent installs of
	// different skills may proceed in parallel.
	locks sync.Map
}

func (inst *Installer) lockFor(name string) *sync.Mutex {
	mu, _ := inst.locks.LoadOrStore(name, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Install runs the full flow for one request. A failure before organize
// leaves the project untouched. A failure writing the manifest record
// returns both the result and an error wrapping ErrRecord.
func (inst *Installer) Install(ctx context.Context, req Request) (*Result, error) {
	ref, err := inst.resolve(req)
	if err != nil {
		return nil, err
	}

	name := source.SkillName(ref)
	mu := inst.lockFor(name)
	mu.Lock()
	defer mu.Unlock()

	logger.Infow("installing skill", "name", name, "ref", ref.Canonical())

	fetched, err := inst.Sources.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", req.Raw, err)
	}

	conv, err := inst.Conventions.Select(fetched.Path, req.Convention)
	if err != nil {
		return nil, fmt.Errorf("selecting convention for %q: %w", fetched.Name, err)
	}

	if err := conv.Organize(fetched.Name, fetched.Path, inst.ProjectDir); err != nil {
		return nil, fmt.Errorf("organizing %q: %w", fetched.Name, err)
	}

	result := &Result{
		Name:       fetched.Name,
		Version:    fetched.Version,
		Convention: conv.Name(),
		Path:       installedPath(conv, fetched.Name),
		Source:     ref.Canonical(),
	}

	if inst.Recorder != nil {
		record := config.InstallRecord{
			Version:     result.Version,
			Convention:  result.Convention,
			Path:        result.Path,
			Source:      result.Source,
			InstalledAt: time.Now().UTC(),
		}
		if err := inst.Recorder.Record(result.Name, record); err != nil {
			return result, fmt.Errorf("%w: %s: %v", ErrRecord, result.Name, err)
		}
	}

	return result, nil
}

// InstallAll installs every skill in the manifest in name order, so runs
// are deterministic. The first failure aborts the run.
func (inst *Installer) InstallAll(ctx context.Context, m *config.Manifest) ([]*Result, error) {
	names := make([]string, 0, len(m.Skills))
	for name := range m.Skills {
		names = append(names, name)
	}
	sort.Strings(names)

	var results []*Result
	for _, name := range names {
		entry := m.Skills[name]
		result, err := inst.Install(ctx, RequestFromEntry(name, entry))
		if err != nil {
			return results, fmt.Errorf("installing %q: %w", name, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// Update re-fetches and reorganizes an already requested skill.
func (inst *Installer) Update(ctx context.Context, m *config.Manifest, name string) (*Result, error) {
	entry, ok := m.Skills[name]
	if !ok {
		return nil, fmt.Errorf("skill %q is not in the manifest", name)
	}
	return inst.Install(ctx, RequestFromEntry(name, entry))
}

// Remove deletes a skill's installed tree from the project, using the
// recorded path when available and the convention layout otherwise.
func (inst *Installer) Remove(m *config.Manifest, name string) error {
	mu := inst.lockFor(name)
	mu.Lock()
	defer mu.Unlock()

	record, hasRecord := m.Installed[name]
	var dir string
	switch {
	case hasRecord && record.Path != "":
		dir = filepath.Join(inst.ProjectDir, filepath.FromSlash(record.Path))
	case hasRecord && record.Convention != "":
		if conv, err := inst.Conventions.Get(record.Convention); err == nil {
			dir = filepath.Join(inst.ProjectDir, filepath.FromSlash(installedPath(conv, name)))
		}
	}

	if dir != "" {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing %s: %w", dir, err)
		}
	}

	if !m.RemoveSkill(name) {
		return fmt.Errorf("skill %q is not in the manifest", name)
	}
	return m.Save()
}

// RequestFromEntry converts a manifest skill entry into an install
// request. Entries with an explicit source use it verbatim; otherwise the
// manifest key is treated as a (possibly scoped) skill name.
func RequestFromEntry(name string, entry config.SkillEntry) Request {
	raw := entry.Source
	if raw == "" {
		raw = name
	}
	return Request{
		Raw:        raw,
		Version:    entry.Version,
		Convention: entry.Convention,
	}
}

func (inst *Installer) resolve(req Request) (resolver.SkillReference, error) {
	// Bare and scoped names go through name resolution against the
	// project registry; anything with a scheme or path shape resolves
	// directly, carrying the entry version for locators without one.
	if isName(req.Raw) {
		return resolver.ResolveName(req.Raw, req.Version, inst.Defaults)
	}
	return resolver.ResolveWithVersion(req.Raw, req.Version, inst.Defaults)
}

// isName reports whether raw looks like a bare or scoped skill name
// rather than a locator.
func isName(raw string) bool {
	if raw == "" {
		return false
	}
	if strings.HasPrefix(raw, "@") {
		return true
	}
	if strings.ContainsAny(raw, ":/\\") {
		return false
	}
	return !strings.HasPrefix(raw, ".") && !strings.HasPrefix(raw, "~")
}

// installedPath is the project-relative directory a convention placed a
// skill into.
func installedPath(conv convention.Convention, name string) string {
	template := conv.Config().PathTemplate
	if template == "" {
		template = "skills/" + conv.Name() + "/{name}"
	}
	return strings.ReplaceAll(template, "{name}", name)
}
