package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skillset/skillset/pkg/cache"
	"github.com/skillset/skillset/pkg/config"
	"github.com/skillset/skillset/pkg/convention"
	"github.com/skillset/skillset/pkg/installer"
	"github.com/skillset/skillset/pkg/oci"
	"github.com/skillset/skillset/pkg/resolver"
	"github.com/skillset/skillset/pkg/source"
)

// conventionsDirName is where a project keeps user-defined convention
// definitions, relative to the project root.
const conventionsDirName = ".skillset/conventions"

func cwd() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return wd, nil
}

// env bundles everything a command needs to operate on a project.
type env struct {
	ProjectDir  string
	Manifest    *config.Manifest
	Paths       cache.Paths
	Conventions *convention.Registry
	Installer   *installer.Installer
}

// newEnv assembles the runtime for the current working directory: cache
// paths from settings, sources for all three types, and the convention
// registry shaped by the manifest's enabled list.
func newEnv(manifest *config.Manifest) (*env, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	paths := cachePaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	plainHTTP := settings != nil && settings.PlainHTTP
	client, err := oci.NewClient(oci.WithPlainHTTP(plainHTTP))
	if err != nil {
		return nil, err
	}

	sources := source.NewRegistry()
	sources.Register(source.NewGitSource(paths))
	sources.Register(source.NewOCISource(paths, client))
	sources.Register(source.NewLocalSource())

	conventions, err := conventionRegistry(wd, manifest)
	if err != nil {
		return nil, err
	}

	inst := &installer.Installer{
		Sources:     sources,
		Conventions: conventions,
		Defaults:    resolver.Defaults{Registry: manifest.RegistryBase()},
		ProjectDir:  wd,
		Recorder:    manifest,
	}

	return &env{
		ProjectDir:  wd,
		Manifest:    manifest,
		Paths:       paths,
		Conventions: conventions,
		Installer:   inst,
	}, nil
}

func cachePaths() cache.Paths {
	if settings != nil && settings.CacheDir != "" {
		return cache.New(settings.CacheDir)
	}
	return cache.Default()
}

// conventionRegistry builds the registry from the built-ins plus any
// project-local definitions, then applies the manifest's enabled list.
func conventionRegistry(projectDir string, manifest *config.Manifest) (*convention.Registry, error) {
	r := convention.DefaultRegistry()
	if err := convention.LoadDefinitions(r, filepath.Join(projectDir, filepath.FromSlash(conventionsDirName))); err != nil {
		return nil, err
	}

	enabled := make(map[string]bool)
	for _, name := range manifest.EnabledConventions() {
		enabled[name] = true
	}
	for _, name := range r.Names() {
		// Custom stays registered as the fallback regardless.
		if name == convention.CustomName {
			continue
		}
		if enabled[name] {
			_ = r.Enable(name)
		} else {
			_ = r.Disable(name)
		}
	}

	return r, nil
}
