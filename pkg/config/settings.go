package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// LocalSettingsFile is the project-local settings filename. It holds
// per-developer options and is not meant to be committed.
const LocalSettingsFile = "skillset.local.toml"

// Settings holds tool behavior that is not part of the project manifest.
// Resolved with Viper precedence: CLI flags > skillset.local.toml
// (project-local) > ~/.skillset/config.toml (global).
type Settings struct {
	// CacheDir overrides the platform cache root.
	CacheDir string `toml:"cache_dir" mapstructure:"cache_dir"`

	// PlainHTTP allows insecure registries, for local testing.
	PlainHTTP bool `toml:"plain_http" mapstructure:"plain_http"`

	// Debug enables verbose logging.
	Debug bool `toml:"debug" mapstructure:"debug"`
}

// Flags carries explicitly set CLI flag values into settings resolution.
// Nil fields were not set and do not override file values.
type Flags struct {
	CacheDir  *string
	PlainHTTP *bool
	Debug     *bool
}

// LoadSettings resolves tool settings for a project directory using
// Viper's merge semantics.
func LoadSettings(projectDir string, flags Flags) (*Settings, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("determining home directory: %w", err)
	}
	globalPath := filepath.Join(home, ".skillset", "config.toml")
	localPath := filepath.Join(projectDir, LocalSettingsFile)
	return loadSettings(flags, globalPath, localPath)
}

// loadSettings is the internal implementation that accepts explicit
// paths, making it testable without touching the real home directory.
func loadSettings(flags Flags, globalPath, localPath string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("toml")

	// Lowest priority: global config; ignore if missing.
	v.SetConfigFile(globalPath)
	_ = v.ReadInConfig()

	// Higher priority: project-local settings.
	if _, err := os.Stat(localPath); err == nil {
		v.SetConfigFile(localPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", localPath, err)
		}
	}

	// Highest priority: CLI flags.
	if flags.CacheDir != nil {
		v.Set("cache_dir", *flags.CacheDir)
	}
	if flags.PlainHTTP != nil {
		v.Set("plain_http", *flags.PlainHTTP)
	}
	if flags.Debug != nil {
		v.Set("debug", *flags.Debug)
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("unmarshaling settings: %w", err)
	}
	return s, nil
}
