package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ManifestFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSkillUnion(t *testing.T) {
	tests := map[string]struct {
		toml    string
		name    string
		want    SkillEntry
		wantErr bool
	}{
		"version string shorthand": {
			toml: `[skills]
file-analyzer = "1.0.0"
`,
			name: "file-analyzer",
			want: SkillEntry{Version: "1.0.0"},
		},
		"full table": {
			toml: `[skills.web-scraper]
version = "2.1.0"
source = "git:https://example.com/user/repo"
convention = "langchain"
`,
			name: "web-scraper",
			want: SkillEntry{
				Version:    "2.1.0",
				Source:     "git:https://example.com/user/repo",
				Convention: "langchain",
			},
		},
		"table without version": {
			toml: `[skills.local-skill]
source = "./skills/local-skill"
`,
			name: "local-skill",
			want: SkillEntry{Source: "./skills/local-skill"},
		},
		"unknown field": {
			toml: `[skills.bad]
version = "1.0.0"
bogus = "x"
`,
			wantErr: true,
		},
		"non-string value": {
			toml: `[skills]
bad = 42
`,
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := Load(writeManifest(t, tc.toml))
			if tc.wantErr {
				if err == nil {
					t.Fatal("Load succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			got, ok := m.Skills[tc.name]
			if !ok {
				t.Fatalf("skill %q missing, have %v", tc.name, m.Skills)
			}
			if got != tc.want {
				t.Errorf("entry = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ManifestFileName)

	m := NewManifest(path)
	m.Registry = "registry.example.com/tools"
	m.Conventions = []string{"autogpt"}
	m.AddSkill("version-only", SkillEntry{Version: "1.0.0"})
	m.AddSkill("detailed", SkillEntry{Version: "2.0.0", Source: "git:https://example.com/r", Convention: "custom"})
	m.Installed["detailed"] = InstallRecord{
		Version:     "2.0.0",
		Convention:  "custom",
		Path:        "skills/custom/detailed",
		Source:      "git:https://example.com/r",
		InstalledAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Version-only entries serialize back to the string shorthand.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `'version-only' = '1.0.0'`) &&
		!strings.Contains(string(raw), `version-only = '1.0.0'`) &&
		!strings.Contains(string(raw), `version-only = "1.0.0"`) {
		t.Errorf("version-only entry not serialized as shorthand:\n%s", raw)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Registry != m.Registry {
		t.Errorf("Registry = %q, want %q", got.Registry, m.Registry)
	}
	if got.Skills["version-only"] != (SkillEntry{Version: "1.0.0"}) {
		t.Errorf("version-only = %+v", got.Skills["version-only"])
	}
	if got.Skills["detailed"] != m.Skills["detailed"] {
		t.Errorf("detailed = %+v, want %+v", got.Skills["detailed"], m.Skills["detailed"])
	}
	record := got.Installed["detailed"]
	if record.Version != "2.0.0" || record.Path != "skills/custom/detailed" {
		t.Errorf("install record = %+v", record)
	}
}

func TestDefaults(t *testing.T) {
	m := NewManifest(filepath.Join(t.TempDir(), ManifestFileName))

	if got := m.RegistryBase(); got != DefaultRegistry {
		t.Errorf("RegistryBase = %q, want %q", got, DefaultRegistry)
	}

	got := m.EnabledConventions()
	if len(got) != len(DefaultConventions) {
		t.Fatalf("EnabledConventions = %v, want %v", got, DefaultConventions)
	}
	for i := range got {
		if got[i] != DefaultConventions[i] {
			t.Errorf("EnabledConventions[%d] = %q, want %q", i, got[i], DefaultConventions[i])
		}
	}

	m.Registry = "registry.example.com"
	if got := m.RegistryBase(); got != "registry.example.com" {
		t.Errorf("RegistryBase = %q", got)
	}
}

func TestSetConventionEnabled(t *testing.T) {
	m := NewManifest(filepath.Join(t.TempDir(), ManifestFileName))

	// Disabling a default materializes the explicit list without it.
	if !m.SetConventionEnabled("autogpt", false) {
		t.Fatal("disabling a default should change the list")
	}
	for _, name := range m.EnabledConventions() {
		if name == "autogpt" {
			t.Error("autogpt still enabled after disable")
		}
	}

	if m.SetConventionEnabled("autogpt", false) {
		t.Error("disabling twice should be a no-op")
	}

	if !m.SetConventionEnabled("autogpt", true) {
		t.Error("re-enabling should change the list")
	}
	if m.SetConventionEnabled("autogpt", true) {
		t.Error("enabling twice should be a no-op")
	}
}

func TestRemoveSkill(t *testing.T) {
	m := NewManifest(filepath.Join(t.TempDir(), ManifestFileName))
	m.AddSkill("a", SkillEntry{Version: "1.0.0"})
	m.Installed["a"] = InstallRecord{Version: "1.0.0"}

	if !m.RemoveSkill("a") {
		t.Error("RemoveSkill of present skill = false")
	}
	if m.RemoveSkill("a") {
		t.Error("RemoveSkill of absent skill = true")
	}
}

func TestLoadSettingsPrecedence(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.toml")
	localPath := filepath.Join(dir, LocalSettingsFile)

	if err := os.WriteFile(globalPath, []byte("cache_dir = '/global/cache'\ndebug = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(localPath, []byte("cache_dir = '/local/cache'\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("local overrides global", func(t *testing.T) {
		s, err := loadSettings(Flags{}, globalPath, localPath)
		if err != nil {
			t.Fatalf("loadSettings: %v", err)
		}
		if s.CacheDir != "/local/cache" {
			t.Errorf("CacheDir = %q, want local value", s.CacheDir)
		}
		if !s.Debug {
			t.Error("Debug should fall through from global")
		}
	})

	t.Run("flags override files", func(t *testing.T) {
		flagDir := "/flag/cache"
		s, err := loadSettings(Flags{CacheDir: &flagDir}, globalPath, localPath)
		if err != nil {
			t.Fatalf("loadSettings: %v", err)
		}
		if s.CacheDir != "/flag/cache" {
			t.Errorf("CacheDir = %q, want flag value", s.CacheDir)
		}
	})

	t.Run("missing files yield zero settings", func(t *testing.T) {
		s, err := loadSettings(Flags{}, filepath.Join(dir, "none.toml"), filepath.Join(dir, "none.local.toml"))
		if err != nil {
			t.Fatalf("loadSettings: %v", err)
		}
		if s.CacheDir != "" || s.Debug || s.PlainHTTP {
			t.Errorf("settings = %+v, want zero values", s)
		}
	})
}
