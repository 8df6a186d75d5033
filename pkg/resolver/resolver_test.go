package resolver

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := map[string]struct {
		raw      string
		defaults Defaults
		want     SkillReference
		wantErr  bool
	}{
		"bare name with default registry": {
			raw:      "file-analyzer@1.0.0",
			defaults: Defaults{Registry: "ghcr.io/skillset"},
			want: SkillReference{
				Type:    TypeOCI,
				Locator: "ghcr.io/skillset/file-analyzer:v1.0.0",
				Version: "1.0.0",
			},
		},
		"scoped name": {
			raw:      "@johndoe/web-scraper@2.1.0",
			defaults: Defaults{Registry: "ghcr.io/skillset"},
			want: SkillReference{
				Type:    TypeOCI,
				Locator: "ghcr.io/johndoe/web-scraper:v2.1.0",
				Version: "2.1.0",
			},
		},
		"bare name without version": {
			raw: "file-analyzer",
			want: SkillReference{
				Type:    TypeOCI,
				Locator: "ghcr.io/skillset/file-analyzer:latest",
				Version: "latest",
			},
		},
		"v-prefixed version is not doubled": {
			raw: "file-analyzer@v1.0.0",
			want: SkillReference{
				Type:    TypeOCI,
				Locator: "ghcr.io/skillset/file-analyzer:v1.0.0",
				Version: "v1.0.0",
			},
		},
		"explicit git url": {
			raw: "git:https://example.com/user/repo",
			want: SkillReference{
				Type:    TypeGit,
				Locator: "https://example.com/user/repo",
				Version: "latest",
			},
		},
		"git url with ref fragment": {
			raw: "git:https://example.com/user/repo#v2.0.0",
			want: SkillReference{
				Type:    TypeGit,
				Locator: "https://example.com/user/repo#v2.0.0",
				Version: "v2.0.0",
			},
		},
		"explicit oci reference": {
			raw: "oci:ghcr.io/owner/skill:v1.2.3",
			want: SkillReference{
				Type:    TypeOCI,
				Locator: "ghcr.io/owner/skill:v1.2.3",
				Version: "v1.2.3",
			},
		},
		"oci reference without tag defaults to latest": {
			raw: "oci:ghcr.io/owner/skill",
			want: SkillReference{
				Type:    TypeOCI,
				Locator: "ghcr.io/owner/skill:latest",
				Version: "latest",
			},
		},
		"oci reference with port and no tag defaults to latest": {
			raw: "oci:registry.example.com:5000/owner/skill",
			want: SkillReference{
				Type:    TypeOCI,
				Locator: "registry.example.com:5000/owner/skill:latest",
				Version: "latest",
			},
		},
		"relative local path": {
			raw: "./skills/my-skill",
			want: SkillReference{
				Type:    TypeLocal,
				Locator: "./skills/my-skill",
				Version: "local",
			},
		},
		"absolute local path": {
			raw: "/opt/skills/my-skill",
			want: SkillReference{
				Type:    TypeLocal,
				Locator: "/opt/skills/my-skill",
				Version: "local",
			},
		},
		"empty reference": {
			raw:     "",
			wantErr: true,
		},
		"unsupported scheme": {
			raw:     "ftp://example.com/skill",
			wantErr: true,
		},
		"empty git locator": {
			raw:     "git:",
			wantErr: true,
		},
		"invalid version": {
			raw:     "file-analyzer@not.a.version",
			wantErr: true,
		},
		"name with invalid characters": {
			raw:     "my skill",
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Resolve(tc.raw, tc.defaults)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Resolve(%q) succeeded with %+v, want error", tc.raw, got)
				}
				if !errors.Is(err, ErrInvalidReference) {
					t.Errorf("error %v is not ErrInvalidReference", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tc.raw, err)
			}
			if got != tc.want {
				t.Errorf("Resolve(%q) = %+v, want %+v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestResolveWithVersion(t *testing.T) {
	tests := map[string]struct {
		raw     string
		version string
		want    SkillReference
		wantErr bool
	}{
		"git locator takes the version as ref": {
			raw:     "git:https://example.com/user/repo",
			version: "feature",
			want: SkillReference{
				Type:    TypeGit,
				Locator: "https://example.com/user/repo",
				Version: "feature",
			},
		},
		"git fragment wins over the version": {
			raw:     "git:https://example.com/user/repo#v2.0.0",
			version: "feature",
			want: SkillReference{
				Type:    TypeGit,
				Locator: "https://example.com/user/repo#v2.0.0",
				Version: "v2.0.0",
			},
		},
		"tagless oci locator builds the tag from the version": {
			raw:     "oci:ghcr.io/owner/skill",
			version: "1.0.0",
			want: SkillReference{
				Type:    TypeOCI,
				Locator: "ghcr.io/owner/skill:v1.0.0",
				Version: "v1.0.0",
			},
		},
		"tagged oci locator keeps its tag": {
			raw:     "oci:ghcr.io/owner/skill:v3.0.0",
			version: "1.0.0",
			want: SkillReference{
				Type:    TypeOCI,
				Locator: "ghcr.io/owner/skill:v3.0.0",
				Version: "v3.0.0",
			},
		},
		"digest oci locator is untouched": {
			raw:     "oci:ghcr.io/owner/skill@sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
			version: "1.0.0",
			want: SkillReference{
				Type:    TypeOCI,
				Locator: "ghcr.io/owner/skill@sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
				Version: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
			},
		},
		"invalid version for a tagless oci locator": {
			raw:     "oci:ghcr.io/owner/skill",
			version: "not.a.version",
			wantErr: true,
		},
		"bare name takes the version": {
			raw:     "file-analyzer",
			version: "1.0.0",
			want: SkillReference{
				Type:    TypeOCI,
				Locator: "ghcr.io/skillset/file-analyzer:v1.0.0",
				Version: "1.0.0",
			},
		},
		"inline name version wins": {
			raw:     "file-analyzer@2.0.0",
			version: "1.0.0",
			want: SkillReference{
				Type:    TypeOCI,
				Locator: "ghcr.io/skillset/file-analyzer:v2.0.0",
				Version: "2.0.0",
			},
		},
		"local path ignores the version": {
			raw:     "./skills/my-skill",
			version: "1.0.0",
			want: SkillReference{
				Type:    TypeLocal,
				Locator: "./skills/my-skill",
				Version: "local",
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ResolveWithVersion(tc.raw, tc.version, Defaults{})
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ResolveWithVersion(%q, %q) succeeded with %+v, want error", tc.raw, tc.version, got)
				}
				if !errors.Is(err, ErrInvalidReference) {
					t.Errorf("error %v is not ErrInvalidReference", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveWithVersion(%q, %q): %v", tc.raw, tc.version, err)
			}
			if got != tc.want {
				t.Errorf("ResolveWithVersion(%q, %q) = %+v, want %+v", tc.raw, tc.version, got, tc.want)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	ref := SkillReference{Type: TypeOCI, Locator: "ghcr.io/skillset/file-analyzer:v1.0.0", Version: "1.0.0"}
	if got, want := ref.Canonical(), "oci:ghcr.io/skillset/file-analyzer:v1.0.0"; got != want {
		t.Errorf("Canonical = %q, want %q", got, want)
	}
}

func TestResolveNameCustomRegistry(t *testing.T) {
	tests := map[string]struct {
		name     string
		version  string
		registry string
		want     string
	}{
		"registry with namespace": {
			name: "file-analyzer", version: "1.0.0",
			registry: "registry.example.com/tools",
			want:     "registry.example.com/tools/file-analyzer:v1.0.0",
		},
		"bare host registry falls back to skillset namespace": {
			name: "file-analyzer", version: "1.0.0",
			registry: "registry.example.com",
			want:     "registry.example.com/skillset/file-analyzer:v1.0.0",
		},
		"scope overrides namespace": {
			name: "@alice/parser", version: "latest",
			registry: "registry.example.com/tools",
			want:     "registry.example.com/alice/parser:latest",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ResolveName(tc.name, tc.version, Defaults{Registry: tc.registry})
			if err != nil {
				t.Fatalf("ResolveName: %v", err)
			}
			if got.Locator != tc.want {
				t.Errorf("locator = %q, want %q", got.Locator, tc.want)
			}
		})
	}
}

func TestSplitNameVersion(t *testing.T) {
	tests := map[string]struct {
		raw         string
		wantName    string
		wantVersion string
		wantErr     bool
	}{
		"name only":              {raw: "skill", wantName: "skill", wantVersion: "latest"},
		"name with version":      {raw: "skill@1.2.3", wantName: "skill", wantVersion: "1.2.3"},
		"scoped without version": {raw: "@owner/skill", wantName: "@owner/skill", wantVersion: "latest"},
		"scoped with version":    {raw: "@owner/skill@2.0.0", wantName: "@owner/skill", wantVersion: "2.0.0"},
		"trailing at":            {raw: "skill@", wantErr: true},
		"empty":                  {raw: "", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			gotName, gotVersion, err := SplitNameVersion(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("SplitNameVersion(%q) succeeded, want error", tc.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitNameVersion(%q): %v", tc.raw, err)
			}
			if gotName != tc.wantName || gotVersion != tc.wantVersion {
				t.Errorf("SplitNameVersion(%q) = (%q, %q), want (%q, %q)",
					tc.raw, gotName, gotVersion, tc.wantName, tc.wantVersion)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := map[string]struct {
		name    string
		wantErr bool
	}{
		"simple":                 {name: "file-analyzer"},
		"underscores and digits": {name: "skill_2"},
		"scoped":                 {name: "@johndoe/web-scraper"},
		"empty":                  {name: "", wantErr: true},
		"leading hyphen":         {name: "-skill", wantErr: true},
		"spaces":                 {name: "my skill", wantErr: true},
		"scope without name":     {name: "@owner", wantErr: true},
		"scope with extra slash": {name: "@owner/a/b", wantErr: true},
		"scope with empty owner": {name: "@/skill", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := ValidateName(tc.name)
			if tc.wantErr && err == nil {
				t.Errorf("ValidateName(%q) succeeded, want error", tc.name)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("ValidateName(%q): %v", tc.name, err)
			}
		})
	}
}

func TestValidateVersion(t *testing.T) {
	for _, ok := range []string{"", "latest", "1.0.0", "v2.1.0", "1.2.3-rc.1"} {
		if err := ValidateVersion(ok); err != nil {
			t.Errorf("ValidateVersion(%q): %v", ok, err)
		}
	}
	for _, bad := range []string{"not.a.version", "abc", "1.2.3.4.5"} {
		if err := ValidateVersion(bad); err == nil {
			t.Errorf("ValidateVersion(%q) succeeded, want error", bad)
		}
	}
}
