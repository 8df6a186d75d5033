package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillset/skillset/pkg/resolver"
)

func TestLocalSourceFetch(t *testing.T) {
	existingDir := filepath.Join(t.TempDir(), "my-skill")
	if err := os.MkdirAll(existingDir, 0o755); err != nil {
		t.Fatal(err)
	}

	tests := map[string]struct {
		path    string
		wantErr bool
	}{
		"valid directory": {
			path: existingDir,
		},
		"nonexistent path": {
			path:    filepath.Join(t.TempDir(), "does-not-exist"),
			wantErr: true,
		},
		"file not directory": {
			path: func() string {
				f := filepath.Join(t.TempDir(), "afile")
				os.WriteFile(f, []byte("hi"), 0o644)
				return f
			}(),
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			src := NewLocalSource()
			ref := resolver.SkillReference{Type: resolver.TypeLocal, Locator: tc.path, Version: "local"}

			result, err := src.Fetch(context.Background(), ref)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Fetch() error = %v, wantErr = %v", err, tc.wantErr)
			}
			if tc.wantErr {
				if !errors.Is(err, ErrFetchFailed) {
					t.Errorf("error %v is not ErrFetchFailed", err)
				}
				return
			}

			if !filepath.IsAbs(result.Path) {
				t.Errorf("Path = %q, want absolute path", result.Path)
			}
			if result.Name != "my-skill" {
				t.Errorf("Name = %q, want %q", result.Name, "my-skill")
			}
			if result.Version != "local" {
				t.Errorf("Version = %q, want %q", result.Version, "local")
			}
			if result.Metadata != nil {
				t.Errorf("Metadata = %+v, want nil for local source", result.Metadata)
			}
		})
	}
}

func TestLocalSourceGetMetadata(t *testing.T) {
	src := NewLocalSource()
	_, err := src.GetMetadata(context.Background(), resolver.SkillReference{Type: resolver.TypeLocal, Locator: "./x"})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("error %v is not ErrUnsupported", err)
	}
}
