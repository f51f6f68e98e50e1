package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.NamePreviewChars != 24 {
		t.Errorf("NamePreviewChars = %d, want 24", cfg.NamePreviewChars)
	}
	if cfg.IncludeProperties || cfg.AllowUnsafePaths {
		t.Error("boolean options should default to false")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	data := `{"name_preview_chars": 40, "include_properties": true, "allowed_paths": ["/exports"]}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(data), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.NamePreviewChars != 40 {
		t.Errorf("NamePreviewChars = %d, want 40", cfg.NamePreviewChars)
	}
	if !cfg.IncludeProperties {
		t.Error("IncludeProperties should be true")
	}
	if len(cfg.AllowedPaths) != 1 || cfg.AllowedPaths[0] != "/exports" {
		t.Errorf("AllowedPaths = %v", cfg.AllowedPaths)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{broken"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("invalid JSON should fail")
	}
}

func TestMerge(t *testing.T) {
	base := &Config{
		NamePreviewChars: 24,
		AllowedPaths:     []string{"/a", "/b"},
		DisabledTools:    []string{"x"},
	}
	overlay := &Config{
		NamePreviewChars: 40,
		SelectInBlocks:   true,
		AllowedPaths:     []string{"/b", "/c"},
	}

	got := Merge(base, overlay)
	if got.NamePreviewChars != 40 {
		t.Errorf("NamePreviewChars = %d, want overlay 40", got.NamePreviewChars)
	}
	if !got.SelectInBlocks {
		t.Error("SelectInBlocks should carry from overlay")
	}
	if len(got.AllowedPaths) != 3 {
		t.Errorf("AllowedPaths = %v, want merged and deduplicated", got.AllowedPaths)
	}
	if len(got.DisabledTools) != 1 {
		t.Errorf("DisabledTools = %v", got.DisabledTools)
	}
}

func TestMerge_ZeroOverlayKeepsBase(t *testing.T) {
	base := &Config{NamePreviewChars: 24, DBMaxOpenConns: 1}
	got := Merge(base, &Config{})
	if got.NamePreviewChars != 24 || got.DBMaxOpenConns != 1 {
		t.Errorf("zero overlay should keep base scalars: %+v", got)
	}
}

func TestFindRepoConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(filepath.Join(root, ".cadsel"), 0700); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.MkdirAll(nested, 0700); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	configPath := filepath.Join(root, ".cadsel", "config.json")
	if err := os.WriteFile(configPath, []byte("{}"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if got := FindRepoConfig(nested); got != configPath {
		t.Errorf("FindRepoConfig = %q, want %q", got, configPath)
	}
	if got := FindRepoConfig(t.TempDir()); got != "" {
		t.Errorf("FindRepoConfig in clean dir = %q, want empty", got)
	}
}
