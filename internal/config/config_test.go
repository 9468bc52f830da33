package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsArePopulated(t *testing.T) {
	cfg := Defaults()

	if cfg.ProfileRoot == "" {
		t.Error("ProfileRoot should not be empty")
	}
	if cfg.MarkerRelPath == "" {
		t.Error("MarkerRelPath should not be empty")
	}
	if cfg.UpdaterRelPath != "Update.exe" {
		t.Errorf("UpdaterRelPath = %q, want Update.exe", cfg.UpdaterRelPath)
	}
	if len(cfg.UninstallArgs) != 2 {
		t.Errorf("UninstallArgs = %v, want [--uninstall -s]", cfg.UninstallArgs)
	}
	if len(cfg.ProcessNames) == 0 {
		t.Error("ProcessNames should not be empty")
	}
	if len(cfg.CleanupGlobs) == 0 {
		t.Error("CleanupGlobs should not be empty")
	}
	if cfg.PromptTimeout.Std() != 120*time.Second {
		t.Errorf("PromptTimeout = %s, want 120s", cfg.PromptTimeout.Std())
	}
	if cfg.LogDir == "" {
		t.Error("LogDir should not be empty")
	}
}

func TestDefaultProductCodes(t *testing.T) {
	cfg := Defaults()

	if cfg.ProductCodes.X86 != "{39AF0813-FA7B-4860-ADBE-93B9B214B914}" {
		t.Errorf("X86 product code = %q", cfg.ProductCodes.X86)
	}
	if cfg.ProductCodes.X64 != "{731F6BAA-A986-45A4-8936-7C3AAAAA760B}" {
		t.Errorf("X64 product code = %q", cfg.ProductCodes.X64)
	}
}

func TestDefaultExcludedProfiles(t *testing.T) {
	cfg := Defaults()

	want := map[string]bool{"Public": true, "Default": true, "Default User": true, "All Users": true}
	if len(cfg.ExcludedProfiles) != len(want) {
		t.Fatalf("ExcludedProfiles = %v", cfg.ExcludedProfiles)
	}
	for _, name := range cfg.ExcludedProfiles {
		if !want[name] {
			t.Errorf("unexpected excluded profile %q", name)
		}
	}
}

func TestLoadManifestOverridesOnlyPresentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	manifest := `
profile_root: D:\Profiles
prompt_timeout: 30s
product_codes:
  x64: "{AAAAAAAA-0000-0000-0000-000000000000}"
`
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}

	cfg, err := LoadManifest(path, Defaults())
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}

	if cfg.ProfileRoot != `D:\Profiles` {
		t.Errorf("ProfileRoot = %q, want the manifest value", cfg.ProfileRoot)
	}
	if cfg.PromptTimeout.Std() != 30*time.Second {
		t.Errorf("PromptTimeout = %s, want 30s", cfg.PromptTimeout.Std())
	}
	if cfg.ProductCodes.X64 != "{AAAAAAAA-0000-0000-0000-000000000000}" {
		t.Errorf("X64 product code = %q, want the manifest value", cfg.ProductCodes.X64)
	}
	// Fields absent from the manifest keep their defaults.
	if cfg.UpdaterRelPath != "Update.exe" {
		t.Errorf("UpdaterRelPath = %q, want the default", cfg.UpdaterRelPath)
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml"), Defaults())
	if !errors.Is(err, ErrManifestNotFound) {
		t.Errorf("error = %v, want ErrManifestNotFound", err)
	}
}

func TestLoadManifestRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	if err := os.WriteFile(path, []byte("profile_root: [unterminated"), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}

	_, err := LoadManifest(path, Defaults())
	if !errors.Is(err, ErrInvalidManifest) {
		t.Errorf("error = %v, want ErrInvalidManifest", err)
	}
}

func TestLoadManifestRejectsEmptyProfileRoot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	if err := os.WriteFile(path, []byte(`profile_root: ""`), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}

	_, err := LoadManifest(path, Defaults())
	if !errors.Is(err, ErrInvalidManifest) {
		t.Errorf("error = %v, want ErrInvalidManifest", err)
	}
}
