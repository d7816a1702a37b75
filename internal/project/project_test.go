package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeProjectToml(t *testing.T, root, body string) {
	t.Helper()
	dir := filepath.Join(root, ".hemtt")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "project.toml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAppliesMainPrefixDefault(t *testing.T) {
	root := t.TempDir()
	writeProjectToml(t, root, `
name = "Example Mod"
prefix = "example"
version = "1.0.0"
`)
	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MainPrefix != "example" {
		t.Errorf("expected mainprefix to default to prefix, got %q", cfg.MainPrefix)
	}
	if cfg.Signing.Version != 3 {
		t.Errorf("expected signing version to default to 3, got %d", cfg.Signing.Version)
	}
}

func TestLoadRejectsMissingName(t *testing.T) {
	root := t.TempDir()
	writeProjectToml(t, root, `prefix = "example"`)
	if _, err := Load(root); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestLoadRejectsInvalidSigningVersion(t *testing.T) {
	root := t.TempDir()
	writeProjectToml(t, root, `
name = "Example Mod"
prefix = "example"

[signing]
version = 5
`)
	if _, err := Load(root); err == nil {
		t.Fatal("expected error for invalid signing version")
	}
}

func TestLoadRejectsEmptyPrefixWithLaunchTable(t *testing.T) {
	root := t.TempDir()
	writeProjectToml(t, root, `
name = "Example Mod"
prefix = ""

[hemtt.launch.default]
mods = ["@CBA_A3"]
`)
	if _, err := Load(root); err == nil {
		t.Fatal("expected error for missing prefix")
	}
}

func TestLintOverridesMergesOptionsOverDefault(t *testing.T) {
	table := map[string]LintOverride{
		"C11": {Options: map[string]any{"allow_no_extension": true}},
	}
	out, errs := LintOverrides(table, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	cfg, ok := out["C11"]
	if !ok {
		t.Fatal("expected C11 entry")
	}
	if cfg.Options["allow_no_extension"] != true {
		t.Errorf("expected allow_no_extension option to carry through")
	}
}
