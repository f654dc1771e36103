package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/luastow/chunk"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[app]
name = "hello"
script = "src/main.lua"
encoding = "keystream"
output = "bin/hello"

[stub]
path = "/opt/luastow/bin/luastow"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.App.Name != "hello" {
		t.Errorf("app name = %q, want hello", m.App.Name)
	}
	if m.App.Script != "src/main.lua" {
		t.Errorf("app script = %q, want src/main.lua", m.App.Script)
	}
	if enc, err := m.Encoding(); err != nil || enc != chunk.Keystream {
		t.Errorf("encoding = (%s, %v), want keystream", enc, err)
	}
	if m.ScriptPath() != filepath.Join(m.Dir, "src", "main.lua") {
		t.Errorf("script path = %q", m.ScriptPath())
	}
	if m.OutputPath() != filepath.Join(m.Dir, "bin", "hello") {
		t.Errorf("output path = %q", m.OutputPath())
	}
	if m.StubPath() != "/opt/luastow/bin/luastow" {
		t.Errorf("stub path = %q, want /opt/luastow/bin/luastow", m.StubPath())
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[app]
script = "tool.lua"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.App.Name != "tool" {
		t.Errorf("default name = %q, want tool", m.App.Name)
	}
	if m.App.Output != "tool" {
		t.Errorf("default output = %q, want tool", m.App.Output)
	}
	if enc, _ := m.Encoding(); enc != chunk.RunningSum {
		t.Errorf("default encoding = %s, want running-sum", enc)
	}
	if m.StubPath() != "" {
		t.Errorf("default stub path = %q, want empty", m.StubPath())
	}
}

func TestLoadManifestErrors(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[app]\nname = \"x\"\n")
	if _, err := Load(dir); !errors.Is(err, ErrNoScript) {
		t.Errorf("missing script error = %v, want ErrNoScript", err)
	}

	writeManifest(t, dir, "[app]\nscript = \"a.lua\"\nencoding = \"zip\"\n")
	if _, err := Load(dir); !errors.Is(err, chunk.ErrUnsupportedEncoding) {
		t.Errorf("bad encoding error = %v, want ErrUnsupportedEncoding", err)
	}

	writeManifest(t, dir, "[app\n")
	if _, err := Load(dir); err == nil {
		t.Error("Load accepted malformed TOML")
	}

	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load succeeded without a manifest")
	}
}

func TestFindAndLoad(t *testing.T) {
	// Create nested directory structure
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, "[app]\nname = \"found\"\nscript = \"main.lua\"\n")

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.App.Name != "found" {
		t.Errorf("app name = %q, want found", m.App.Name)
	}
	if m.ScriptPath() != filepath.Join(m.Dir, "main.lua") {
		t.Errorf("script path = %q, want it relative to the manifest", m.ScriptPath())
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no stow.toml exists")
	}
}
