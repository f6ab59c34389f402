// SPDX-License-Identifier: MPL-2.0

package answers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bundlectl/internal/issue"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStore_Resolve_NoFile(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), "", nil)
	doc, err := store.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := doc.GlobalString(NamespaceKey); got != DefaultNamespace {
		t.Errorf("namespace = %q, want default", got)
	}
	if store.ResolvedFile() != "" {
		t.Errorf("ResolvedFile() = %q, want empty", store.ResolvedFile())
	}
}

func TestStore_Resolve_ProbesAppPath(t *testing.T) {
	t.Parallel()

	appPath := t.TempDir()
	writeFile(t, filepath.Join(appPath, File), "[general]\nnamespace = \"embedded\"\n")

	store := NewStore(appPath, "", nil)
	doc, err := store.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := doc.GlobalString(NamespaceKey); got != "embedded" {
		t.Errorf("namespace = %q, want embedded", got)
	}
	if store.ResolvedFile() != filepath.Join(appPath, File) {
		t.Errorf("ResolvedFile() = %q", store.ResolvedFile())
	}
}

func TestStore_Resolve_FileReplacesDefaults(t *testing.T) {
	t.Parallel()

	appPath := t.TempDir()
	// File without a namespace: the default namespace must NOT survive,
	// because a loaded file replaces the defaults entirely.
	writeFile(t, filepath.Join(appPath, File), "[general]\nprovider = \"docker\"\n")

	store := NewStore(appPath, "", nil)
	doc, err := store.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := doc.GlobalString(NamespaceKey); got != "" {
		t.Errorf("namespace = %q, want empty (file replaces defaults)", got)
	}
	if got := doc.GlobalString(ProviderKey); got != "docker" {
		t.Errorf("provider = %q, want docker", got)
	}
}

func TestStore_Resolve_CLIOverridesWin(t *testing.T) {
	t.Parallel()

	appPath := t.TempDir()
	writeFile(t, filepath.Join(appPath, File), "[general]\nnamespace = \"from-file\"\n")

	store := NewStore(appPath, "", map[string]string{NamespaceKey: "from-cli"})
	doc, err := store.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := doc.GlobalString(NamespaceKey); got != "from-cli" {
		t.Errorf("namespace = %q, want from-cli", got)
	}
}

func TestStore_Resolve_ReInvokedAfterUnpack(t *testing.T) {
	t.Parallel()

	appPath := t.TempDir()
	store := NewStore(appPath, "", nil)

	// First pass: nothing there yet.
	if _, err := store.Resolve(); err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	if store.ResolvedFile() != "" {
		t.Fatal("unexpectedly resolved a file before unpack")
	}

	// Simulate unpack dropping an embedded answers file into the app path.
	writeFile(t, filepath.Join(appPath, File), "[general]\nnamespace = \"embedded\"\n")

	doc, err := store.Resolve()
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if got := doc.GlobalString(NamespaceKey); got != "embedded" {
		t.Errorf("post-unpack namespace = %q, want embedded", got)
	}
}

func TestStore_SetExplicitFile(t *testing.T) {
	t.Parallel()

	appPath := t.TempDir()
	runtime := filepath.Join(appPath, RuntimeFile)
	writeFile(t, runtime, "[general]\nnamespace = \"ran\"\nprovider = \"kubernetes\"\n")
	// A regular answers file also exists but must be ignored once the
	// runtime file is forced.
	writeFile(t, filepath.Join(appPath, File), "[general]\nnamespace = \"stale\"\n")

	store := NewStore(appPath, "", nil)
	store.SetExplicitFile(runtime)

	doc, err := store.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := doc.GlobalString(NamespaceKey); got != "ran" {
		t.Errorf("namespace = %q, want ran", got)
	}
	if got := doc.GlobalString(ProviderKey); got != "kubernetes" {
		t.Errorf("provider = %q, want kubernetes", got)
	}
}

func TestLoad_FormatsByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "a.toml", "[general]\nnamespace = \"x\"\n"},
		{"yaml", "a.yaml", "general:\n  namespace: x\n"},
		{"json", "a.json", "{\"general\": {\"namespace\": \"x\"}}\n"},
		{"conf sniffed as toml", "answers.conf", "[general]\nnamespace = \"x\"\n"},
		{"gen sniffed as json", "answers.conf.gen", "{\"general\": {\"namespace\": \"x\"}}\n"},
		{"gen sniffed as yaml", "other.conf.gen", "general:\n  namespace: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			writeFile(t, path, tt.content)
			doc, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := doc.GlobalString(NamespaceKey); got != "x" {
				t.Errorf("namespace = %q, want x", got)
			}
		})
	}
}

func TestLoadWithFormat_HintDecidesSniffing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	yamlContent := "general:\n  namespace: hinted\n"

	t.Run("hint selects the parser", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(dir, "answers.conf")
		writeFile(t, path, yamlContent)
		doc, err := LoadWithFormat(path, FormatYAML)
		if err != nil {
			t.Fatalf("LoadWithFormat() error = %v", err)
		}
		if got := doc.GlobalString(NamespaceKey); got != "hinted" {
			t.Errorf("namespace = %q, want hinted", got)
		}
	})

	t.Run("hint is authoritative", func(t *testing.T) {
		t.Parallel()

		// YAML content with a TOML hint: no silent fallback to other formats.
		path := filepath.Join(dir, "answers2.conf")
		writeFile(t, path, yamlContent)
		_, err := LoadWithFormat(path, FormatTOML)
		if err == nil {
			t.Fatal("LoadWithFormat() expected error for content not in the hinted format")
		}
		if !errors.Is(err, issue.ErrConfiguration) {
			t.Errorf("error is not a configuration error: %v", err)
		}
	})

	t.Run("extension beats the hint", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(dir, "answers.yaml")
		writeFile(t, path, yamlContent)
		doc, err := LoadWithFormat(path, FormatTOML)
		if err != nil {
			t.Fatalf("LoadWithFormat() error = %v", err)
		}
		if got := doc.GlobalString(NamespaceKey); got != "hinted" {
			t.Errorf("namespace = %q, want hinted", got)
		}
	})
}

func TestStore_Resolve_HonorsFormatHint(t *testing.T) {
	t.Parallel()

	appPath := t.TempDir()
	writeFile(t, filepath.Join(appPath, File), "general:\n  namespace: yaml-ns\n")

	store := NewStore(appPath, "", nil)
	store.SetFormatHint(FormatYAML)

	doc, err := store.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := doc.GlobalString(NamespaceKey); got != "yaml-ns" {
		t.Errorf("namespace = %q, want yaml-ns", got)
	}
}

func TestLoad_Malformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "answers.conf")
	writeFile(t, path, "[general\nnamespace ::= {{{")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for malformed file")
	}
	if !errors.Is(err, issue.ErrConfiguration) {
		t.Errorf("error is not a configuration error: %v", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.conf"))
	if !errors.Is(err, issue.ErrConfiguration) {
		t.Errorf("missing file error is not a configuration error: %v", err)
	}
}

func TestLoad_TopLevelScalarsGoGlobal(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.toml")
	writeFile(t, path, "namespace = \"top\"\n\n[web]\nport = \"80\"\n")

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := doc.GlobalString(NamespaceKey); got != "top" {
		t.Errorf("top-level scalar not folded into global: %q", got)
	}
	if doc["web"]["port"] != "80" {
		t.Errorf("section value lost: %+v", doc["web"])
	}
}
