package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func TestManager_Render(t *testing.T) {
	fsys := fstest.MapFS{
		"common/macros.tmpl": {Data: []byte(`{{define "hello"}}Hello {{.Name}}{{end}}`)},
		"it/script.tmpl":     {Data: []byte(`{{template "hello" .}}! Come stai?`)},
		"it/readme.txt":      {Data: []byte(`ignored`)},
		"en/script.tmpl":     {Data: []byte("  {{template \"hello\" .}}! How are you?\n")},
	}

	m, err := NewManager(fsys)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	data := struct{ Name string }{Name: "World"}
	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"italian", "it/script.tmpl", "Hello World! Come stai?"},
		{"english trimmed", "en/script.tmpl", "Hello World! How are you?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := m.Render(tt.template, data)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if out != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, out)
			}
		})
	}

	if m.Has("it/readme.txt") {
		t.Error("non-template files must not be loaded")
	}
	if _, err := m.Render("missing.tmpl", data); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestManager_NoCommonDir(t *testing.T) {
	m, err := NewManager(fstest.MapFS{"a.tmpl": {Data: []byte("x")}})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if !m.Has("a.tmpl") {
		t.Error("a.tmpl not loaded")
	}
}

func TestManager_ParseError(t *testing.T) {
	_, err := NewManager(fstest.MapFS{"bad.tmpl": {Data: []byte("{{.Unclosed")}})
	if err == nil || !strings.Contains(err.Error(), "bad.tmpl") {
		t.Errorf("expected parse error naming the file, got %v", err)
	}
}

func TestNewDirManager(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "en"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "en", "p.tmpl"), []byte("Bio: {{.Biography}}"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := NewDirManager(dir)
	if err != nil {
		t.Fatalf("NewDirManager failed: %v", err)
	}
	out, err := m.Render("en/p.tmpl", map[string]string{"Biography": "Ada"})
	if err != nil || out != "Bio: Ada" {
		t.Errorf("Render = %q, %v", out, err)
	}

	if _, err := NewDirManager(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

// TestProductionTemplates verifies that the embedded templates parse and render.
func TestProductionTemplates(t *testing.T) {
	m, err := Default()
	if err != nil {
		t.Fatalf("Failed to load embedded templates: %v", err)
	}

	data := struct{ Biography, Seed string }{Biography: "Leonardo nasce nel 1452.", Seed: `{"timeline": []}`}
	for _, loc := range []string{"it", "en"} {
		for _, name := range []string{"standalone", "enrichment", "system_standalone", "system_enrichment"} {
			tmpl := loc + "/" + name + ".tmpl"
			out, err := m.Render(tmpl, data)
			if err != nil {
				t.Fatalf("Render(%s) failed: %v", tmpl, err)
			}
			if out == "" {
				t.Errorf("Render(%s) is empty", tmpl)
			}
			if !strings.HasPrefix(name, "system") {
				for _, key := range []string{"dataNascita", "dataMorte", "professione", "luoghiPrincipali", "personaggiPrincipali", `"event"`} {
					if !strings.Contains(out, key) {
						t.Errorf("%s missing wire key %s", tmpl, key)
					}
				}
				if !strings.Contains(out, "Leonardo nasce nel 1452.") {
					t.Errorf("%s does not embed the biography", tmpl)
				}
			}
		}
	}
}
