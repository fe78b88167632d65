package docgen

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scrollab/askdocs/internal/log"
)

// mockModel returns canned documentation derived from the prompt.
type mockModel struct {
	failOn string
	calls  int
}

func (m *mockModel) Generate(_ context.Context, prompt string, onToken func(string) error) error {
	m.calls++
	if m.failOn != "" && strings.Contains(prompt, m.failOn) {
		return errors.New("model refused")
	}
	for _, tok := range []string{"# Docs\n\n", "Generated documentation."} {
		if err := onToken(tok); err != nil {
			return err
		}
	}
	return nil
}

func writeSource(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("fn main() {}"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRun_GeneratesDocsAndManifest(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeSource(t, src, "account.cairo")
	writeSource(t, src, "fees.cairo")
	writeSource(t, src, "notes.txt")

	g, err := New(&mockModel{}, Options{Extension: ".cairo", OutputDir: out}, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	result, err := g.Run(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}

	if result.Generated != 2 {
		t.Errorf("generated = %d, want 2", result.Generated)
	}

	for _, name := range []string{"account.md", "fees.md"} {
		data, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if !strings.Contains(string(data), "Generated documentation.") {
			t.Errorf("%s content = %q", name, data)
		}
	}

	manifestData, err := os.ReadFile(filepath.Join(out, "output.json"))
	if err != nil {
		t.Fatal(err)
	}
	var manifest []ManifestEntry
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		t.Fatalf("manifest not valid JSON: %v", err)
	}
	if len(manifest) != 2 {
		t.Fatalf("manifest entries = %d, want 2", len(manifest))
	}
	names := map[string]bool{}
	for _, e := range manifest {
		names[e.Metadata.Name] = true
		if e.PageContent == "" {
			t.Error("manifest entry with empty content")
		}
	}
	if !names["account"] || !names["fees"] {
		t.Errorf("manifest names = %v", names)
	}
}

func TestRun_FailedFileContained(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeSource(t, src, "good.cairo")
	writeSource(t, src, "bad.cairo")

	g, err := New(&mockModel{failOn: "bad.cairo"}, Options{Extension: ".cairo", OutputDir: out}, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	result, err := g.Run(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}

	if result.Generated != 1 {
		t.Errorf("generated = %d, want 1", result.Generated)
	}
	if len(result.Failed) != 1 {
		t.Errorf("failed = %v", result.Failed)
	}

	var manifest []ManifestEntry
	data, _ := os.ReadFile(filepath.Join(out, "output.json"))
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatal(err)
	}
	if len(manifest) != 1 || manifest[0].Metadata.Name != "good" {
		t.Errorf("manifest = %+v", manifest)
	}
}

func TestRun_MissingRootIsFatal(t *testing.T) {
	g, err := New(&mockModel{}, Options{Extension: ".cairo", OutputDir: t.TempDir()}, log.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Run(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(&mockModel{}, Options{OutputDir: "docs"}, log.NewNop()); err == nil {
		t.Error("expected error for empty extension")
	}
	if _, err := New(&mockModel{}, Options{Extension: ".cairo"}, log.NewNop()); err == nil {
		t.Error("expected error for empty output dir")
	}
}
