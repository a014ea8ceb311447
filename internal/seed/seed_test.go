package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tabdeck/tabdeck/internal/schema"
)

const sampleSeed = `
columns:
  - name: Work
    classes: wide
    groups:
      - title: Tools
        links:
          - title: GitHub
            url: https://github.com
            icon: https://www.google.com/s2/favicons?domain=github.com
          - title: Broken
            url: ""
  - name: Home
    groups: []
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	f, err := NewLoader(writeSeed(t, sampleSeed)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(f.Columns) != 2 {
		t.Fatalf("got %d columns, want 2", len(f.Columns))
	}
	if f.Columns[0].Name != "Work" || f.Columns[0].Classes != "wide" {
		t.Errorf("first column = %+v", f.Columns[0])
	}
	if len(f.Columns[0].Groups[0].Links) != 2 {
		t.Errorf("got %d links, want 2", len(f.Columns[0].Groups[0].Links))
	}
}

func TestLoaderMissingFile(t *testing.T) {
	if _, err := NewLoader("/nonexistent/seed.yaml").Load(); err == nil {
		t.Error("Load() on a missing file should return error")
	}
}

func TestLoaderMalformedYAML(t *testing.T) {
	if _, err := NewLoader(writeSeed(t, "columns: [unclosed")).Load(); err == nil {
		t.Error("Load() on malformed yaml should return error")
	}
}

func TestMapperMap(t *testing.T) {
	f, err := NewLoader(writeSeed(t, sampleSeed)).Load()
	if err != nil {
		t.Fatal(err)
	}

	doc, err := NewMapper(schema.DefaultThemeRegistry).Map(f)
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}

	if doc.Version != schema.StorageVersion {
		t.Errorf("Version = %d, want %d", doc.Version, schema.StorageVersion)
	}
	if len(doc.Columns) != 2 {
		t.Fatalf("got %d columns, want 2", len(doc.Columns))
	}

	work := doc.Columns[0]
	if work.Name != "Work" || work.CustomClasses != "wide" {
		t.Errorf("work column = %+v", work)
	}
	if schema.IsTempID(work.ID) {
		t.Error("seeded column carries a temporary id")
	}

	links := work.Groups[0].Links
	// The empty-url link is skipped.
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1 (empty url skipped)", len(links))
	}
	if links[0].Title != "GitHub" {
		t.Errorf("link title = %q, want GitHub", links[0].Title)
	}
	if links[0].IconURLOverride == nil {
		t.Error("seed icon not mapped to IconURLOverride")
	}
}

func TestMapperEmptySeed(t *testing.T) {
	doc, err := NewMapper(schema.DefaultThemeRegistry).Map(&File{})
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	if len(doc.Columns) != 0 {
		t.Errorf("empty seed produced %d columns", len(doc.Columns))
	}
}
