package migrate

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/tabdeck/tabdeck/internal/schema"
)

var testRegistry = schema.ThemeRegistry{"light", "dark"}

func TestMigrateNilYieldsDefaults(t *testing.T) {
	doc := Migrate(nil, testRegistry)
	want := schema.DefaultDocument(testRegistry)
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("Migrate(nil) = %+v, want defaults", doc)
	}
}

func TestMigrateEmptyObject(t *testing.T) {
	doc := Migrate([]byte(`{}`), testRegistry)

	if doc.Version != schema.StorageVersion {
		t.Errorf("Version = %d, want %d", doc.Version, schema.StorageVersion)
	}
	if !doc.ShowIcons {
		t.Error("ShowIcons not backfilled to true")
	}
	if doc.Columns == nil || len(doc.Columns) != 0 {
		t.Errorf("Columns = %v, want empty slice", doc.Columns)
	}
	if doc.ThemeMode != "preset" || doc.SelectedPresetTheme != "dark" {
		t.Errorf("theme backfill = %q/%q, want preset/dark", doc.ThemeMode, doc.SelectedPresetTheme)
	}
}

func TestMigrateGarbageInput(t *testing.T) {
	for _, raw := range []any{"not json at all", []byte(`[1,2,3]`), 42} {
		doc := Migrate(raw, testRegistry)
		if doc == nil || doc.Version != schema.StorageVersion {
			t.Errorf("Migrate(%v) did not produce a well-formed document", raw)
		}
	}
}

func TestMigrateIdempotent(t *testing.T) {
	doc := Migrate([]byte(`{
		"version": 1,
		"theme": "nord",
		"columns": [{"id": "c1", "name": "Work", "links": [
			{"id": "l1", "url": "https://a.example", "title": "A"}
		]}]
	}`), testRegistry)

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	again := Migrate(data, testRegistry)
	if !reflect.DeepEqual(doc, again) {
		t.Errorf("second migration changed the document:\nfirst:  %+v\nsecond: %+v", doc, again)
	}
}

func TestMigrateV1FlatLinks(t *testing.T) {
	doc := Migrate([]byte(`{
		"columns": [{"id": "c1", "name": "Work", "links": [
			{"id": "l1", "url": "https://a.example", "title": "A"},
			{"id": "l2", "url": "https://b.example", "title": "B"}
		]}]
	}`), testRegistry)

	if len(doc.Columns) != 1 {
		t.Fatalf("got %d columns, want 1", len(doc.Columns))
	}
	groups := doc.Columns[0].Groups
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1 leading group", len(groups))
	}
	if groups[0].Title != "" {
		t.Errorf("leading group title = %q, want empty", groups[0].Title)
	}
	if len(groups[0].Links) != 2 {
		t.Fatalf("got %d links, want 2", len(groups[0].Links))
	}
	if groups[0].Links[0].ID != "l1" || groups[0].Links[1].ID != "l2" {
		t.Errorf("link order lost: %q, %q", groups[0].Links[0].ID, groups[0].Links[1].ID)
	}
}

func TestMigrateDividersPartitionIntoGroups(t *testing.T) {
	doc := Migrate([]byte(`{
		"version": 3,
		"columns": [{"id": "c1", "items": [
			{"kind": "link", "id": "l1", "url": "https://a.example", "title": "A"},
			{"kind": "divider", "id": "d1", "title": "Tools"},
			{"kind": "link", "id": "l2", "url": "https://b.example", "title": "B"},
			{"kind": "link", "id": "l3", "url": "https://c.example", "title": "C"},
			{"kind": "divider", "id": "d2", "title": "Misc"}
		]}]
	}`), testRegistry)

	groups := doc.Columns[0].Groups
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}

	if groups[0].Title != "" || len(groups[0].Links) != 1 {
		t.Errorf("leading group = %q with %d links, want untitled with 1", groups[0].Title, len(groups[0].Links))
	}
	if groups[1].ID != "d1" || groups[1].Title != "Tools" || len(groups[1].Links) != 2 {
		t.Errorf("divider group = %+v, want d1/Tools with 2 links", groups[1])
	}
	// A trailing divider still opens its (empty) group.
	if groups[2].ID != "d2" || len(groups[2].Links) != 0 {
		t.Errorf("trailing divider group = %+v, want d2 with 0 links", groups[2])
	}
}

func TestMigrateUntaggedItemsClassifiedByShape(t *testing.T) {
	doc := Migrate([]byte(`{
		"version": 2,
		"columns": [{"id": "c1", "items": [
			{"id": "l1", "url": "https://a.example", "title": "A"},
			{"id": "d1", "title": "Section"}
		]}]
	}`), testRegistry)

	groups := doc.Columns[0].Groups
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if len(groups[0].Links) != 1 || groups[0].Links[0].ID != "l1" {
		t.Errorf("url-bearing item not classified as link: %+v", groups[0])
	}
	if groups[1].ID != "d1" || groups[1].Title != "Section" {
		t.Errorf("url-less item not classified as divider: %+v", groups[1])
	}
}

func TestMigrateLegacyThemeLift(t *testing.T) {
	doc := Migrate([]byte(`{
		"version": 3,
		"theme": "dark",
		"darkCss": ".x{color:red}",
		"darkCssEnabled": true,
		"backgroundImage": "data:image/png;base64,AAAA",
		"columns": []
	}`), testRegistry)

	if doc.SelectedPresetTheme != "dark" {
		t.Errorf("SelectedPresetTheme = %q, want dark", doc.SelectedPresetTheme)
	}
	if doc.ThemeMode != "preset" {
		t.Errorf("ThemeMode = %q, want preset", doc.ThemeMode)
	}
	ov, ok := doc.ThemeOverrides["dark"]
	if !ok {
		t.Fatal("dark override missing after lift")
	}
	if ov.CSS != ".x{color:red}" || !ov.Enabled {
		t.Errorf("dark override = %+v, want lifted css + enabled", ov)
	}
	if doc.BackgroundDataURI == nil || *doc.BackgroundDataURI != "data:image/png;base64,AAAA" {
		t.Errorf("BackgroundDataURI = %v, want lifted data uri", doc.BackgroundDataURI)
	}
}

func TestMigrateNonDataBackgroundImageDropped(t *testing.T) {
	doc := Migrate([]byte(`{
		"version": 3,
		"backgroundImage": "https://cdn.example/bg.png",
		"columns": []
	}`), testRegistry)

	if doc.BackgroundDataURI != nil {
		t.Errorf("remote backgroundImage should be dropped, got %q", *doc.BackgroundDataURI)
	}
}

func TestMigrateRenamesBackgroundColor(t *testing.T) {
	doc := Migrate([]byte(`{
		"version": 2,
		"backgroundColor": "#abcdef",
		"columns": []
	}`), testRegistry)

	if doc.PageBackgroundColor != "#abcdef" {
		t.Errorf("PageBackgroundColor = %q, want #abcdef", doc.PageBackgroundColor)
	}
}

func TestMigratePreservesDefinedValues(t *testing.T) {
	doc := Migrate([]byte(`{
		"version": 4,
		"showIcons": false,
		"pageBackgroundColor": "#000000",
		"columns": []
	}`), testRegistry)

	if doc.ShowIcons {
		t.Error("backfill overwrote explicit showIcons=false")
	}
	if doc.PageBackgroundColor != "#000000" {
		t.Errorf("backfill overwrote pageBackgroundColor: %q", doc.PageBackgroundColor)
	}
}

func TestMigrateDoesNotMutateInput(t *testing.T) {
	in := map[string]any{
		"version": 1,
		"columns": []any{map[string]any{"id": "c1", "links": []any{}}},
	}
	Migrate(in, testRegistry)

	col := in["columns"].([]any)[0].(map[string]any)
	if _, ok := col["links"]; !ok {
		t.Error("caller's map was mutated by migration")
	}
}
