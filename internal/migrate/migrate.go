// Package migrate brings an arbitrary stored document shape up to the
// current schema. Migration is total: whatever comes in, a well-formed
// document comes out, with missing fields backfilled from the defaults.
package migrate

import (
	"encoding/json"
	"strings"

	"github.com/tabdeck/tabdeck/internal/schema"
)

// oldestVersion is assumed when a stored document carries no version tag.
const oldestVersion = 1

// Migrate returns a document conforming to the current schema. It accepts
// raw JSON bytes, a decoded map, or an already-typed document. Calling it on
// an already-current document is a no-op; a nil or unparsable input yields
// the defaults.
func Migrate(raw any, reg schema.ThemeRegistry) *schema.Document {
	m := toMap(raw)
	if m == nil {
		return schema.DefaultDocument(reg)
	}

	version := intField(m, "version", oldestVersion)
	if version < 2 {
		linksToItems(m)
	}
	if version < 3 {
		renameBackgroundColor(m)
		tagItems(m)
	}
	if version < 4 {
		itemsToGroups(m)
		liftLegacyAppearance(m, reg)
	}
	ensureGroups(m)
	backfill(m, reg)
	m["version"] = schema.StorageVersion

	return decode(m, reg)
}

// toMap normalizes the input into a fresh map so the caller's value is
// never mutated.
func toMap(raw any) map[string]any {
	if raw == nil {
		return nil
	}
	var data []byte
	switch v := raw.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	case string:
		data = []byte(v)
	default:
		var err error
		data, err = json.Marshal(v)
		if err != nil {
			return nil
		}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}

// linksToItems wraps the v1 flat per-column links array into tagged items.
func linksToItems(m map[string]any) {
	for _, col := range columns(m) {
		links, ok := col["links"].([]any)
		if !ok {
			continue
		}
		items := make([]any, 0, len(links))
		for _, raw := range links {
			link, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			link["kind"] = string(schema.ItemKindLink)
			items = append(items, link)
		}
		col["items"] = items
		delete(col, "links")
	}
}

// renameBackgroundColor moves the v2 "backgroundColor" field to its current
// name. A value already present under the new name wins.
func renameBackgroundColor(m map[string]any) {
	if v, ok := m["backgroundColor"]; ok {
		if _, has := m["pageBackgroundColor"]; !has {
			m["pageBackgroundColor"] = v
		}
		delete(m, "backgroundColor")
	}
}

// tagItems gives every v2 item an explicit kind. Items that predate the
// discriminator are classified by shape: anything with a url is a link,
// the rest are dividers.
func tagItems(m map[string]any) {
	for _, col := range columns(m) {
		items, ok := col["items"].([]any)
		if !ok {
			continue
		}
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if _, has := item["kind"]; has {
				continue
			}
			if _, hasURL := item["url"]; hasURL {
				item["kind"] = string(schema.ItemKindLink)
			} else {
				item["kind"] = string(schema.ItemKindDivider)
			}
		}
	}
}

// itemsToGroups converts the flat tagged item list into the grouped
// hierarchy. Dividers partition the list: each divider opens a new group
// carrying the divider's id and title, links before the first divider land
// in an untitled leading group.
func itemsToGroups(m map[string]any) {
	for _, col := range columns(m) {
		items, _ := col["items"].([]any)
		groups := make([]any, 0, 4)

		current := map[string]any{
			"id":    schema.PermanentID(),
			"title": "",
			"links": []any{},
		}
		opened := false

		flush := func() {
			if !opened && len(current["links"].([]any)) == 0 {
				return
			}
			groups = append(groups, current)
		}

		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			switch item["kind"] {
			case string(schema.ItemKindDivider):
				flush()
				current = map[string]any{
					"id":    item["id"],
					"title": item["title"],
					"links": []any{},
				}
				if cc, ok := item["customClasses"]; ok {
					current["customClasses"] = cc
				}
				opened = true
			case string(schema.ItemKindLink):
				delete(item, "kind")
				current["links"] = append(current["links"].([]any), item)
			}
		}
		flush()

		col["groups"] = groups
		delete(col, "items")
	}
}

// liftLegacyAppearance folds pre-v4 theme fields into their current homes:
// the flat "theme" selector, the flattened "<key>Css"/"<key>CssEnabled"
// override pairs, and an inlined data-URI backgroundImage.
func liftLegacyAppearance(m map[string]any, reg schema.ThemeRegistry) {
	if theme, ok := m["theme"].(string); ok {
		if _, has := m["selectedPresetTheme"]; !has {
			m["selectedPresetTheme"] = theme
		}
		if _, has := m["themeMode"]; !has {
			m["themeMode"] = "preset"
		}
		delete(m, "theme")
	}

	if bg, ok := m["backgroundImage"].(string); ok {
		if strings.HasPrefix(bg, "data:") {
			if _, has := m["backgroundDataUri"]; !has {
				m["backgroundDataUri"] = bg
			}
		}
		delete(m, "backgroundImage")
	}

	overrides, _ := m["themeOverrides"].(map[string]any)
	if overrides == nil {
		overrides = map[string]any{}
	}
	for _, key := range reg.Keys() {
		css, hasCSS := m[key+"Css"]
		enabled, hasEnabled := m[key+"CssEnabled"]
		if !hasCSS && !hasEnabled {
			continue
		}
		entry := map[string]any{"css": "", "enabled": false}
		if hasCSS {
			entry["css"] = css
			delete(m, key+"Css")
		}
		if hasEnabled {
			entry["enabled"] = enabled
			delete(m, key+"CssEnabled")
		}
		if _, exists := overrides[key]; !exists {
			overrides[key] = entry
		}
	}
	m["themeOverrides"] = overrides
}

// ensureGroups guarantees every column carries a groups array. A column
// with neither links, items nor groups gets an empty collection.
func ensureGroups(m map[string]any) {
	for _, col := range columns(m) {
		if _, ok := col["groups"].([]any); !ok {
			col["groups"] = []any{}
		}
	}
}

// backfill fills every absent (or null) top-level field with its default.
// Shallow and additive only: a defined value is never overwritten.
func backfill(m map[string]any, reg schema.ThemeRegistry) {
	defaults := toMap(schema.DefaultDocument(reg))
	for k, v := range defaults {
		if cur, ok := m[k]; !ok || cur == nil {
			m[k] = v
		}
	}
}

func decode(m map[string]any, reg schema.ThemeRegistry) *schema.Document {
	data, err := json.Marshal(m)
	if err != nil {
		return schema.DefaultDocument(reg)
	}
	var doc schema.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return schema.DefaultDocument(reg)
	}

	doc.ThemeOverrides = schema.ThemeOverrideFields(reg, doc.ThemeOverrides)
	if doc.Columns == nil {
		doc.Columns = []schema.Column{}
	}
	for i := range doc.Columns {
		if doc.Columns[i].Groups == nil {
			doc.Columns[i].Groups = []schema.Group{}
		}
		for j := range doc.Columns[i].Groups {
			if doc.Columns[i].Groups[j].Links == nil {
				doc.Columns[i].Groups[j].Links = []schema.Link{}
			}
		}
	}
	return &doc
}

func columns(m map[string]any) []map[string]any {
	raw, ok := m["columns"].([]any)
	if !ok {
		return nil
	}
	cols := make([]map[string]any, 0, len(raw))
	for _, c := range raw {
		if col, ok := c.(map[string]any); ok {
			cols = append(cols, col)
		}
	}
	return cols
}

func intField(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}
