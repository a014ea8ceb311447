package bundle

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tabdeck/tabdeck/internal/migrate"
	"github.com/tabdeck/tabdeck/internal/schema"
)

// LiftLegacy accepts a pre-archive flat JSON export (a bare object with
// top-level columns and optionally theme/background/display fields) and
// lifts it into the archive envelope. Classification is by shape: columns
// plus any appearance field means a complete export, columns alone means
// content only.
func (c *Codec) LiftLegacy(raw []byte) (*Payload, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", ErrInvalidBundle, err)
	}
	if _, ok := m["columns"]; !ok {
		return nil, fmt.Errorf("%w: unrecognized shape, no top-level columns", ErrInvalidBundle)
	}

	typ := ExportContent
	for _, key := range []string{
		"theme", "themeMode", "selectedPresetTheme", "customCss",
		"backgroundColor", "pageBackgroundColor", "backgroundImage", "backgroundDataUri",
	} {
		if _, ok := m[key]; ok {
			typ = ExportComplete
			break
		}
	}

	// Running the migration engine on the legacy object handles every older
	// column shape (flat links, tagged items) and field rename in one place.
	doc := migrate.Migrate(m, c.registry)

	payload := &Payload{
		Metadata: Metadata{
			ExportType: typ,
			Version:    schema.StorageVersion,
			Timestamp:  Timestamp(time.Now()),
			Generator:  "legacy-import",
		},
		Content: &Content{Columns: doc.Columns},
	}
	if typ == ExportComplete {
		payload.Appearance = c.legacyAppearance(m, doc)
		payload.Settings = legacySettings(m, doc)
	}
	return payload, nil
}

// legacyAppearance carries only the fields the legacy object actually
// defined. The migration engine backfills every absent field with its
// default, so copying the whole migrated document here would turn fields
// the file never mentioned into defined values and clobber the user's
// existing state at merge time.
func (c *Codec) legacyAppearance(m map[string]any, doc *schema.Document) *Appearance {
	ap := &Appearance{}
	if hasAny(m, "theme", "themeMode") {
		ap.ThemeMode = doc.ThemeMode
	}
	if hasAny(m, "theme", "selectedPresetTheme") {
		ap.SelectedPresetTheme = doc.SelectedPresetTheme
	}
	if hasAny(m, "customCss") {
		css := doc.CustomCSS
		ap.CustomCSS = &css
	}
	if overrides := c.legacyOverrides(m, doc); len(overrides) > 0 {
		ap.ThemeOverrides = overrides
	}
	if hasAny(m, "backgroundImage", "backgroundDataUri") {
		ap.BackgroundDataURI = doc.BackgroundDataURI
	}
	if hasAny(m, "background") {
		bg := doc.Background
		ap.Background = &bg
	}
	if hasAny(m, "backgroundColor", "pageBackgroundColor") {
		ap.PageBackgroundColor = doc.PageBackgroundColor
	}
	return ap
}

// legacyOverrides picks the theme override entries the legacy object
// defined, either via an explicit themeOverrides map or via the flattened
// per-theme "<key>Css"/"<key>CssEnabled" pairs the migration lifts.
func (c *Codec) legacyOverrides(m map[string]any, doc *schema.Document) map[string]schema.ThemeOverride {
	out := make(map[string]schema.ThemeOverride)
	if explicit, ok := m["themeOverrides"].(map[string]any); ok {
		for key := range explicit {
			if ov, ok := doc.ThemeOverrides[key]; ok {
				out[key] = ov
			}
		}
	}
	for _, key := range c.registry.Keys() {
		if hasAny(m, key+"Css", key+"CssEnabled") {
			if ov, ok := doc.ThemeOverrides[key]; ok {
				out[key] = ov
			}
		}
	}
	return out
}

// legacySettings returns the display settings present in the legacy object,
// or nil when it carried none.
func legacySettings(m map[string]any, doc *schema.Document) *Settings {
	s := &Settings{}
	defined := false
	if hasAny(m, "showIcons") {
		s.ShowIcons = boolPtr(doc.ShowIcons)
		defined = true
	}
	if hasAny(m, "showUrls") {
		s.ShowURLs = boolPtr(doc.ShowURLs)
		defined = true
	}
	if hasAny(m, "showColumnHeaders") {
		s.ShowColumnHeaders = boolPtr(doc.ShowColumnHeaders)
		defined = true
	}
	if hasAny(m, "showGroupHeaders") {
		s.ShowGroupHeaders = boolPtr(doc.ShowGroupHeaders)
		defined = true
	}
	if hasAny(m, "showAdvancedOptions") {
		s.ShowAdvancedOptions = boolPtr(doc.ShowAdvancedOptions)
		defined = true
	}
	if hasAny(m, "animation") {
		anim := doc.Animation
		s.Animation = &anim
		defined = true
	}
	if !defined {
		return nil
	}
	return s
}

func hasAny(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
