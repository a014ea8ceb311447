package schema

// ThemeRegistry is the list of known preset theme keys. It is passed
// explicitly into every function that enumerates themes (defaults generator,
// bundle codec) instead of living in mutable package state, so load order
// never matters.
type ThemeRegistry []string

// BrowserTheme is the pseudo-theme key for the browser's own styling. It is
// always present in the override map even though it is not a real preset.
const BrowserTheme = "browser"

// DefaultThemeRegistry is the compile-time fallback used when no registry is
// configured. The set of customizable themes grows over time; adding a key
// here is additive only, existing override entries are never dropped.
var DefaultThemeRegistry = ThemeRegistry{"light", "dark", "nord", "solarized"}

// Keys returns the registry keys plus the browser pseudo-theme.
func (r ThemeRegistry) Keys() []string {
	keys := make([]string, 0, len(r)+1)
	keys = append(keys, r...)
	keys = append(keys, BrowserTheme)
	return keys
}

// Contains reports whether key is a known theme key (including "browser").
func (r ThemeRegistry) Contains(key string) bool {
	if key == BrowserTheme {
		return true
	}
	for _, k := range r {
		if k == key {
			return true
		}
	}
	return false
}

// ThemeOverrideFields completes existing with an empty override entry per
// registry key. Idempotent and strictly additive: entries already present
// (known key or not) are kept untouched.
func ThemeOverrideFields(reg ThemeRegistry, existing map[string]ThemeOverride) map[string]ThemeOverride {
	out := make(map[string]ThemeOverride, len(reg)+1+len(existing))
	for k, v := range existing {
		out[k] = v
	}
	for _, key := range reg.Keys() {
		if _, ok := out[key]; !ok {
			out[key] = ThemeOverride{}
		}
	}
	return out
}

// DefaultDocument builds the authoritative default document shape. Starter
// content, when wanted, comes from the seed file; the bare default has no
// columns.
func DefaultDocument(reg ThemeRegistry) *Document {
	return &Document{
		Version:             StorageVersion,
		Columns:             []Column{},
		ThemeMode:           "preset",
		SelectedPresetTheme: "dark",
		CustomCSS:           "",
		ThemeOverrides:      ThemeOverrideFields(reg, nil),
		BackgroundDataURI:   nil,
		Background: BackgroundLayout{
			Size:     "cover",
			Repeat:   "no-repeat",
			Position: "center",
		},
		PageBackgroundColor: "#121212",
		ShowIcons:           true,
		ShowURLs:            false,
		ShowColumnHeaders:   true,
		ShowGroupHeaders:    true,
		ShowAdvancedOptions: false,
		Animation: Animation{
			Enabled:    true,
			Style:      "fade",
			Mode:       "uniform",
			DurationMS: 240,
			DelayMS:    0,
			StaggerMS:  40,
		},
	}
}
