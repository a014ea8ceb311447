package schema

// StorageVersion is the schema version stamped on every persisted document.
// Stored documents with a lower (or missing) version are migrated on load.
const StorageVersion = 4

const (
	// MaxGroupsPerColumn caps how many groups a single column may hold.
	// Enforced at the point of addition, not re-validated globally.
	MaxGroupsPerColumn = 50
	// MaxLinksPerGroup caps how many links a single group may hold.
	MaxLinksPerGroup = 200
)

// Document is the single persisted state tree for the whole installation.
// There is exactly one logical document per installation; it is created with
// defaults on first load and destroyed only by an explicit reset.
type Document struct {
	Version int      `json:"version"`
	Columns []Column `json:"columns"`

	// ─────────────────────────────
	// Appearance
	// ─────────────────────────────

	// ThemeMode selects how the page is styled: "preset" | "custom" | "browser".
	ThemeMode string `json:"themeMode"`

	// SelectedPresetTheme names the active preset when ThemeMode is "preset".
	SelectedPresetTheme string `json:"selectedPresetTheme"`

	// CustomCSS is the user's free-form stylesheet, applied when ThemeMode
	// is "custom".
	CustomCSS string `json:"customCss"`

	// ThemeOverrides holds one per-theme CSS override entry per known theme
	// key (plus the "browser" pseudo-theme). Entries are additive: a key is
	// never dropped once known, so round trips preserve emptied overrides.
	ThemeOverrides map[string]ThemeOverride `json:"themeOverrides"`

	// BackgroundDataURI is the page background image inlined as a data URI,
	// or nil when no background image is set.
	BackgroundDataURI *string `json:"backgroundDataUri"`

	Background          BackgroundLayout `json:"background"`
	PageBackgroundColor string           `json:"pageBackgroundColor"`

	// ─────────────────────────────
	// Display toggles
	// ─────────────────────────────

	ShowIcons           bool `json:"showIcons"`
	ShowURLs            bool `json:"showUrls"`
	ShowColumnHeaders   bool `json:"showColumnHeaders"`
	ShowGroupHeaders    bool `json:"showGroupHeaders"`
	ShowAdvancedOptions bool `json:"showAdvancedOptions"`

	Animation Animation `json:"animation"`
}

// ThemeOverride is a per-theme CSS override and its enabled flag.
type ThemeOverride struct {
	CSS     string `json:"css"`
	Enabled bool   `json:"enabled"`
}

// BackgroundLayout controls how the background image is laid out.
type BackgroundLayout struct {
	Size     string `json:"size"`   // "cover" | "contain" | "auto" | "custom"
	Repeat   string `json:"repeat"` // "no-repeat" | "repeat" | "repeat-x" | "repeat-y"
	Position string `json:"position"`
	Width    string `json:"width,omitempty"`  // only meaningful when Size is "custom"
	Height   string `json:"height,omitempty"` // only meaningful when Size is "custom"
}

// Animation holds the link reveal animation settings.
type Animation struct {
	Enabled        bool   `json:"enabled"`
	Style          string `json:"style"`
	Mode           string `json:"mode"` // "uniform" | "sequential"
	DurationMS     int    `json:"durationMs"`
	DelayMS        int    `json:"delayMs"`
	StaggerMS      int    `json:"staggerMs"`
	StylesheetOnly bool   `json:"stylesheetOnly"`
}

// Column is an ordered list of groups. Insertion order is display order.
type Column struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Groups        []Group `json:"groups"`
	CustomClasses string  `json:"customClasses,omitempty"`
}

// Group is an ordered list of links under a shared title.
type Group struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Links         []Link `json:"links"`
	CustomClasses string `json:"customClasses,omitempty"`
}

// Link is a single bookmark-like entry. URL validity is a presentation
// concern, not a storage invariant: an empty or malformed URL is stored as-is.
type Link struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`

	// IconDataURI is a custom favicon inlined as a base64 data URI, or nil.
	IconDataURI *string `json:"iconDataUri"`

	// IconURLOverride points at an external favicon-service URL, or nil.
	// In practice mutually exclusive with IconDataURI; the schema does not
	// enforce that.
	IconURLOverride *string `json:"iconUrlOverride"`

	CustomClasses string `json:"customClasses,omitempty"`
}

// ItemKind discriminates the legacy column item union.
type ItemKind string

const (
	ItemKindLink    ItemKind = "link"
	ItemKindDivider ItemKind = "divider"
)

// Item is the legacy (pre-group) column entry: a tagged union of a link and
// a divider placeholder. It survives only as a migration source; current
// documents hold Column -> Group -> Link.
type Item struct {
	Kind            ItemKind `json:"kind"`
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	URL             string   `json:"url,omitempty"`
	IconDataURI     *string  `json:"iconDataUri,omitempty"`
	IconURLOverride *string  `json:"iconUrlOverride,omitempty"`
	CustomClasses   string   `json:"customClasses,omitempty"`
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Columns = CloneColumns(d.Columns)
	if d.ThemeOverrides != nil {
		out.ThemeOverrides = make(map[string]ThemeOverride, len(d.ThemeOverrides))
		for k, v := range d.ThemeOverrides {
			out.ThemeOverrides[k] = v
		}
	}
	out.BackgroundDataURI = cloneStringPtr(d.BackgroundDataURI)
	return &out
}

// CloneColumns returns a deep copy of a column slice.
func CloneColumns(cols []Column) []Column {
	if cols == nil {
		return nil
	}
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = c
		out[i].Groups = make([]Group, len(c.Groups))
		for j, g := range c.Groups {
			out[i].Groups[j] = g
			out[i].Groups[j].Links = make([]Link, len(g.Links))
			for k, l := range g.Links {
				out[i].Groups[j].Links[k] = l
				out[i].Groups[j].Links[k].IconDataURI = cloneStringPtr(l.IconDataURI)
				out[i].Groups[j].Links[k].IconURLOverride = cloneStringPtr(l.IconURLOverride)
			}
		}
	}
	return out
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
