// Package bundle is the archive codec: it round-trips a document (or a
// content-only / appearance-only subset) through a portable zip container
// holding one structured data.json plus extracted binary assets and CSS
// text entries.
package bundle

import (
	"errors"

	"github.com/tabdeck/tabdeck/internal/logger"
	"github.com/tabdeck/tabdeck/internal/schema"
)

// Archive entry layout.
const (
	// DataEntryName is the one required entry of every archive.
	DataEntryName = "data.json"
	// ImagePrefix is where extracted binary assets live.
	ImagePrefix = "images/"
	// CustomCSSEntry holds the user's free-form stylesheet.
	CustomCSSEntry = "custom.css"
)

// ErrInvalidBundle marks a malformed container: unparsable input, a missing
// data.json, or missing required metadata. These are hard failures; missing
// referenced assets are not (those degrade with a warning).
var ErrInvalidBundle = errors.New("invalid bundle")

// ExportType selects which top-level sections an archive carries.
type ExportType string

const (
	ExportContent    ExportType = "content"
	ExportAppearance ExportType = "appearance"
	ExportComplete   ExportType = "complete"
)

// Valid reports whether t is a known export type.
func (t ExportType) Valid() bool {
	switch t {
	case ExportContent, ExportAppearance, ExportComplete:
		return true
	}
	return false
}

// Metadata describes the archive itself.
type Metadata struct {
	ExportType ExportType `json:"exportType"`
	Version    int        `json:"version"`
	Timestamp  string     `json:"timestamp"`
	Generator  string     `json:"generator"`
}

// Content is the columns -> groups -> links tree. Inside an archive, link
// icon fields hold entry paths instead of inline data URIs.
type Content struct {
	Columns []schema.Column `json:"columns"`
}

// Appearance carries the theme and background fields. Inside an archive the
// CSS fields hold entry paths; BackgroundImage and BackgroundDataURI both
// reference the same extracted image entry (the former for compatibility
// with older readers).
type Appearance struct {
	ThemeMode           string                           `json:"themeMode,omitempty"`
	SelectedPresetTheme string                           `json:"selectedPresetTheme,omitempty"`
	CustomCSS           *string                          `json:"customCss,omitempty"`
	ThemeOverrides      map[string]schema.ThemeOverride  `json:"themeOverrides,omitempty"`
	BackgroundImage     *string                          `json:"backgroundImage,omitempty"`
	BackgroundDataURI   *string                          `json:"backgroundDataUri,omitempty"`
	Background          *schema.BackgroundLayout         `json:"background,omitempty"`
	PageBackgroundColor string                           `json:"pageBackgroundColor,omitempty"`
}

// Settings carries the display toggles and animation block. Pointer fields
// distinguish "absent" from "false" so imports can shallow-merge.
type Settings struct {
	ShowIcons           *bool             `json:"showIcons,omitempty"`
	ShowURLs            *bool             `json:"showUrls,omitempty"`
	ShowColumnHeaders   *bool             `json:"showColumnHeaders,omitempty"`
	ShowGroupHeaders    *bool             `json:"showGroupHeaders,omitempty"`
	ShowAdvancedOptions *bool             `json:"showAdvancedOptions,omitempty"`
	Animation           *schema.Animation `json:"animation,omitempty"`
}

// Payload is the decoded archive: data.json with all asset references
// resolved back to inline values.
type Payload struct {
	Metadata   Metadata    `json:"metadata"`
	Content    *Content    `json:"content,omitempty"`
	Appearance *Appearance `json:"appearance,omitempty"`
	Settings   *Settings   `json:"settings,omitempty"`
}

// Codec encodes and decodes archives.
type Codec struct {
	logger    logger.Logger
	registry  schema.ThemeRegistry
	generator string
}

// NewCodec creates a codec. The generator string is stamped into exported
// metadata.
func NewCodec(log logger.Logger, reg schema.ThemeRegistry, generator string) *Codec {
	if reg == nil {
		reg = schema.DefaultThemeRegistry
	}
	return &Codec{
		logger:    log,
		registry:  reg,
		generator: generator,
	}
}

func themeCSSEntry(key string) string {
	return key + "-theme.css"
}
