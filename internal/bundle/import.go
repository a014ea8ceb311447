package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/tabdeck/tabdeck/internal/logger"
	"github.com/tabdeck/tabdeck/internal/utils"
	"github.com/tabdeck/tabdeck/internal/validate"
)

// Decode parses either an archive or a legacy flat JSON export, returning
// the same envelope for both so downstream merge logic never special-cases
// the legacy shape.
func (c *Codec) Decode(data []byte) (*Payload, error) {
	if isZip(data) {
		return c.Import(data)
	}
	return c.LiftLegacy(data)
}

// zipMagic is the local-file-header signature every non-empty archive
// starts with. Exports always carry at least data.json, so the empty
// archive signature never appears here.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

func isZip(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// Import decodes an archive. data.json and metadata.exportType are
// required; their absence is a hard failure. A referenced asset missing
// from the archive only drops that field with a warning.
func (c *Codec) Import(data []byte) (*Payload, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %v", ErrInvalidBundle, err)
	}

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	raw, ok := readEntry(entries, DataEntryName)
	if !ok {
		return nil, fmt.Errorf("%w: missing required entry %s", ErrInvalidBundle, DataEntryName)
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed %s: %v", ErrInvalidBundle, DataEntryName, err)
	}
	if payload.Metadata.ExportType == "" {
		return nil, fmt.Errorf("%w: metadata.exportType is missing", ErrInvalidBundle)
	}
	if !payload.Metadata.ExportType.Valid() {
		return nil, fmt.Errorf("%w: unknown export type %q", ErrInvalidBundle, payload.Metadata.ExportType)
	}

	if payload.Content != nil {
		c.resolveFavicons(payload.Content, entries)
	}
	if payload.Appearance != nil {
		c.resolveAppearance(payload.Appearance, entries)
	}
	return &payload, nil
}

// resolveFavicons splices extracted favicon entries back into the column
// tree as inline data URIs.
func (c *Codec) resolveFavicons(content *Content, entries map[string]*zip.File) {
	for ci := range content.Columns {
		for gi := range content.Columns[ci].Groups {
			links := content.Columns[ci].Groups[gi].Links
			for li := range links {
				l := &links[li]
				if l.IconDataURI == nil || strings.HasPrefix(*l.IconDataURI, "data:") {
					continue
				}
				uri, ok := c.resolveImage(*l.IconDataURI, entries)
				if !ok {
					c.logger.Warn("favicon entry missing from archive, dropping field",
						logger.String("link_id", l.ID),
						logger.String("path", *l.IconDataURI))
					l.IconDataURI = nil
					continue
				}
				l.IconDataURI = &uri
			}
		}
	}
}

// resolveAppearance re-inlines the background image and reads the CSS text
// entries back into their fields.
func (c *Codec) resolveAppearance(ap *Appearance, entries map[string]*zip.File) {
	ref := ""
	switch {
	case ap.BackgroundDataURI != nil && !strings.HasPrefix(*ap.BackgroundDataURI, "data:"):
		ref = *ap.BackgroundDataURI
	case ap.BackgroundImage != nil && !strings.HasPrefix(*ap.BackgroundImage, "data:"):
		ref = *ap.BackgroundImage
	}
	if ref != "" {
		if uri, ok := c.resolveImage(ref, entries); ok {
			ap.BackgroundDataURI = &uri
		} else {
			c.logger.Warn("background entry missing from archive, dropping field",
				logger.String("path", ref))
			ap.BackgroundDataURI = nil
		}
		ap.BackgroundImage = nil
	}

	if ap.CustomCSS != nil && *ap.CustomCSS == CustomCSSEntry {
		if text, ok := readEntry(entries, CustomCSSEntry); ok {
			css := string(text)
			ap.CustomCSS = &css
		} else {
			c.logger.Warn("custom css entry missing from archive, dropping field")
			ap.CustomCSS = nil
		}
	}

	for key, ov := range ap.ThemeOverrides {
		entry := themeCSSEntry(key)
		if ov.CSS != entry {
			continue // inline value, nothing to resolve
		}
		text, ok := readEntry(entries, entry)
		if !ok {
			c.logger.Warn("theme css entry missing from archive, dropping field",
				logger.String("theme", key))
			delete(ap.ThemeOverrides, key)
			continue
		}
		ov.CSS = string(text)
		ap.ThemeOverrides[key] = ov
	}
}

// resolveImage reads a binary entry and re-encodes it as a data URI using
// the extension-derived content type.
func (c *Codec) resolveImage(entryPath string, entries map[string]*zip.File) (string, bool) {
	data, ok := readEntry(entries, entryPath)
	if !ok {
		return "", false
	}
	mime := MIMEForExtension(path.Ext(entryPath))
	if mime == "" {
		return "", false
	}
	return validate.EncodeImageDataURI(mime, data), true
}

func readEntry(entries map[string]*zip.File, name string) ([]byte, bool) {
	f, ok := entries[name]
	if !ok {
		return nil, false
	}
	rc, err := f.Open()
	if err != nil {
		return nil, false
	}
	defer utils.Close(rc)
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false
	}
	return data, true
}
