package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tabdeck/tabdeck/internal/logger"
	"github.com/tabdeck/tabdeck/internal/schema"
	"github.com/tabdeck/tabdeck/internal/validate"
)

// Export serializes the selected subset of doc into a portable zip archive.
// Inline base64 assets are decoded into binary entries and replaced in the
// JSON by their entry paths; CSS fields become text entries whether or not
// they are empty, so a configured-then-emptied override round-trips.
func (c *Codec) Export(doc *schema.Document, typ ExportType, now time.Time) ([]byte, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown export type %q", ErrInvalidBundle, typ)
	}

	payload := Payload{
		Metadata: Metadata{
			ExportType: typ,
			Version:    schema.StorageVersion,
			Timestamp:  Timestamp(now),
			Generator:  c.generator,
		},
	}
	binaries := make(map[string][]byte)
	texts := make(map[string]string)

	if typ == ExportContent || typ == ExportComplete {
		cols := schema.CloneColumns(doc.Columns)
		c.extractFavicons(cols, binaries)
		payload.Content = &Content{Columns: cols}
	}
	if typ == ExportAppearance || typ == ExportComplete {
		payload.Appearance = c.extractAppearance(doc, binaries, texts)
		payload.Settings = settingsFromDocument(doc)
	}

	return writeArchive(&payload, binaries, texts)
}

// extractFavicons moves every inline favicon out of the column tree into a
// binary entry named after the owning link, de-duplicated by link id.
// IconURLOverride is already a remote reference and passes through as-is.
func (c *Codec) extractFavicons(cols []schema.Column, binaries map[string][]byte) {
	seen := make(map[string]bool)
	for ci := range cols {
		for gi := range cols[ci].Groups {
			links := cols[ci].Groups[gi].Links
			for li := range links {
				l := &links[li]
				if l.IconDataURI == nil || !strings.HasPrefix(*l.IconDataURI, "data:") {
					continue
				}
				if seen[l.ID] {
					continue
				}
				mime, data, err := validate.ParseImageDataURI(*l.IconDataURI)
				if err != nil {
					c.logger.Warn("skipping favicon with malformed data uri",
						logger.String("link_id", l.ID),
						logger.Error(err))
					continue
				}
				ext := ExtensionForMIME(mime)
				if ext == "" {
					c.logger.Warn("skipping favicon with unknown image type",
						logger.String("link_id", l.ID),
						logger.String("mime", mime))
					continue
				}
				path := ImagePrefix + "favicon_" + l.ID + "." + ext
				binaries[path] = data
				ref := path
				l.IconDataURI = &ref
				seen[l.ID] = true
			}
		}
	}
}

// extractAppearance builds the appearance section, pulling the background
// image into a binary entry and every CSS field into a text entry.
func (c *Codec) extractAppearance(doc *schema.Document, binaries map[string][]byte, texts map[string]string) *Appearance {
	bg := doc.Background
	ap := &Appearance{
		ThemeMode:           doc.ThemeMode,
		SelectedPresetTheme: doc.SelectedPresetTheme,
		Background:          &bg,
		PageBackgroundColor: doc.PageBackgroundColor,
	}

	if doc.BackgroundDataURI != nil && strings.HasPrefix(*doc.BackgroundDataURI, "data:") {
		mime, data, err := validate.ParseImageDataURI(*doc.BackgroundDataURI)
		if err != nil {
			c.logger.Warn("skipping background with malformed data uri",
				logger.Error(err))
		} else if ext := ExtensionForMIME(mime); ext == "" {
			c.logger.Warn("skipping background with unknown image type",
				logger.String("mime", mime))
		} else {
			path := ImagePrefix + "background." + ext
			binaries[path] = data
			// Both fields reference the same entry; BackgroundImage keeps
			// older readers working.
			img, uri := path, path
			ap.BackgroundImage = &img
			ap.BackgroundDataURI = &uri
		}
	}

	texts[CustomCSSEntry] = doc.CustomCSS
	ref := CustomCSSEntry
	ap.CustomCSS = &ref

	ap.ThemeOverrides = make(map[string]schema.ThemeOverride, len(doc.ThemeOverrides))
	for key, ov := range doc.ThemeOverrides {
		entry := themeCSSEntry(key)
		texts[entry] = ov.CSS
		ap.ThemeOverrides[key] = schema.ThemeOverride{CSS: entry, Enabled: ov.Enabled}
	}

	return ap
}

func settingsFromDocument(doc *schema.Document) *Settings {
	anim := doc.Animation
	return &Settings{
		ShowIcons:           boolPtr(doc.ShowIcons),
		ShowURLs:            boolPtr(doc.ShowURLs),
		ShowColumnHeaders:   boolPtr(doc.ShowColumnHeaders),
		ShowGroupHeaders:    boolPtr(doc.ShowGroupHeaders),
		ShowAdvancedOptions: boolPtr(doc.ShowAdvancedOptions),
		Animation:           &anim,
	}
}

func boolPtr(b bool) *bool {
	return &b
}

// writeArchive packages data.json plus the asset entries. Entries are
// written in sorted order so identical inputs produce identical archives.
func writeArchive(payload *Payload, binaries map[string][]byte, texts map[string]string) ([]byte, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize bundle data: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entries := map[string][]byte{DataEntryName: data}
	for path, content := range binaries {
		entries[path] = content
	}
	for path, content := range texts {
		entries[path] = []byte(content)
	}

	paths := make([]string, 0, len(entries))
	for path := range entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		w, err := zw.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry %s: %w", path, err)
		}
		if _, err := w.Write(entries[path]); err != nil {
			return nil, fmt.Errorf("failed to write archive entry %s: %w", path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
