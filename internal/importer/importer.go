// Package importer drives the user-facing import flow: decode a selected
// file (archive or legacy JSON), merge it into the live document under the
// requested scope, apply the favicon trust policy, persist immediately and
// report statistics.
package importer

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tabdeck/tabdeck/internal/bundle"
	"github.com/tabdeck/tabdeck/internal/logger"
	"github.com/tabdeck/tabdeck/internal/persist"
	"github.com/tabdeck/tabdeck/internal/schema"
	"github.com/tabdeck/tabdeck/internal/state"
)

// DefaultFaviconAllowList holds the favicon-service URL shapes an imported
// iconUrlOverride may keep. Anything else is stripped on import: a remote
// URL embedded in a foreign file would be fetched by the rendering surface
// later, so it is not re-trusted blindly. Matching is a pure function of
// the URL. Maintained configuration, not an extension point.
var DefaultFaviconAllowList = []string{
	"www.google.com/s2/favicons",
}

// Stats summarizes what an import changed.
type Stats struct {
	Columns            int  `json:"columns"`
	Links              int  `json:"links"`
	CustomFavicons     int  `json:"customFavicons"`
	FaviconURLsKept    int  `json:"faviconUrlsKept"`
	FaviconURLsRemoved int  `json:"faviconUrlsRemoved"`
	BackgroundImported bool `json:"backgroundImported"`
}

// Result is what the caller gets back for display.
type Result struct {
	Stats Stats `json:"stats"`

	// ScopeMismatch is set when the file's declared exportType differs from
	// the requested scope. The requested scope still wins; this is a
	// warning, never an error.
	ScopeMismatch bool `json:"scopeMismatch"`

	// Backup holds a complete export of the pre-import state when the
	// caller asked for one, with its suggested filename.
	Backup         []byte `json:"-"`
	BackupFilename string `json:"backupFilename,omitempty"`
}

// Orchestrator wires the codec, the storage adapter and the live document.
type Orchestrator struct {
	codec     *bundle.Codec
	adapter   *persist.Adapter
	live      *state.Live
	logger    logger.Logger
	allowList []string
}

// New creates an orchestrator. A nil allowList falls back to the default.
func New(codec *bundle.Codec, adapter *persist.Adapter, live *state.Live, log logger.Logger, allowList []string) *Orchestrator {
	if allowList == nil {
		allowList = DefaultFaviconAllowList
	}
	return &Orchestrator{
		codec:     codec,
		adapter:   adapter,
		live:      live,
		logger:    log,
		allowList: allowList,
	}
}

// Import decodes file and merges it into the live document under scope.
// The caller's scope choice always wins over the file's self-declared
// export type. The merged document runs through the quota precheck and is
// then persisted immediately, never debounced, so an oversized file writes
// nothing and a subsequent reload observes the new state.
func (o *Orchestrator) Import(ctx context.Context, file []byte, scope bundle.ExportType, backupFirst bool) (*Result, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("unknown import scope %q", scope)
	}

	result := &Result{}

	if backupFirst {
		now := time.Now()
		backup, err := o.codec.Export(o.live.Snapshot(), bundle.ExportComplete, now)
		if err != nil {
			return nil, fmt.Errorf("pre-import backup failed: %w", err)
		}
		result.Backup = backup
		result.BackupFilename = bundle.ExportFilename(bundle.ExportComplete, now)
	}

	payload, err := o.codec.Decode(file)
	if err != nil {
		return nil, err
	}

	if payload.Metadata.ExportType != scope {
		result.ScopeMismatch = true
		o.logger.Warn("import scope differs from file's declared type, proceeding with requested scope",
			logger.String("requested", string(scope)),
			logger.String("declared", string(payload.Metadata.ExportType)))
	}

	merged := o.live.Snapshot()
	o.merge(merged, payload, scope, &result.Stats)

	if err := o.adapter.PrecheckQuota(ctx, merged); err != nil {
		return nil, err
	}
	if err := o.adapter.SaveNow(ctx, merged); err != nil {
		return nil, err
	}
	o.live.Replace(merged)

	o.logger.Info("import completed",
		logger.String("scope", string(scope)),
		logger.Int("columns", result.Stats.Columns),
		logger.Int("links", result.Stats.Links),
		logger.Int("favicon_urls_removed", result.Stats.FaviconURLsRemoved),
		logger.Bool("background", result.Stats.BackgroundImported))
	return result, nil
}

// merge applies the payload sections selected by scope. Content replaces
// the column tree wholesale; appearance and settings shallow-merge
// field-by-field so unrelated fields survive.
func (o *Orchestrator) merge(doc *schema.Document, payload *bundle.Payload, scope bundle.ExportType, stats *Stats) {
	wantContent := scope == bundle.ExportContent || scope == bundle.ExportComplete
	wantAppearance := scope == bundle.ExportAppearance || scope == bundle.ExportComplete

	if wantContent && payload.Content != nil {
		doc.Columns = schema.CloneColumns(payload.Content.Columns)
		o.applyFaviconPolicy(doc.Columns, stats)
		stats.Columns = len(doc.Columns)
		for _, col := range doc.Columns {
			for _, g := range col.Groups {
				stats.Links += len(g.Links)
				for _, l := range g.Links {
					if l.IconDataURI != nil {
						stats.CustomFavicons++
					}
				}
			}
		}
	}

	if wantAppearance && payload.Appearance != nil {
		o.mergeAppearance(doc, payload.Appearance, stats)
	}
	if wantAppearance && payload.Settings != nil {
		mergeSettings(doc, payload.Settings)
	}
}

func (o *Orchestrator) mergeAppearance(doc *schema.Document, ap *bundle.Appearance, stats *Stats) {
	if ap.ThemeMode != "" {
		doc.ThemeMode = ap.ThemeMode
	}
	if ap.SelectedPresetTheme != "" {
		doc.SelectedPresetTheme = ap.SelectedPresetTheme
	}
	if ap.CustomCSS != nil {
		doc.CustomCSS = *ap.CustomCSS
	}
	if ap.ThemeOverrides != nil {
		if doc.ThemeOverrides == nil {
			doc.ThemeOverrides = make(map[string]schema.ThemeOverride, len(ap.ThemeOverrides))
		}
		for key, ov := range ap.ThemeOverrides {
			doc.ThemeOverrides[key] = ov
		}
	}
	if ap.BackgroundDataURI != nil {
		uri := *ap.BackgroundDataURI
		doc.BackgroundDataURI = &uri
		stats.BackgroundImported = true
	}
	if ap.Background != nil {
		doc.Background = *ap.Background
	}
	if ap.PageBackgroundColor != "" {
		doc.PageBackgroundColor = ap.PageBackgroundColor
	}
}

func mergeSettings(doc *schema.Document, s *bundle.Settings) {
	if s.ShowIcons != nil {
		doc.ShowIcons = *s.ShowIcons
	}
	if s.ShowURLs != nil {
		doc.ShowURLs = *s.ShowURLs
	}
	if s.ShowColumnHeaders != nil {
		doc.ShowColumnHeaders = *s.ShowColumnHeaders
	}
	if s.ShowGroupHeaders != nil {
		doc.ShowGroupHeaders = *s.ShowGroupHeaders
	}
	if s.ShowAdvancedOptions != nil {
		doc.ShowAdvancedOptions = *s.ShowAdvancedOptions
	}
	if s.Animation != nil {
		doc.Animation = *s.Animation
	}
}

// applyFaviconPolicy strips every iconUrlOverride that does not match the
// allow-list, counting kept and removed URLs. Never fatal.
func (o *Orchestrator) applyFaviconPolicy(cols []schema.Column, stats *Stats) {
	for ci := range cols {
		for gi := range cols[ci].Groups {
			links := cols[ci].Groups[gi].Links
			for li := range links {
				l := &links[li]
				if l.IconURLOverride == nil {
					continue
				}
				if AllowedFaviconURL(*l.IconURLOverride, o.allowList) {
					stats.FaviconURLsKept++
					continue
				}
				o.logger.Debug("stripping untrusted favicon url",
					logger.String("link_id", l.ID),
					logger.String("url", *l.IconURLOverride))
				l.IconURLOverride = nil
				stats.FaviconURLsRemoved++
			}
		}
	}
}

// AllowedFaviconURL reports whether raw matches one of the allow-listed
// favicon-service URL shapes. Pure: the answer depends only on the URL, so
// re-importing an already-imported archive classifies identically.
func AllowedFaviconURL(raw string, allowList []string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	target := u.Host + u.Path
	for _, shape := range allowList {
		if strings.Contains(target, shape) {
			return true
		}
	}
	return false
}
