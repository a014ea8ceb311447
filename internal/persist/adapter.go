// Package persist is the storage adapter: it keeps the single document in
// a key-value backend behind load/save/reset operations, with debounced
// saves, an immediate-save escape hatch and quota accounting.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tabdeck/tabdeck/internal/bundle"
	"github.com/tabdeck/tabdeck/internal/logger"
	"github.com/tabdeck/tabdeck/internal/migrate"
	"github.com/tabdeck/tabdeck/internal/schema"
	"github.com/tabdeck/tabdeck/internal/validate"
)

// KV is the minimal key-value contract the adapter persists through. The
// Redis store implements it; tests substitute an in-memory fake.
type KV interface {
	Get(ctx context.Context) (data []byte, ok bool, err error)
	Set(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
	BytesInUse(ctx context.Context) (int64, error)
}

// ErrQuotaExceeded is returned when a write would push the stored document
// past the backend quota. Nothing is written in that case.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

const (
	// DefaultDebounceInterval is the quiet period a burst of edits must
	// observe before one coalesced write goes out.
	DefaultDebounceInterval = 500 * time.Millisecond

	// DefaultQuotaBytes matches the 10 MiB local-storage ceiling of the
	// browser surface this document originally lived in.
	DefaultQuotaBytes = 10 * 1024 * 1024

	// DefaultWarnBytes is where usage reporting starts flagging.
	DefaultWarnBytes = 4 * 1024 * 1024
)

// Options tunes the adapter. Zero values fall back to the defaults above.
type Options struct {
	DebounceInterval time.Duration
	QuotaBytes       int64
	WarnBytes        int64
	Registry         schema.ThemeRegistry

	// FirstRun builds the document written back when storage holds nothing.
	// Defaults to the schema defaults; the app points it at the seed file
	// when one is configured.
	FirstRun func() *schema.Document
}

// Usage is the byte-accounting result for the document key.
type Usage struct {
	Bytes     int64  `json:"bytes"`
	Formatted string `json:"formatted"`
	IsWarning bool   `json:"isWarning"`
}

// Adapter wraps a KV backend with document-level semantics.
type Adapter struct {
	kv        KV
	logger    logger.Logger
	opts      Options
	debouncer *Debouncer
}

// New creates a storage adapter.
func New(kv KV, log logger.Logger, opts Options) *Adapter {
	if opts.DebounceInterval <= 0 {
		opts.DebounceInterval = DefaultDebounceInterval
	}
	if opts.QuotaBytes <= 0 {
		opts.QuotaBytes = DefaultQuotaBytes
	}
	if opts.WarnBytes <= 0 {
		opts.WarnBytes = DefaultWarnBytes
	}
	if opts.Registry == nil {
		opts.Registry = schema.DefaultThemeRegistry
	}
	if opts.FirstRun == nil {
		reg := opts.Registry
		opts.FirstRun = func() *schema.Document { return schema.DefaultDocument(reg) }
	}
	return &Adapter{
		kv:        kv,
		logger:    log,
		opts:      opts,
		debouncer: NewDebouncer(opts.DebounceInterval),
	}
}

// Load reads the stored document. A missing key writes and returns the
// first-run document; a stored value is migrated to the current schema.
// Backend read faults are logged and masked by returning defaults, so Load
// never fails the caller.
func (a *Adapter) Load(ctx context.Context) *schema.Document {
	data, ok, err := a.kv.Get(ctx)
	if err != nil {
		a.logger.Error("document read failed, falling back to defaults",
			logger.Error(err))
		return schema.DefaultDocument(a.opts.Registry)
	}
	if !ok {
		doc := a.opts.FirstRun()
		a.logger.Info("no stored document, writing first-run defaults",
			logger.Int("columns", len(doc.Columns)))
		if err := a.write(ctx, doc); err != nil {
			a.logger.Error("failed to persist first-run document",
				logger.Error(err))
		}
		return doc
	}
	return migrate.Migrate(data, a.opts.Registry)
}

// Save schedules a debounced write. Bursts of edits within the quiet
// interval coalesce into one write carrying the latest state. The document
// is snapshotted (and stripped of temporary entities) at call time.
func (a *Adapter) Save(doc *schema.Document) {
	snapshot := doc.WithoutTemp()
	a.debouncer.Schedule(func() {
		if err := a.write(context.Background(), snapshot); err != nil {
			a.logger.Error("debounced save failed", logger.Error(err))
		}
	})
}

// SaveNow writes immediately, bypassing the debounce. Any pending debounced
// write is cancelled first so older state can never land after this one.
// Import and reset flows must use this so a subsequent reload observes the
// new state deterministically.
func (a *Adapter) SaveNow(ctx context.Context, doc *schema.Document) error {
	a.debouncer.Cancel()
	return a.write(ctx, doc.WithoutTemp())
}

// Flush forces any pending debounced write out now. Called on shutdown.
func (a *Adapter) Flush() {
	a.debouncer.Flush()
}

// Reset deletes the stored key and rewrites the first-run document.
func (a *Adapter) Reset(ctx context.Context) (*schema.Document, error) {
	a.debouncer.Cancel()
	if err := a.kv.Delete(ctx); err != nil {
		return nil, fmt.Errorf("reset failed: %w", err)
	}
	doc := a.opts.FirstRun()
	if err := a.write(ctx, doc); err != nil {
		return nil, fmt.Errorf("reset failed: %w", err)
	}
	a.logger.Info("document reset to defaults")
	return doc, nil
}

// Usage reports byte usage for the document key. Faults degrade to a
// zero-usage result, never an error.
func (a *Adapter) Usage(ctx context.Context) Usage {
	bytes, err := a.kv.BytesInUse(ctx)
	if err != nil {
		a.logger.Warn("storage usage query failed", logger.Error(err))
		return Usage{Bytes: 0, Formatted: bundle.FormatBytes(0)}
	}
	return Usage{
		Bytes:     bytes,
		Formatted: bundle.FormatBytes(bytes),
		IsWarning: bytes >= a.opts.WarnBytes,
	}
}

// ExportJSON returns the whole stored document as indented JSON. This is
// the legacy flat export kept for backward compatibility with pre-archive
// tooling.
func (a *Adapter) ExportJSON(ctx context.Context) ([]byte, error) {
	doc := a.Load(ctx)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return data, nil
}

// ImportJSON replaces the stored document with a legacy flat JSON payload:
// parse, validate, quota-precheck, migrate, save immediately. Validation
// failures carry a specific message; nothing is written on failure.
func (a *Adapter) ImportJSON(ctx context.Context, data []byte) (*schema.Document, error) {
	var probe map[string]any
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("import is not valid JSON: %w", err)
	}

	doc := migrate.Migrate(probe, a.opts.Registry)
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	if err := a.PrecheckQuota(ctx, doc); err != nil {
		return nil, err
	}

	if err := a.SaveNow(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// PrecheckQuota rejects a document whose projected stored size would exceed
// the quota: current usage plus the serialized payload. Nothing is written
// either way; import flows call this before their immediate save so an
// oversized payload never clobbers good data. A usage query fault degrades
// to assuming an empty store.
func (a *Adapter) PrecheckQuota(ctx context.Context, doc *schema.Document) error {
	payload, err := json.Marshal(doc.WithoutTemp())
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}
	used, err := a.kv.BytesInUse(ctx)
	if err != nil {
		a.logger.Warn("usage query failed during quota precheck, assuming empty",
			logger.Error(err))
		used = 0
	}
	if used+int64(len(payload)) > a.opts.QuotaBytes {
		return fmt.Errorf("%w: %s in use plus %s incoming exceeds %s",
			ErrQuotaExceeded,
			bundle.FormatBytes(used),
			bundle.FormatBytes(int64(len(payload))),
			bundle.FormatBytes(a.opts.QuotaBytes))
	}
	return nil
}

// write stamps the schema version, persists the document, and runs a
// best-effort usage check. Write faults propagate: the caller needs to know
// persistence failed.
func (a *Adapter) write(ctx context.Context, doc *schema.Document) error {
	doc.Version = schema.StorageVersion
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize document: %w", err)
	}
	if err := a.kv.Set(ctx, data); err != nil {
		return fmt.Errorf("failed to persist document: %w", err)
	}
	a.checkUsage(ctx)
	return nil
}

func (a *Adapter) checkUsage(ctx context.Context) {
	u := a.Usage(ctx)
	if u.IsWarning {
		a.logger.Warn("document storage above warning threshold",
			logger.Int64("bytes", u.Bytes),
			logger.String("formatted", u.Formatted))
		return
	}
	a.logger.Debug("document storage usage",
		logger.Int64("bytes", u.Bytes),
		logger.String("formatted", u.Formatted))
}

func validateDocument(doc *schema.Document) error {
	if err := validate.ThemeMode(doc.ThemeMode); err != nil {
		return err
	}
	if err := validate.BackgroundSize(doc.Background.Size); err != nil {
		return err
	}
	if err := validate.BackgroundRepeat(doc.Background.Repeat); err != nil {
		return err
	}
	if err := validate.BackgroundPosition(doc.Background.Position); err != nil {
		return err
	}
	if err := validate.CSS(doc.CustomCSS); err != nil {
		return fmt.Errorf("custom css rejected: %w", err)
	}
	for key, ov := range doc.ThemeOverrides {
		if err := validate.CSS(ov.CSS); err != nil {
			return fmt.Errorf("%s theme css rejected: %w", key, err)
		}
	}
	if doc.BackgroundDataURI != nil {
		if err := validate.ImageDataURI(*doc.BackgroundDataURI); err != nil {
			return fmt.Errorf("background image rejected: %w", err)
		}
	}
	for _, col := range doc.Columns {
		if err := validate.CustomClasses(col.CustomClasses); err != nil {
			return fmt.Errorf("column %q: %w", col.Name, err)
		}
		for _, g := range col.Groups {
			for _, l := range g.Links {
				if l.URL == "" {
					continue
				}
				if err := validate.URL(l.URL); err != nil {
					return fmt.Errorf("link %q: %w", l.Title, err)
				}
			}
		}
	}
	return nil
}
