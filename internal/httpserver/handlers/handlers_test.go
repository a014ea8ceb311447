package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tabdeck/tabdeck/internal/bundle"
	"github.com/tabdeck/tabdeck/internal/httpserver/deps"
	"github.com/tabdeck/tabdeck/internal/importer"
	"github.com/tabdeck/tabdeck/internal/logger"
	"github.com/tabdeck/tabdeck/internal/persist"
	"github.com/tabdeck/tabdeck/internal/schema"
	"github.com/tabdeck/tabdeck/internal/state"
)

type memKV struct {
	mu     sync.Mutex
	data   []byte
	exists bool
}

func (m *memKV) Get(ctx context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data, m.exists, nil
}

func (m *memKV) Set(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data, m.exists = append([]byte(nil), data...), true
	return nil
}

func (m *memKV) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data, m.exists = nil, false
	return nil
}

func (m *memKV) BytesInUse(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.data)), nil
}

func testDeps() (deps.Deps, *chi.Mux) {
	log := logger.Nop()
	reg := schema.DefaultThemeRegistry
	adapter := persist.New(&memKV{}, log, persist.Options{
		Registry:         reg,
		DebounceInterval: 10 * time.Millisecond,
	})
	live := state.NewLive()
	live.Replace(schema.DefaultDocument(reg))
	codec := bundle.NewCodec(log, reg, "test")

	d := deps.Deps{
		Logger:   log,
		Registry: reg,
		Live:     live,
		Adapter:  adapter,
		Codec:    codec,
		Importer: importer.New(codec, adapter, live, log, nil),
	}

	r := chi.NewRouter()
	r.Get("/api/document", GetDocument(d))
	r.Put("/api/document", PutDocument(d))
	r.Post("/api/document/reset", ResetDocument(d))
	r.Get("/api/document/usage", Usage(d))
	r.Post("/api/columns", CreateColumn(d))
	r.Post("/api/columns/{columnID}/groups", CreateGroup(d))
	r.Post("/api/groups/{groupID}/links", CreateLink(d))
	r.Post("/api/entities/{id}/commit", CommitEntity(d))
	r.Delete("/api/entities/{id}", DiscardEntity(d))
	r.Get("/api/export", ExportBundle(d))
	r.Post("/api/import", ImportBundle(d))
	r.Get("/api/export/json", ExportJSON(d))
	r.Post("/api/import/json", ImportJSON(d))
	return d, r
}

func do(t *testing.T, r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeID(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not json: %v (%s)", err, w.Body.String())
	}
	return resp.ID
}

func TestGetDocument(t *testing.T) {
	_, r := testDeps()
	w := do(t, r, http.MethodGet, "/api/document", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var doc schema.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("body is not a document: %v", err)
	}
	if doc.Version != schema.StorageVersion {
		t.Errorf("Version = %d, want %d", doc.Version, schema.StorageVersion)
	}
}

func TestPutDocumentMigratesOldShape(t *testing.T) {
	d, r := testDeps()
	w := do(t, r, http.MethodPut, "/api/document", []byte(`{
		"version": 1,
		"columns": [{"id": "c1", "links": [{"id": "l1", "url": "https://a.example"}]}]
	}`))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
	doc := d.Live.Snapshot()
	if len(doc.Columns) != 1 || len(doc.Columns[0].Groups) != 1 {
		t.Errorf("old shape not migrated on put: %+v", doc.Columns)
	}
}

func TestPutDocumentRejectsBadJSON(t *testing.T) {
	_, r := testDeps()
	if w := do(t, r, http.MethodPut, "/api/document", []byte("{")); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestEntityLifecycle(t *testing.T) {
	d, r := testDeps()

	w := do(t, r, http.MethodPost, "/api/columns", []byte(`{"name":"Work"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("create column status = %d (%s)", w.Code, w.Body.String())
	}
	colID := decodeID(t, w)
	if !schema.IsTempID(colID) {
		t.Errorf("new column id %q is not temporary", colID)
	}

	w = do(t, r, http.MethodPost, "/api/columns/"+colID+"/groups", []byte(`{"title":"Tools"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("create group status = %d (%s)", w.Code, w.Body.String())
	}
	grpID := decodeID(t, w)

	w = do(t, r, http.MethodPost, "/api/groups/"+grpID+"/links", []byte(`{"title":"A","url":"https://a.example"}`))
	if w.Code != http.StatusCreated {
		t.Fatalf("create link status = %d (%s)", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodPost, "/api/entities/"+colID+"/commit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("commit status = %d (%s)", w.Code, w.Body.String())
	}
	permID := decodeID(t, w)
	if schema.IsTempID(permID) {
		t.Errorf("committed id %q is still temporary", permID)
	}
	if d.Live.Snapshot().FindColumn(permID) == nil {
		t.Error("committed column not in live document")
	}

	w = do(t, r, http.MethodDelete, "/api/entities/"+permID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("discard status = %d (%s)", w.Code, w.Body.String())
	}
	if d.Live.Snapshot().FindColumn(permID) != nil {
		t.Error("discarded column still in live document")
	}
}

func TestCreateGroupUnknownColumn(t *testing.T) {
	_, r := testDeps()
	w := do(t, r, http.MethodPost, "/api/columns/nope/groups", []byte(`{"title":"x"}`))
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestCommitUnknownEntity(t *testing.T) {
	_, r := testDeps()
	w := do(t, r, http.MethodPost, "/api/entities/tmp-unknown/commit", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreateColumnRejectsBadClasses(t *testing.T) {
	_, r := testDeps()
	w := do(t, r, http.MethodPost, "/api/columns", []byte(`{"name":"X","classes":"ok;injection"}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestResetDocument(t *testing.T) {
	d, r := testDeps()
	_, err := d.Live.Update(func(doc *schema.Document) error {
		return doc.AddColumn(schema.Column{ID: "c1"})
	})
	if err != nil {
		t.Fatal(err)
	}

	w := do(t, r, http.MethodPost, "/api/document/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}

	var doc schema.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Columns) != 0 {
		t.Errorf("reset returned %d columns, want 0", len(doc.Columns))
	}
}

func TestUsageEndpoint(t *testing.T) {
	_, r := testDeps()
	w := do(t, r, http.MethodGet, "/api/document/usage", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var u persist.Usage
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil {
		t.Fatalf("body is not a usage report: %v", err)
	}
	if u.Formatted == "" {
		t.Error("usage report missing formatted size")
	}
}

func TestExportAndImportBundleEndpoints(t *testing.T) {
	d, r := testDeps()
	_, err := d.Live.Update(func(doc *schema.Document) error {
		if err := doc.AddColumn(schema.Column{ID: "c1", Name: "Work"}); err != nil {
			return err
		}
		if err := doc.AddGroup("c1", schema.Group{ID: "g1"}); err != nil {
			return err
		}
		return doc.AddLink("g1", schema.Link{ID: "l1", URL: "https://a.example"})
	})
	if err != nil {
		t.Fatal(err)
	}

	w := do(t, r, http.MethodGet, "/api/export?type=complete", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d (%s)", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "application/zip" {
		t.Errorf("Content-Type = %q, want application/zip", got)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "tabdeck-complete-") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	archive := w.Body.Bytes()

	// Wipe the live state, then import the archive back.
	d.Live.Replace(schema.DefaultDocument(schema.DefaultThemeRegistry))

	w = do(t, r, http.MethodPost, "/api/import?scope=complete", archive)
	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d (%s)", w.Code, w.Body.String())
	}
	var resp struct {
		Stats importer.Stats `json:"stats"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Stats.Columns != 1 || resp.Stats.Links != 1 {
		t.Errorf("stats = %+v, want 1/1", resp.Stats)
	}
	if d.Live.Snapshot().FindLink("l1") == nil {
		t.Error("imported link missing from live document")
	}
}

func TestImportBundleRejectsGarbage(t *testing.T) {
	_, r := testDeps()
	w := do(t, r, http.MethodPost, "/api/import", []byte("not an archive"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestExportRejectsUnknownType(t *testing.T) {
	_, r := testDeps()
	w := do(t, r, http.MethodGet, "/api/export?type=everything", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestImportJSONEndpoint(t *testing.T) {
	d, r := testDeps()
	w := do(t, r, http.MethodPost, "/api/import/json", []byte(`{
		"version": 1,
		"columns": [{"id": "c1", "links": [{"id": "l1", "url": "https://a.example"}]}]
	}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	if d.Live.Snapshot().FindLink("l1") == nil {
		t.Error("imported link missing from live document")
	}

	w = do(t, r, http.MethodGet, "/api/export/json", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export json status = %d", w.Code)
	}
	var doc schema.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("export json body: %v", err)
	}
}
