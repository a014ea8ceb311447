package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/tabdeck/tabdeck/internal/httpserver/deps"
	"github.com/tabdeck/tabdeck/internal/logger"
	"github.com/tabdeck/tabdeck/internal/migrate"
)

// GetDocument returns the live document.
func GetDocument(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Live.Snapshot())
	}
}

// PutDocument replaces the live document wholesale and schedules a
// debounced save. The body runs through the migration engine, so older
// shapes and partial documents come out well-formed.
func PutDocument(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		var probe map[string]any
		if err := json.Unmarshal(body, &probe); err != nil {
			writeError(w, http.StatusBadRequest, "document is not valid JSON")
			return
		}

		doc := migrate.Migrate(probe, d.Registry)
		d.Live.Replace(doc)
		d.Adapter.Save(doc)

		writeJSON(w, http.StatusOK, doc)
	}
}

// ResetDocument deletes the stored document and rewrites fresh defaults.
func ResetDocument(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := d.Adapter.Reset(r.Context())
		if err != nil {
			d.Logger.Error("reset failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		d.Live.Replace(doc)
		writeJSON(w, http.StatusOK, doc)
	}
}

// Usage reports byte usage for the stored document.
func Usage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Adapter.Usage(r.Context()))
	}
}
