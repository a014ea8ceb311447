package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"github.com/tabdeck/tabdeck/internal/bundle"
	"github.com/tabdeck/tabdeck/internal/httpserver/deps"
	"github.com/tabdeck/tabdeck/internal/importer"
	"github.com/tabdeck/tabdeck/internal/logger"
	"github.com/tabdeck/tabdeck/internal/persist"
)

// ExportBundle streams a zip archive of the live document. The ?type=
// query selects the sections; it defaults to a complete export.
func ExportBundle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exportType := bundle.ExportType(r.URL.Query().Get("type"))
		if exportType == "" {
			exportType = bundle.ExportComplete
		}
		if !exportType.Valid() {
			writeError(w, http.StatusBadRequest, "unknown export type")
			return
		}

		now := d.Now()
		data, err := d.Codec.Export(d.Live.Snapshot(), exportType, now)
		if err != nil {
			d.Logger.Error("export failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="`+bundle.ExportFilename(exportType, now)+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

type importResponse struct {
	Stats          importer.Stats `json:"stats"`
	ScopeMismatch  bool           `json:"scopeMismatch"`
	Backup         string         `json:"backup,omitempty"`
	BackupFilename string         `json:"backupFilename,omitempty"`
}

// ImportBundle accepts an archive or legacy JSON export in the request
// body and merges it under ?scope= (default complete). ?backup=true
// returns a base64 archive of the pre-import state alongside the stats.
func ImportBundle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		scope := bundle.ExportType(r.URL.Query().Get("scope"))
		if scope == "" {
			scope = bundle.ExportComplete
		}
		backup := r.URL.Query().Get("backup") == "true"

		result, err := d.Importer.Import(r.Context(), body, scope, backup)
		if err != nil {
			switch {
			case errors.Is(err, bundle.ErrInvalidBundle):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, persist.ErrQuotaExceeded):
				writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			default:
				d.Logger.Error("import failed", logger.Error(err))
				writeError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		resp := importResponse{
			Stats:          result.Stats,
			ScopeMismatch:  result.ScopeMismatch,
			BackupFilename: result.BackupFilename,
		}
		if len(result.Backup) > 0 {
			resp.Backup = base64.StdEncoding.EncodeToString(result.Backup)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ExportJSON returns the stored document verbatim, for debugging and for
// raw backups that bypass the archive codec.
func ExportJSON(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := d.Adapter.ExportJSON(r.Context())
		if err != nil {
			d.Logger.Error("json export failed", logger.Error(err))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="tabdeck-data.json"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// ImportJSON replaces the stored document with the posted JSON. The body
// runs through the migration engine and the quota precheck before the
// write, so an oversized or malformed payload never clobbers good data.
func ImportJSON(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		doc, err := d.Adapter.ImportJSON(r.Context(), body)
		if err != nil {
			switch {
			case errors.Is(err, persist.ErrQuotaExceeded):
				writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			default:
				writeError(w, http.StatusBadRequest, err.Error())
			}
			return
		}

		d.Live.Replace(doc)
		writeJSON(w, http.StatusOK, doc)
	}
}
