package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tabdeck/tabdeck/internal/httpserver/deps"
	"github.com/tabdeck/tabdeck/internal/schema"
	"github.com/tabdeck/tabdeck/internal/validate"
)

// Entity creation follows the temporary -> committed lifecycle: a create
// call makes an in-memory entity with a placeholder id, commit swaps in a
// permanent id and triggers the first save, discard before commit drops it
// without ever touching storage.

type createColumnRequest struct {
	Name    string `json:"name"`
	Classes string `json:"classes,omitempty"`
}

type createGroupRequest struct {
	Title   string `json:"title"`
	Classes string `json:"classes,omitempty"`
}

type createLinkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type entityResponse struct {
	ID string `json:"id"`
}

// CreateColumn adds a temporary column.
func CreateColumn(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createColumnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.CustomClasses(req.Classes); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		id := schema.TempID()
		_, err := d.Live.Update(func(doc *schema.Document) error {
			return doc.AddColumn(schema.Column{
				ID:            id,
				Name:          req.Name,
				Groups:        []schema.Group{},
				CustomClasses: req.Classes,
			})
		})
		if err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, entityResponse{ID: id})
	}
}

// CreateGroup adds a temporary group to a column.
func CreateGroup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		columnID := chi.URLParam(r, "columnID")
		var req createGroupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.CustomClasses(req.Classes); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		id := schema.TempID()
		_, err := d.Live.Update(func(doc *schema.Document) error {
			return doc.AddGroup(columnID, schema.Group{
				ID:            id,
				Title:         req.Title,
				Links:         []schema.Link{},
				CustomClasses: req.Classes,
			})
		})
		if err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, entityResponse{ID: id})
	}
}

// CreateLink adds a temporary link to a group. The URL is stored as given;
// validity is a presentation concern.
func CreateLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID := chi.URLParam(r, "groupID")
		var req createLinkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id := schema.TempID()
		_, err := d.Live.Update(func(doc *schema.Document) error {
			return doc.AddLink(groupID, schema.Link{
				ID:    id,
				URL:   req.URL,
				Title: req.Title,
			})
		})
		if err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, entityResponse{ID: id})
	}
}

// CommitEntity turns a temporary entity permanent. Only this transition
// makes the entity reach storage, via a debounced save.
func CommitEntity(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var newID string
		snap, err := d.Live.Update(func(doc *schema.Document) error {
			committed, err := doc.Commit(id)
			if err != nil {
				return err
			}
			newID = committed
			return nil
		})
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		d.Adapter.Save(snap)
		writeJSON(w, http.StatusOK, entityResponse{ID: newID})
	}
}

// DiscardEntity removes an entity. Discarding a temporary entity never
// touches storage; removing a committed one schedules a save.
func DiscardEntity(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		wasTemp := schema.IsTempID(id)

		snap, err := d.Live.Update(func(doc *schema.Document) error {
			if !doc.Discard(id) {
				return fmt.Errorf("entity %q not found", id)
			}
			return nil
		})
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if !wasTemp {
			d.Adapter.Save(snap)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
