package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/tabdeck/tabdeck/internal/httpserver/deps"
	"github.com/tabdeck/tabdeck/internal/httpserver/handlers"
)

func init() { Register(registerTransfer) }

func registerTransfer(r chi.Router, d deps.Deps) {
	r.Get("/api/export", handlers.ExportBundle(d))
	r.Post("/api/import", handlers.ImportBundle(d))
	r.Get("/api/export/json", handlers.ExportJSON(d))
	r.Post("/api/import/json", handlers.ImportJSON(d))
}
