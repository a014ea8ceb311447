package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/tabdeck/tabdeck/internal/httpserver/deps"
	"github.com/tabdeck/tabdeck/internal/httpserver/handlers"
)

func init() { Register(registerDocument) }

func registerDocument(r chi.Router, d deps.Deps) {
	r.Get("/api/document", handlers.GetDocument(d))
	r.Put("/api/document", handlers.PutDocument(d))
	r.Post("/api/document/reset", handlers.ResetDocument(d))
	r.Get("/api/document/usage", handlers.Usage(d))
}
