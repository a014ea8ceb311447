package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/tabdeck/tabdeck/internal/httpserver/deps"
	"github.com/tabdeck/tabdeck/internal/httpserver/handlers"
)

func init() { Register(registerEntities) }

func registerEntities(r chi.Router, d deps.Deps) {
	r.Post("/api/columns", handlers.CreateColumn(d))
	r.Post("/api/columns/{columnID}/groups", handlers.CreateGroup(d))
	r.Post("/api/groups/{groupID}/links", handlers.CreateLink(d))
	r.Post("/api/entities/{id}/commit", handlers.CommitEntity(d))
	r.Delete("/api/entities/{id}", handlers.DiscardEntity(d))
}
