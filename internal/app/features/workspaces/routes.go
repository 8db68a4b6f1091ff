// internal/app/features/workspaces/routes.go
package workspaces

import (
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Everything under /workspaces requires authentication
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// LIST / CREATE
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)

		// VIEW / UPDATE
		pr.Get("/{id}", h.ServeView)
		pr.Put("/{id}", h.HandleUpdate)

		// MEMBERS
		pr.Get("/{id}/members", h.ServeMembers)
		pr.Post("/{id}/members", h.HandleAddMembers)
		pr.Delete("/{id}/members/{userID}", h.HandleRemoveMember)

		// ACTIVITY FEED
		pr.Get("/{id}/activities", h.ServeActivities)
	})

	return r
}
