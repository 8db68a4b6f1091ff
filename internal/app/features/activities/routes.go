// internal/app/features/activities/routes.go
package activities

import (
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireAdmin)
		pr.Get("/indexable", h.ServeIndexable)
	})

	return r
}
