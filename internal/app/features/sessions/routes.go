// internal/app/features/sessions/routes.go
package sessions

import (
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.HandleCreate(sm))
	r.Delete("/", h.HandleDelete(sm))

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.HandleShow)
	})

	return r
}
