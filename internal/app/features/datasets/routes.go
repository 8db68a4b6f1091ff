// internal/app/features/datasets/routes.go
package datasets

import (
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)

		pr.Put("/{id}/workspace", h.HandleAssociate)

		pr.Post("/{id}/imports", h.HandleImportCreate)
		pr.Put("/{id}/imports/result", h.HandleImportResult)
	})

	return r
}
