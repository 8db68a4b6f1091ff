// internal/app/features/workspaces/view.go
package workspaces

import (
	"context"
	"net/http"

	"github.com/dcomingore-pivotal/chorus/internal/app/policy/workspacepolicy"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/timeouts"
)

// ServeView handles GET /workspaces/{id}.
//
// A private workspace the viewer cannot see answers 404, not 403, so the
// response does not confirm the workspace exists.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ws, ok := h.loadWorkspace(ctx, w, r)
	if !ok {
		return
	}
	if !workspacepolicy.CanView(viewer, ws) {
		envelope.NotFound(w, r)
		return
	}

	envelope.Respond(w, r, http.StatusOK, ws)
}
