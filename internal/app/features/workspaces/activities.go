// internal/app/features/workspaces/activities.go
package workspaces

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dcomingore-pivotal/chorus/internal/app/policy/workspacepolicy"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/entity"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/feed"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/paging"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeActivities handles GET /workspaces/{id}/activities: the workspace's
// feed, newest first, with the same paging and filter parameters as the
// top-level activities endpoint.
func (h *Handler) ServeActivities(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, ok := h.loadWorkspace(ctx, w, r)
	if !ok {
		return
	}
	if !workspacepolicy.CanView(viewer, ws) {
		envelope.NotFound(w, r)
		return
	}

	page, err := feed.NewAssembler(h.DB).Assemble(ctx, viewer,
		feed.ForEntity(entity.TypeWorkspace, ws.ID), paging.Parse(r), query.Get(r, "filter"))
	if err != nil {
		h.Log.Warn("workspace feed failed", zap.String("workspace_id", ws.ID.Hex()), zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.RespondPage(w, r, page.Items, page.Pagination)
}
