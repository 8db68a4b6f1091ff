// internal/app/features/workspaces/list.go
package workspaces

import (
	"context"
	"net/http"

	workspacestore "github.com/dcomingore-pivotal/chorus/internal/app/store/workspaces"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/paging"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/timeouts"
	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"go.uber.org/zap"
)

// ServeList handles GET /workspaces: every workspace the viewer can see,
// paged. Admins see all workspaces, everyone else public ones plus their
// memberships.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	visible, err := workspacestore.New(h.DB).VisibleTo(ctx, viewer)
	if err != nil {
		h.Log.Warn("workspace list failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	params := paging.Parse(r)
	page := slicePage(visible, params)
	envelope.RespondPage(w, r, page, paging.PaginationFor(params, len(page), int64(len(visible))))
}

func slicePage(all []models.Workspace, p paging.Params) []models.Workspace {
	start := int(p.Offset())
	if start >= len(all) {
		return []models.Workspace{}
	}
	end := start + p.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
