// internal/app/features/workspaces/update.go
package workspaces

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dcomingore-pivotal/chorus/internal/app/policy/workspacepolicy"
	workspacestore "github.com/dcomingore-pivotal/chorus/internal/app/store/workspaces"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/activity"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/timeouts"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

type updateRequest struct {
	Name     *string `json:"name"`
	Summary  *string `json:"summary"`
	Public   *bool   `json:"public"`
	Archived *bool   `json:"archived"`
}

// HandleUpdate handles PUT /workspaces/{id}.
//
// Only the owner or an admin may change a workspace. Visibility and
// archive toggles each leave a lifecycle event in the workspace's feed;
// name and summary edits do not.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	var req updateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

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
	if !workspacepolicy.CanAdminister(viewer, ws) {
		envelope.Forbidden(w, r)
		return
	}

	store := workspacestore.New(h.DB)

	if req.Name != nil || req.Summary != nil {
		if req.Name != nil {
			trimmed := strings.TrimSpace(*req.Name)
			if trimmed == "" {
				envelope.FieldErrors(w, r, map[string]string{"name": "required"})
				return
			}
			ws.Name = trimmed
		}
		if req.Summary != nil {
			ws.Summary = *req.Summary
		}
		if err := store.Update(ctx, ws.ID, ws); err != nil {
			if errors.Is(err, workspacestore.ErrDuplicateName) {
				envelope.FieldErrors(w, r, map[string]string{"name": "a workspace with this name already exists"})
				return
			}
			h.Log.Warn("workspace update failed", zap.Error(err))
			envelope.Error(w, r, http.StatusInternalServerError, "database error")
			return
		}
	}

	if req.Public != nil && *req.Public != ws.Public {
		if err := store.SetPublic(ctx, ws.ID, *req.Public); err != nil {
			h.Log.Warn("workspace visibility change failed", zap.Error(err))
			envelope.Error(w, r, http.StatusInternalServerError, "database error")
			return
		}
		ws.Public = *req.Public
		kind := activity.KindWorkspaceMakePrivate
		if ws.Public {
			kind = activity.KindWorkspaceMakePublic
		}
		h.emit(ctx, kind, viewer.ID, ws, nil, nil)
	}

	if req.Archived != nil && *req.Archived != ws.Archived {
		var err error
		kind := activity.KindWorkspaceUnarchived
		if *req.Archived {
			kind = activity.KindWorkspaceArchived
			err = store.Archive(ctx, ws.ID, viewer.ID)
		} else {
			err = store.Unarchive(ctx, ws.ID)
		}
		if err != nil {
			h.Log.Warn("workspace archive change failed", zap.Error(err))
			envelope.Error(w, r, http.StatusInternalServerError, "database error")
			return
		}
		ws.Archived = *req.Archived
		h.emit(ctx, kind, viewer.ID, ws, nil, nil)
	}

	fresh, err := store.GetByID(ctx, ws.ID)
	if err != nil {
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}
	envelope.Respond(w, r, http.StatusOK, fresh)
}
