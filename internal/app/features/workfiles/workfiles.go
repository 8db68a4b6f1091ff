// internal/app/features/workfiles/workfiles.go
package workfiles

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dcomingore-pivotal/chorus/internal/app/policy/workspacepolicy"
	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
	workfilestore "github.com/dcomingore-pivotal/chorus/internal/app/store/workfiles"
	workspacestore "github.com/dcomingore-pivotal/chorus/internal/app/store/workspaces"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/activity"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/entity"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/timeouts"
	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createRequest struct {
	WorkspaceID   string `json:"workspace_id"`
	FileName      string `json:"file_name"`
	Description   string `json:"description"`
	CommitMessage string `json:"commit_message"`
}

// HandleCreate handles POST /workfiles: adds a workfile (with its first
// version) to a workspace and announces it in the workspace's feed.
// Requires membership in an unarchived workspace.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	var req createRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := map[string]string{}
	workspaceID, err := primitive.ObjectIDFromHex(req.WorkspaceID)
	if err != nil {
		fields["workspace_id"] = "must be a valid id"
	}
	if strings.TrimSpace(req.FileName) == "" {
		fields["file_name"] = "required"
	}
	if len(fields) > 0 {
		envelope.FieldErrors(w, r, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, err := workspacestore.New(h.DB).GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			envelope.NotFound(w, r)
			return
		}
		h.Log.Warn("workspace lookup failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}
	if !workspacepolicy.CanView(viewer, ws) {
		envelope.NotFound(w, r)
		return
	}
	if !workspacepolicy.CanModifyWorkfiles(viewer, ws) {
		envelope.Forbidden(w, r)
		return
	}

	wf, err := workfilestore.New(h.DB).Create(ctx, models.Workfile{
		WorkspaceID: ws.ID,
		OwnerID:     viewer.ID,
		FileName:    strings.TrimSpace(req.FileName),
		Description: req.Description,
	}, req.CommitMessage)
	if err != nil {
		h.Log.Warn("workfile create failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	targets := map[string]eventstore.EntityRef{
		eventstore.RoleWorkspace: {Type: entity.TypeWorkspace, ID: ws.ID},
		eventstore.RoleWorkfile:  {Type: entity.TypeWorkfile, ID: wf.ID},
	}
	if _, err := h.Emitter.Emit(ctx, activity.KindWorkspaceAddWorkfile, viewer.ID, targets, nil); err != nil {
		h.Log.Error("workfile event emission failed", zap.Error(err))
	}

	envelope.Respond(w, r, http.StatusCreated, wf)
}

// ServeList handles GET /workfiles?workspace_id=: workfiles of one
// workspace the viewer can see.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	workspaceID, err := primitive.ObjectIDFromHex(query.Get(r, "workspace_id"))
	if err != nil {
		envelope.FieldErrors(w, r, map[string]string{"workspace_id": "must be a valid id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, err := workspacestore.New(h.DB).GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			envelope.NotFound(w, r)
			return
		}
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}
	if !workspacepolicy.CanView(viewer, ws) {
		envelope.NotFound(w, r)
		return
	}

	list, err := workfilestore.New(h.DB).ListByWorkspace(ctx, ws.ID)
	if err != nil {
		h.Log.Warn("workfile list failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusOK, list)
}

type versionRequest struct {
	CommitMessage string `json:"commit_message"`
}

// HandleAddVersion handles POST /workfiles/{id}/versions: saves a new
// revision. Requires membership in the owning, unarchived workspace.
func (h *Handler) HandleAddVersion(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		envelope.NotFound(w, r)
		return
	}

	var req versionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	store := workfilestore.New(h.DB)
	wf, err := store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, workfilestore.ErrNotFound) {
			envelope.NotFound(w, r)
			return
		}
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	ws, err := workspacestore.New(h.DB).GetByID(ctx, wf.WorkspaceID)
	if err != nil {
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}
	if !workspacepolicy.CanView(viewer, ws) {
		envelope.NotFound(w, r)
		return
	}
	if !workspacepolicy.CanModifyWorkfiles(viewer, ws) {
		envelope.Forbidden(w, r)
		return
	}

	version, err := store.AddVersion(ctx, wf.ID, viewer.ID, req.CommitMessage)
	if err != nil {
		h.Log.Warn("workfile version add failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusCreated, version)
}
