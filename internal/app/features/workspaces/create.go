// internal/app/features/workspaces/create.go
package workspaces

import (
	"context"
	"errors"
	"net/http"
	"strings"

	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
	workspacestore "github.com/dcomingore-pivotal/chorus/internal/app/store/workspaces"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/activity"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/entity"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/timeouts"
	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createRequest struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
	Public  bool   `json:"public"`
}

// HandleCreate handles POST /workspaces. The creator becomes the owner and
// first member; a WORKSPACE_CREATED event lands in the global feed.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	var req createRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		envelope.FieldErrors(w, r, map[string]string{"name": "required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, err := workspacestore.New(h.DB).Create(ctx, models.Workspace{
		Name:    strings.TrimSpace(req.Name),
		Summary: req.Summary,
		OwnerID: viewer.ID,
		Public:  req.Public,
	})
	if err != nil {
		if errors.Is(err, workspacestore.ErrDuplicateName) {
			envelope.FieldErrors(w, r, map[string]string{"name": "a workspace with this name already exists"})
			return
		}
		h.Log.Warn("workspace create failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	h.emit(ctx, activity.KindWorkspaceCreated, viewer.ID, ws, nil, nil)
	envelope.Respond(w, r, http.StatusCreated, ws)
}

// emit records a workspace lifecycle event, with the workspace role filled
// in and extra roles merged on top. Emission failures are logged but never
// fail the request: the workspace change itself has already committed.
func (h *Handler) emit(ctx context.Context, kind string, actorID primitive.ObjectID, ws models.Workspace, extra map[string]eventstore.EntityRef, data map[string]string) {
	targets := map[string]eventstore.EntityRef{
		eventstore.RoleWorkspace: {Type: entity.TypeWorkspace, ID: ws.ID},
	}
	for role, ref := range extra {
		targets[role] = ref
	}
	if _, err := h.Emitter.Emit(ctx, kind, actorID, targets, data); err != nil {
		h.Log.Error("workspace event emission failed",
			zap.String("kind", kind),
			zap.String("workspace_id", ws.ID.Hex()),
			zap.Error(err))
	}
}
