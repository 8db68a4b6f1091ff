// internal/app/features/notes/notecreate.go
package notes

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dcomingore-pivotal/chorus/internal/app/policy/workspacepolicy"
	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
	instancestore "github.com/dcomingore-pivotal/chorus/internal/app/store/instances"
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
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Body       string `json:"body"`
}

// HandleCreate handles POST /notes.
//
// The entity type decides which note kind the event becomes; a note on a
// workspace-scoped target requires view access to that workspace. The body
// is sanitized at emission, so what comes back in the 201 is what every
// later feed read will show.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	viewer, ok := auth.CurrentUser(r)
	if !ok {
		envelope.Error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		envelope.FieldErrors(w, r, map[string]string{"body": "required"})
		return
	}

	entityID, err := primitive.ObjectIDFromHex(req.EntityID)
	if err != nil {
		envelope.FieldErrors(w, r, map[string]string{"entity_id": "must be a valid id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	resolver := entity.NewResolver(h.DB)
	ref := eventstore.EntityRef{Type: req.EntityType, ID: entityID}
	info, err := resolver.Find(ctx, ref)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrNotFound):
			envelope.NotFound(w, r)
		case errors.Is(err, entity.ErrUnknownType):
			envelope.FieldErrors(w, r, map[string]string{"entity_type": "unknown entity type"})
		default:
			h.Log.Warn("note target lookup failed", zap.Error(err))
			envelope.Error(w, r, http.StatusInternalServerError, "database error")
		}
		return
	}

	targets := map[string]eventstore.EntityRef{eventstore.RoleTarget1: ref}
	instanceKind := ""

	switch req.EntityType {
	case entity.TypeInstance:
		inst, err := h.instanceKind(ctx, entityID)
		if err != nil {
			envelope.Error(w, r, http.StatusInternalServerError, "database error")
			return
		}
		instanceKind = inst
		targets[eventstore.RoleInstance] = ref

	case entity.TypeWorkspace:
		if !h.requireWorkspaceView(ctx, w, r, viewer, entityID) {
			return
		}
		targets[eventstore.RoleWorkspace] = ref

	case entity.TypeDataset:
		targets[eventstore.RoleDataset] = ref
		if info.WorkspaceID != nil {
			if !h.requireWorkspaceView(ctx, w, r, viewer, *info.WorkspaceID) {
				return
			}
			targets[eventstore.RoleWorkspace] = eventstore.EntityRef{Type: entity.TypeWorkspace, ID: *info.WorkspaceID}
		}

	case entity.TypeWorkfile:
		targets[eventstore.RoleWorkfile] = ref
		if info.WorkspaceID != nil {
			if !h.requireWorkspaceView(ctx, w, r, viewer, *info.WorkspaceID) {
				return
			}
			targets[eventstore.RoleWorkspace] = eventstore.EntityRef{Type: entity.TypeWorkspace, ID: *info.WorkspaceID}
		}
	}

	kind, ok := activity.NoteKindFor(req.EntityType, instanceKind, info.WorkspaceID != nil)
	if !ok {
		envelope.FieldErrors(w, r, map[string]string{"entity_type": "notes are not supported on this entity type"})
		return
	}

	event, err := h.Emitter.Emit(ctx, kind, viewer.ID, targets, map[string]string{"body": req.Body})
	if err != nil {
		var verr *activity.ValidationError
		if errors.As(err, &verr) {
			envelope.Error(w, r, http.StatusUnprocessableEntity, verr.Error())
			return
		}
		h.Log.Error("note emission failed", zap.String("kind", kind), zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusCreated, event)
}

// requireWorkspaceView enforces view access to the workspace that scopes
// the note target. Writes the error response and returns false on denial.
func (h *Handler) requireWorkspaceView(ctx context.Context, w http.ResponseWriter, r *http.Request, viewer models.User, workspaceID primitive.ObjectID) bool {
	ws, err := workspacestore.New(h.DB).GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			envelope.NotFound(w, r)
			return false
		}
		h.Log.Warn("workspace lookup failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return false
	}
	if !workspacepolicy.CanView(viewer, ws) {
		envelope.Forbidden(w, r)
		return false
	}
	return true
}

func (h *Handler) instanceKind(ctx context.Context, id primitive.ObjectID) (string, error) {
	inst, err := instancestore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return inst.Kind, nil
}
