// internal/app/features/workspaces/members.go
package workspaces

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dcomingore-pivotal/chorus/internal/app/policy/workspacepolicy"
	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
	userstore "github.com/dcomingore-pivotal/chorus/internal/app/store/users"
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

// ServeMembers handles GET /workspaces/{id}/members. The member list is
// part of the workspace's visible surface: viewers who cannot see the
// workspace get a 404, never a member list.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, ok := h.loadWorkspace(ctx, w, r)
	if !ok {
		return
	}

	memberIDs := workspacepolicy.MembersVisibleTo(viewer, ws)
	if memberIDs == nil {
		envelope.NotFound(w, r)
		return
	}

	users, err := userstore.New(h.DB).GetManyByID(ctx, memberIDs)
	if err != nil {
		h.Log.Warn("member lookup failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	// Preserve the member list's order; drop soft-deleted accounts.
	members := make([]models.User, 0, len(memberIDs))
	for _, id := range memberIDs {
		if u, ok := users[id]; ok {
			members = append(members, u)
		}
	}

	envelope.Respond(w, r, http.StatusOK, members)
}

type addMembersRequest struct {
	UserIDs []string `json:"user_ids"`
}

// HandleAddMembers handles POST /workspaces/{id}/members (owner or admin).
// One MEMBERS_ADDED event covers the whole batch.
func (h *Handler) HandleAddMembers(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	var req addMembersRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.UserIDs) == 0 {
		envelope.FieldErrors(w, r, map[string]string{"user_ids": "required"})
		return
	}

	userIDs := make([]primitive.ObjectID, 0, len(req.UserIDs))
	for _, hex := range req.UserIDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			envelope.FieldErrors(w, r, map[string]string{"user_ids": "must be valid ids"})
			return
		}
		userIDs = append(userIDs, id)
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

	users, err := userstore.New(h.DB).GetManyByID(ctx, userIDs)
	if err != nil {
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	store := workspacestore.New(h.DB)
	added := make([]primitive.ObjectID, 0, len(userIDs))
	for _, id := range userIDs {
		if _, exists := users[id]; !exists {
			envelope.FieldErrors(w, r, map[string]string{"user_ids": "unknown user " + id.Hex()})
			return
		}
		if ws.HasMember(id) {
			continue
		}
		if err := store.AddMember(ctx, ws.ID, id); err != nil {
			h.Log.Warn("add member failed", zap.Error(err))
			envelope.Error(w, r, http.StatusInternalServerError, "database error")
			return
		}
		added = append(added, id)
	}

	if len(added) > 0 {
		h.emit(ctx, activity.KindMembersAdded, viewer.ID, ws,
			map[string]eventstore.EntityRef{
				eventstore.RoleMember: {Type: entity.TypeUser, ID: added[0]},
			},
			map[string]string{"num_added": strconv.Itoa(len(added))})
	}

	fresh, err := store.GetByID(ctx, ws.ID)
	if err != nil {
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}
	envelope.Respond(w, r, http.StatusOK, fresh)
}

// HandleRemoveMember handles DELETE /workspaces/{id}/members/{userID}
// (owner or admin). The owner cannot be removed. Removal emits no event;
// only additions announce themselves, and access is revoked on the removed
// member's next request.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		envelope.NotFound(w, r)
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

	if err := workspacestore.New(h.DB).RemoveMember(ctx, ws.ID, userID); err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			envelope.Error(w, r, http.StatusUnprocessableEntity, "the owner cannot be removed")
			return
		}
		h.Log.Warn("remove member failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusOK, map[string]string{"status": "removed"})
}
