// internal/app/features/users/users.go
package users

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dcomingore-pivotal/chorus/internal/app/store/users"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/timeouts"
	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Admin    bool   `json:"admin"`
}

// HandleCreate handles POST /users (admin only).
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Username) == "" {
		fields["username"] = "required"
	}
	if strings.TrimSpace(req.FullName) == "" {
		fields["full_name"] = "required"
	}
	if req.Password == "" {
		fields["password"] = "required"
	}
	if len(fields) > 0 {
		envelope.FieldErrors(w, r, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	store := userstore.New(h.DB)
	user, err := store.Create(ctx, models.User{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Admin:    req.Admin,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateUsername) {
			envelope.FieldErrors(w, r, map[string]string{"username": "already taken"})
			return
		}
		h.Log.Warn("user create failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	if err := store.SetPassword(ctx, user.ID, req.Password); err != nil {
		h.Log.Error("password set failed", zap.String("user_id", user.ID.Hex()), zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusCreated, user)
}

// ServeView handles GET /users/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		envelope.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := userstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			envelope.NotFound(w, r)
			return
		}
		h.Log.Warn("user lookup failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusOK, user)
}

// HandleDelete handles DELETE /users/{id} (admin only). Deletion is a
// tombstone: the account stops signing in and drops out of member lists,
// but events it acted on keep rendering with a deleted-actor marker.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		envelope.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := userstore.New(h.DB).SoftDelete(ctx, id); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			envelope.NotFound(w, r)
			return
		}
		h.Log.Warn("user delete failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}
