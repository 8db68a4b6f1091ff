// internal/app/features/sessions/sessions.go
package sessions

import (
	"context"
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dcomingore-pivotal/chorus/internal/app/store/users"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/timeouts"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

type createRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleCreate handles POST /sessions: username/password sign-in.
// A wrong username and a wrong password produce the same 401 so the
// endpoint cannot be used to probe for accounts.
func (h *Handler) HandleCreate(sm *auth.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Username) == "" || req.Password == "" {
			envelope.FieldErrors(w, r, map[string]string{
				"username": "required",
				"password": "required",
			})
			return
		}

		if !h.Limits.Check(r, req.Username) {
			envelope.Error(w, r, http.StatusTooManyRequests, "too many sign-in attempts, try again later")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()

		users := userstore.New(h.DB)
		user, err := users.CheckPassword(ctx, req.Username, req.Password)
		if err != nil {
			if errors.Is(err, userstore.ErrNotFound) || errors.Is(err, userstore.ErrBadCredentials) {
				envelope.Error(w, r, http.StatusUnauthorized, "invalid credentials")
				return
			}
			h.Log.Warn("sign-in lookup failed", zap.Error(err))
			envelope.Error(w, r, http.StatusInternalServerError, "database error")
			return
		}

		h.Limits.ResetAccount(req.Username)

		if err := sm.SignIn(w, r, user.ID); err != nil {
			h.Log.Error("session write failed", zap.Error(err))
			envelope.Error(w, r, http.StatusInternalServerError, "session error")
			return
		}

		envelope.Respond(w, r, http.StatusCreated, user)
	}
}

// HandleShow handles GET /sessions: returns the signed-in user.
func (h *Handler) HandleShow(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		envelope.Error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}
	envelope.Respond(w, r, http.StatusOK, user)
}

// HandleDelete handles DELETE /sessions: sign out.
func (h *Handler) HandleDelete(sm *auth.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sm.SignOut(w, r); err != nil {
			h.Log.Warn("session clear failed", zap.Error(err))
		}
		envelope.Respond(w, r, http.StatusOK, map[string]string{"status": "signed_out"})
	}
}
