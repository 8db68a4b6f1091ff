// internal/app/features/comments/comments.go
package comments

import (
	"context"
	"errors"
	"net/http"
	"strings"

	commentstore "github.com/dcomingore-pivotal/chorus/internal/app/store/comments"
	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/feed"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/htmlsanitize"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createRequest struct {
	EventID int64  `json:"event_id"`
	Body    string `json:"body"`
}

// HandleCreate handles POST /comments.
//
// Commenting requires seeing the event; an event outside the viewer's
// visibility 404s exactly as it does in feeds. The body passes through the
// same sanitizer as note bodies.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	var req createRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		envelope.FieldErrors(w, r, map[string]string{"body": "required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	event, err := feed.NewAssembler(h.DB).VisibleEvent(ctx, viewer, req.EventID)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			envelope.NotFound(w, r)
			return
		}
		h.Log.Warn("event lookup failed", zap.Int64("event_id", req.EventID), zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	comment, err := commentstore.New(h.DB).Create(ctx, commentstore.Comment{
		EventID:  event.ID,
		AuthorID: viewer.ID,
		Body:     htmlsanitize.Sanitize(req.Body),
	})
	if err != nil {
		h.Log.Warn("comment create failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusCreated, comment)
}

// HandleDelete handles DELETE /comments/{id}: soft delete by the author or
// an admin. The tombstone keeps the thread's shape; only the body goes.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		envelope.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := commentstore.New(h.DB)
	comment, err := store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, commentstore.ErrNotFound) {
			envelope.NotFound(w, r)
			return
		}
		h.Log.Warn("comment lookup failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	if comment.AuthorID != viewer.ID && !viewer.Admin {
		envelope.Forbidden(w, r)
		return
	}

	if err := store.SoftDelete(ctx, id); err != nil {
		h.Log.Warn("comment delete failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}
