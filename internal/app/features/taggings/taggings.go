// internal/app/features/taggings/taggings.go
package taggings

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
	tagstore "github.com/dcomingore-pivotal/chorus/internal/app/store/taggings"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/entity"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/paging"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/timeouts"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type setRequest struct {
	EntityType string   `json:"entity_type"`
	EntityID   string   `json:"entity_id"`
	Tags       []string `json:"tags"`
}

// HandleSet handles POST /taggings: replaces the entity's tag set. An
// empty tags array clears all tags. Any invalid name rejects the whole
// request and nothing changes.
func (h *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	var req setRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
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
	if _, err := resolver.Find(ctx, eventstore.EntityRef{Type: req.EntityType, ID: entityID}); err != nil {
		switch {
		case errors.Is(err, entity.ErrNotFound):
			envelope.NotFound(w, r)
		case errors.Is(err, entity.ErrUnknownType):
			envelope.FieldErrors(w, r, map[string]string{"entity_type": "unknown entity type"})
		default:
			h.Log.Warn("tagging target lookup failed", zap.Error(err))
			envelope.Error(w, r, http.StatusInternalServerError, "database error")
		}
		return
	}

	tags, err := tagstore.New(h.DB).Set(ctx, req.EntityType, entityID, viewer.ID, req.Tags)
	if err != nil {
		if errors.Is(err, tagstore.ErrTagTooLong) || errors.Is(err, tagstore.ErrEmptyTag) {
			envelope.FieldErrors(w, r, map[string]string{"tags": err.Error()})
			return
		}
		h.Log.Warn("tag set failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusOK, tags)
}

// ServeList handles GET /taggings.
//
// ?entity_type=&entity_id= lists one entity's tags; ?query= searches
// distinct tag names across all entities, paged.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	entityType := query.Get(r, "entity_type")
	entityID := query.Get(r, "entity_id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	store := tagstore.New(h.DB)

	if entityType != "" || entityID != "" {
		id, err := primitive.ObjectIDFromHex(entityID)
		if entityType == "" || err != nil {
			envelope.FieldErrors(w, r, map[string]string{
				"entity_type": "entity_type and a valid entity_id must be given together",
			})
			return
		}
		tags, err := store.ListByEntity(ctx, entityType, id)
		if err != nil {
			h.Log.Warn("tag list failed", zap.Error(err))
			envelope.Error(w, r, http.StatusInternalServerError, "database error")
			return
		}
		envelope.Respond(w, r, http.StatusOK, tags)
		return
	}

	params := paging.Parse(r)
	names, total, err := store.Search(ctx, query.Get(r, "query"), params.Limit(), params.Offset())
	if err != nil {
		h.Log.Warn("tag search failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.RespondPage(w, r, names, paging.PaginationFor(params, len(names), total))
}
