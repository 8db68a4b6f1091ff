// internal/app/features/activities/list.go
package activities

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/entity"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/feed"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/paging"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /activities.
//
// Scope comes from the query string: entity_type+entity_id for an entity
// feed, actor_id for one user's activity, neither for the global feed.
// An optional "filter" restricts results to events whose note body
// contains the text. Every scope is paged with page/per_page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	viewer, ok := auth.CurrentUser(r)
	if !ok {
		envelope.Error(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	scope, ok := h.scopeFromQuery(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := feed.NewAssembler(h.DB).Assemble(ctx, viewer, scope, paging.Parse(r), query.Get(r, "filter"))
	if err != nil {
		h.Log.Warn("feed assembly failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.RespondPage(w, r, page.Items, page.Pagination)
}

// scopeFromQuery parses the feed scope parameters. Writes the error
// response and returns ok=false on invalid input.
func (h *Handler) scopeFromQuery(w http.ResponseWriter, r *http.Request) (feed.Scope, bool) {
	entityType := query.Get(r, "entity_type")
	entityID := query.Get(r, "entity_id")
	actorID := query.Get(r, "actor_id")

	switch {
	case entityType != "" || entityID != "":
		if entityType == "" || entityID == "" {
			envelope.FieldErrors(w, r, map[string]string{
				"entity_type": "entity_type and entity_id must be given together",
			})
			return feed.Scope{}, false
		}
		id, err := primitive.ObjectIDFromHex(entityID)
		if err != nil {
			envelope.FieldErrors(w, r, map[string]string{"entity_id": "must be a valid id"})
			return feed.Scope{}, false
		}
		switch entityType {
		case entity.TypeUser:
			// A user's page shows what they did, not events that merely
			// mention them.
			return feed.ForActor(id), true
		case entity.TypeWorkspace, entity.TypeInstance, entity.TypeDataset, entity.TypeWorkfile:
			return feed.ForEntity(entityType, id), true
		default:
			envelope.FieldErrors(w, r, map[string]string{"entity_type": "unknown entity type"})
			return feed.Scope{}, false
		}

	case actorID != "":
		id, err := primitive.ObjectIDFromHex(actorID)
		if err != nil {
			envelope.FieldErrors(w, r, map[string]string{"actor_id": "must be a valid id"})
			return feed.Scope{}, false
		}
		return feed.ForActor(id), true

	default:
		return feed.Global(), true
	}
}
