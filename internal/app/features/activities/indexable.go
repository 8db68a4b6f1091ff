// internal/app/features/activities/indexable.go
package activities

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/feed"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/timeouts"
	"go.uber.org/zap"
)

const defaultIndexBatch = 500

// ServeIndexable handles GET /activities/indexable (admin only).
//
// The external search indexer polls this with its last-seen event id:
// ?since_id=N&limit=M returns up to M indexable events appended after N,
// oldest first. An empty response means the indexer is caught up.
func (h *Handler) ServeIndexable(w http.ResponseWriter, r *http.Request) {
	sinceID, _ := strconv.ParseInt(query.Get(r, "since_id"), 10, 64)
	limit, _ := strconv.ParseInt(query.Get(r, "limit"), 10, 64)
	if limit <= 0 || limit > defaultIndexBatch {
		limit = defaultIndexBatch
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	entries, err := feed.NewAssembler(h.DB).IndexFeed(ctx, sinceID, limit)
	if err != nil {
		h.Log.Warn("index feed failed", zap.Int64("since_id", sinceID), zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusOK, entries)
}
