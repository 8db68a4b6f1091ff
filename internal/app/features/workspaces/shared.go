// internal/app/features/workspaces/shared.go
package workspaces

import (
	"context"
	"errors"
	"net/http"

	workspacestore "github.com/dcomingore-pivotal/chorus/internal/app/store/workspaces"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// loadWorkspace resolves the {id} URL param to a workspace document.
// Writes the error response and returns ok=false when it cannot.
func (h *Handler) loadWorkspace(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Workspace, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		envelope.NotFound(w, r)
		return models.Workspace{}, false
	}

	ws, err := workspacestore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			envelope.NotFound(w, r)
			return models.Workspace{}, false
		}
		h.Log.Warn("workspace lookup failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return models.Workspace{}, false
	}
	return ws, true
}
