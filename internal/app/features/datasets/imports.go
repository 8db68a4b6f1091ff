// internal/app/features/datasets/imports.go
package datasets

import (
	"context"
	"errors"
	"net/http"
	"strings"

	datasetstore "github.com/dcomingore-pivotal/chorus/internal/app/store/datasets"
	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
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

type importRequest struct {
	DestinationTable string `json:"destination_table"`
}

type importResultRequest struct {
	DestinationTable string `json:"destination_table"`
	Success          bool   `json:"success"`
	ErrorMessage     string `json:"error_message"`
}

// HandleImportCreate handles POST /datasets/{id}/imports: records that an
// import of a sandboxed dataset into a destination table has started. The
// dataset must already belong to a workspace sandbox and the caller must
// be able to modify that workspace.
func (h *Handler) HandleImportCreate(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	var req importRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.DestinationTable) == "" {
		envelope.FieldErrors(w, r, map[string]string{"destination_table": "required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, ok := h.loadSandboxedDataset(ctx, w, r, viewer)
	if !ok {
		return
	}

	event, err := h.Emitter.Emit(ctx, activity.KindDatasetImportCreated, viewer.ID,
		importTargets(d), map[string]string{"destination_table": req.DestinationTable})
	if err != nil {
		h.Log.Error("import event emission failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusCreated, event)
}

// HandleImportResult handles PUT /datasets/{id}/imports/result: records the
// outcome of a previously announced import.
func (h *Handler) HandleImportResult(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	var req importResultRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	fields := map[string]string{}
	if strings.TrimSpace(req.DestinationTable) == "" {
		fields["destination_table"] = "required"
	}
	if !req.Success && strings.TrimSpace(req.ErrorMessage) == "" {
		fields["error_message"] = "required when success is false"
	}
	if len(fields) > 0 {
		envelope.FieldErrors(w, r, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, ok := h.loadSandboxedDataset(ctx, w, r, viewer)
	if !ok {
		return
	}

	kind := activity.KindDatasetImportSuccess
	data := map[string]string{"destination_table": req.DestinationTable}
	if !req.Success {
		kind = activity.KindDatasetImportFailed
		data["error_message"] = req.ErrorMessage
	}

	event, err := h.Emitter.Emit(ctx, kind, viewer.ID, importTargets(d), data)
	if err != nil {
		h.Log.Error("import result emission failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusCreated, event)
}

// loadSandboxedDataset resolves {id} to a dataset that belongs to a
// workspace sandbox the viewer may modify. Writes the error response and
// returns ok=false otherwise.
func (h *Handler) loadSandboxedDataset(ctx context.Context, w http.ResponseWriter, r *http.Request, viewer models.User) (models.Dataset, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		envelope.NotFound(w, r)
		return models.Dataset{}, false
	}

	d, err := datasetstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, datasetstore.ErrNotFound) {
			envelope.NotFound(w, r)
			return models.Dataset{}, false
		}
		h.Log.Warn("dataset lookup failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return models.Dataset{}, false
	}
	if !d.WorkspaceScoped() {
		envelope.Error(w, r, http.StatusUnprocessableEntity, "dataset is not in a workspace sandbox")
		return models.Dataset{}, false
	}
	if _, ok := h.requireWorkspaceMember(ctx, w, r, viewer, *d.WorkspaceID); !ok {
		return models.Dataset{}, false
	}
	return d, true
}

func importTargets(d models.Dataset) map[string]eventstore.EntityRef {
	return map[string]eventstore.EntityRef{
		eventstore.RoleWorkspace: {Type: entity.TypeWorkspace, ID: *d.WorkspaceID},
		eventstore.RoleDataset:   {Type: entity.TypeDataset, ID: d.ID},
	}
}
