// internal/app/features/datasets/datasets.go
package datasets

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dcomingore-pivotal/chorus/internal/app/policy/workspacepolicy"
	datasetstore "github.com/dcomingore-pivotal/chorus/internal/app/store/datasets"
	instancestore "github.com/dcomingore-pivotal/chorus/internal/app/store/instances"
	workspacestore "github.com/dcomingore-pivotal/chorus/internal/app/store/workspaces"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/paging"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/timeouts"
	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createRequest struct {
	InstanceID   string `json:"instance_id"`
	DatabaseName string `json:"database_name"`
	SchemaName   string `json:"schema_name"`
	ObjectName   string `json:"object_name"`
	ObjectType   string `json:"object_type"`
}

// HandleCreate handles POST /datasets: registers a table or view
// discovered on an instance.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := map[string]string{}
	instanceID, err := primitive.ObjectIDFromHex(req.InstanceID)
	if err != nil {
		fields["instance_id"] = "must be a valid id"
	}
	if strings.TrimSpace(req.ObjectName) == "" {
		fields["object_name"] = "required"
	}
	if req.ObjectType != models.DatasetTypeTable && req.ObjectType != models.DatasetTypeView {
		fields["object_type"] = "must be TABLE or VIEW"
	}
	if len(fields) > 0 {
		envelope.FieldErrors(w, r, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := instancestore.New(h.DB).GetByID(ctx, instanceID); err != nil {
		if errors.Is(err, instancestore.ErrNotFound) {
			envelope.NotFound(w, r)
			return
		}
		h.Log.Warn("instance lookup failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	d, err := datasetstore.New(h.DB).Create(ctx, models.Dataset{
		InstanceID:   instanceID,
		DatabaseName: req.DatabaseName,
		SchemaName:   req.SchemaName,
		ObjectName:   strings.TrimSpace(req.ObjectName),
		ObjectType:   req.ObjectType,
	})
	if err != nil {
		h.Log.Warn("dataset create failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusCreated, d)
}

// ServeList handles GET /datasets?instance_id=&schema_name=&name=: datasets
// on one instance schema, filtered by name, paged.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	instanceID, err := primitive.ObjectIDFromHex(query.Get(r, "instance_id"))
	if err != nil {
		envelope.FieldErrors(w, r, map[string]string{"instance_id": "must be a valid id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	params := paging.Parse(r)
	list, err := datasetstore.New(h.DB).ListBySchema(ctx, instanceID,
		query.Get(r, "schema_name"), query.Get(r, "name"), params.Limit(), params.Offset())
	if err != nil {
		h.Log.Warn("dataset list failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.RespondPage(w, r, list, paging.PaginationFor(params, len(list), params.Offset()+int64(len(list))))
}

type associateRequest struct {
	WorkspaceID string `json:"workspace_id"`
}

// HandleAssociate handles PUT /datasets/{id}/workspace: pulls a dataset
// into a workspace sandbox. From then on notes on the dataset inherit the
// workspace's privacy.
func (h *Handler) HandleAssociate(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	datasetID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		envelope.NotFound(w, r)
		return
	}

	var req associateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	workspaceID, err := primitive.ObjectIDFromHex(req.WorkspaceID)
	if err != nil {
		envelope.FieldErrors(w, r, map[string]string{"workspace_id": "must be a valid id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ws, ok := h.requireWorkspaceMember(ctx, w, r, viewer, workspaceID)
	if !ok {
		return
	}

	store := datasetstore.New(h.DB)
	if err := store.AssociateWorkspace(ctx, datasetID, ws.ID); err != nil {
		if errors.Is(err, datasetstore.ErrNotFound) {
			envelope.NotFound(w, r)
			return
		}
		h.Log.Warn("dataset association failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	d, err := store.GetByID(ctx, datasetID)
	if err != nil {
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}
	envelope.Respond(w, r, http.StatusOK, d)
}

// requireWorkspaceMember enforces modify access to the workspace: a
// member, and the workspace not archived. Writes the error response and
// returns ok=false on denial.
func (h *Handler) requireWorkspaceMember(ctx context.Context, w http.ResponseWriter, r *http.Request, viewer models.User, workspaceID primitive.ObjectID) (models.Workspace, bool) {
	ws, err := workspacestore.New(h.DB).GetByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, workspacestore.ErrNotFound) {
			envelope.NotFound(w, r)
			return models.Workspace{}, false
		}
		h.Log.Warn("workspace lookup failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return models.Workspace{}, false
	}
	if !workspacepolicy.CanView(viewer, ws) {
		envelope.NotFound(w, r)
		return models.Workspace{}, false
	}
	if !workspacepolicy.CanModifyWorkfiles(viewer, ws) {
		envelope.Forbidden(w, r)
		return models.Workspace{}, false
	}
	return ws, true
}
