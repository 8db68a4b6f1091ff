// internal/app/features/instances/instances.go
package instances

import (
	"context"
	"errors"
	"net/http"
	"strings"

	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
	instancestore "github.com/dcomingore-pivotal/chorus/internal/app/store/instances"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/activity"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/entity"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/envelope"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/timeouts"
	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createRequest struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Description string `json:"description"`
	Shared      bool   `json:"shared"`
}

// HandleCreate handles POST /instances: registers a Greenplum or Hadoop
// instance and announces it in the global feed.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	var req createRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "required"
	}
	if !models.IsValidInstanceKind(req.Kind) {
		fields["kind"] = "must be greenplum or hadoop"
	}
	if len(fields) > 0 {
		envelope.FieldErrors(w, r, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	inst, err := instancestore.New(h.DB).Create(ctx, models.Instance{
		Name:        strings.TrimSpace(req.Name),
		Kind:        req.Kind,
		Host:        req.Host,
		Port:        req.Port,
		Description: req.Description,
		OwnerID:     viewer.ID,
		Shared:      req.Shared,
		Online:      true,
	})
	if err != nil {
		h.Log.Warn("instance create failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	kind := activity.KindGreenplumInstanceCreated
	if inst.Kind == models.InstanceKindHadoop {
		kind = activity.KindHadoopInstanceCreated
	}
	h.emit(ctx, kind, viewer.ID, inst.ID, nil)

	envelope.Respond(w, r, http.StatusCreated, inst)
}

// ServeList handles GET /instances. Instances are global objects, so
// every authenticated viewer sees the full list.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := instancestore.New(h.DB).Find(ctx, bson.M{})
	if err != nil {
		h.Log.Warn("instance list failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	envelope.Respond(w, r, http.StatusOK, list)
}

type renameRequest struct {
	Name string `json:"name"`
}

// HandleRename handles PUT /instances/{id} (owner or admin).
//
// A Greenplum rename is announced globally with both the old and the new
// name, since feeds always render the current name and the event is the
// only record of what it used to be.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	viewer, _ := auth.CurrentUser(r)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		envelope.NotFound(w, r)
		return
	}

	var req renameRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		envelope.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	newName := strings.TrimSpace(req.Name)
	if newName == "" {
		envelope.FieldErrors(w, r, map[string]string{"name": "required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	store := instancestore.New(h.DB)
	inst, err := store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, instancestore.ErrNotFound) {
			envelope.NotFound(w, r)
			return
		}
		h.Log.Warn("instance lookup failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	if inst.OwnerID != viewer.ID && !viewer.Admin {
		envelope.Forbidden(w, r)
		return
	}

	if newName == inst.Name {
		envelope.Respond(w, r, http.StatusOK, inst)
		return
	}

	if err := store.Rename(ctx, id, newName); err != nil {
		h.Log.Warn("instance rename failed", zap.Error(err))
		envelope.Error(w, r, http.StatusInternalServerError, "database error")
		return
	}

	if inst.Kind == models.InstanceKindGreenplum {
		h.emit(ctx, activity.KindGreenplumInstanceChangedName, viewer.ID, inst.ID, map[string]string{
			"old_name": inst.Name,
			"new_name": newName,
		})
	}

	inst.Name = newName
	envelope.Respond(w, r, http.StatusOK, inst)
}

// emit records an instance lifecycle event. Failures are logged, never
// surfaced: the instance change itself has already committed.
func (h *Handler) emit(ctx context.Context, kind string, actorID, instanceID primitive.ObjectID, data map[string]string) {
	targets := map[string]eventstore.EntityRef{
		eventstore.RoleInstance: {Type: entity.TypeInstance, ID: instanceID},
	}
	if _, err := h.Emitter.Emit(ctx, kind, actorID, targets, data); err != nil {
		h.Log.Error("instance event emission failed",
			zap.String("kind", kind),
			zap.String("instance_id", instanceID.Hex()),
			zap.Error(err))
	}
}
