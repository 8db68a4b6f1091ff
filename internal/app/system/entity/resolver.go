// internal/app/system/entity/resolver.go

// Package entity resolves event target references against the live entity
// store. Display fields (name, type_name, grouping_id) are never frozen
// into the log, so a rename shows up in old events on their next read; the
// price is that every read needs a lookup, and a deleted target degrades to
// a tombstone instead of failing the page.
package entity

import (
	"context"
	"errors"

	datasetstore "github.com/dcomingore-pivotal/chorus/internal/app/store/datasets"
	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
	instancestore "github.com/dcomingore-pivotal/chorus/internal/app/store/instances"
	userstore "github.com/dcomingore-pivotal/chorus/internal/app/store/users"
	workfilestore "github.com/dcomingore-pivotal/chorus/internal/app/store/workfiles"
	workspacestore "github.com/dcomingore-pivotal/chorus/internal/app/store/workspaces"
	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Known entity type tags, as they appear in EntityRef.Type and in API
// entity_type parameters.
const (
	TypeUser      = "user"
	TypeWorkspace = "workspace"
	TypeInstance  = "instance"
	TypeDataset   = "dataset"
	TypeWorkfile  = "workfile"
)

var (
	ErrNotFound    = errors.New("entity not found")
	ErrUnknownType = errors.New("unknown entity type")
)

// Info is the resolved display form of an entity reference.
type Info struct {
	Type string             `json:"entity_type"`
	ID   primitive.ObjectID `json:"entity_id"`

	Name string `json:"name,omitempty"`

	// TypeName and GroupingID are the derived fields note events expose to
	// the search indexer, computed from the target's current state.
	TypeName   string `json:"type_name,omitempty"`
	GroupingID string `json:"grouping_id,omitempty"`

	// Deleted marks a tombstone: the target no longer exists and only the
	// reference itself is known.
	Deleted bool `json:"deleted,omitempty"`

	// WorkspaceID carries the privacy constraint of workspace-scoped
	// targets (datasets in a sandbox, workfiles).
	WorkspaceID *primitive.ObjectID `json:"-"`
}

// Resolver looks entities up by (type, id) across the stores.
type Resolver struct {
	users      *userstore.Store
	workspaces *workspacestore.Store
	instances  *instancestore.Store
	datasets   *datasetstore.Store
	workfiles  *workfilestore.Store
}

func NewResolver(db *mongo.Database) *Resolver {
	return &Resolver{
		users:      userstore.New(db),
		workspaces: workspacestore.New(db),
		instances:  instancestore.New(db),
		datasets:   datasetstore.New(db),
		workfiles:  workfilestore.New(db),
	}
}

// Find resolves a reference to its display info. Returns ErrNotFound when
// the entity has been deleted and ErrUnknownType for a type tag outside the
// known set.
func (r *Resolver) Find(ctx context.Context, ref eventstore.EntityRef) (Info, error) {
	switch ref.Type {
	case TypeUser:
		u, err := r.users.GetByID(ctx, ref.ID)
		if err != nil {
			return Info{}, notFound(err, userstore.ErrNotFound)
		}
		return Info{Type: ref.Type, ID: ref.ID, Name: u.FullName, TypeName: "User", GroupingID: ref.ID.Hex()}, nil

	case TypeWorkspace:
		ws, err := r.workspaces.GetByID(ctx, ref.ID)
		if err != nil {
			return Info{}, notFound(err, workspacestore.ErrNotFound)
		}
		return Info{Type: ref.Type, ID: ref.ID, Name: ws.Name, TypeName: "Workspace", GroupingID: ref.ID.Hex(), WorkspaceID: &ws.ID}, nil

	case TypeInstance:
		inst, err := r.instances.GetByID(ctx, ref.ID)
		if err != nil {
			return Info{}, notFound(err, instancestore.ErrNotFound)
		}
		typeName := "GreenplumInstance"
		if inst.Kind == models.InstanceKindHadoop {
			typeName = "HadoopInstance"
		}
		return Info{Type: ref.Type, ID: ref.ID, Name: inst.Name, TypeName: typeName, GroupingID: ref.ID.Hex()}, nil

	case TypeDataset:
		d, err := r.datasets.GetByID(ctx, ref.ID)
		if err != nil {
			return Info{}, notFound(err, datasetstore.ErrNotFound)
		}
		return Info{
			Type:        ref.Type,
			ID:          ref.ID,
			Name:        d.ObjectName,
			TypeName:    "Dataset",
			GroupingID:  d.InstanceID.Hex(),
			WorkspaceID: d.WorkspaceID,
		}, nil

	case TypeWorkfile:
		wf, err := r.workfiles.GetByID(ctx, ref.ID)
		if err != nil {
			return Info{}, notFound(err, workfilestore.ErrNotFound)
		}
		return Info{
			Type:        ref.Type,
			ID:          ref.ID,
			Name:        wf.FileName,
			TypeName:    "Workfile",
			GroupingID:  wf.WorkspaceID.Hex(),
			WorkspaceID: &wf.WorkspaceID,
		}, nil

	default:
		return Info{}, ErrUnknownType
	}
}

// Resolve is Find with the tombstone fallback applied: a deleted target
// comes back as a placeholder instead of an error, so one dangling
// reference never sinks a whole feed page. Store errors other than
// not-found still propagate.
func (r *Resolver) Resolve(ctx context.Context, ref eventstore.EntityRef) (Info, error) {
	info, err := r.Find(ctx, ref)
	if err == nil {
		return info, nil
	}
	if errors.Is(err, ErrNotFound) {
		return Info{Type: ref.Type, ID: ref.ID, Deleted: true}, nil
	}
	return Info{}, err
}

// notFound maps a store's sentinel to the resolver's ErrNotFound and
// passes everything else through.
func notFound(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return ErrNotFound
	}
	return err
}
