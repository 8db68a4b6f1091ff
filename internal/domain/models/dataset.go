// internal/domain/models/dataset.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dataset object types, matching what the source database reports.
const (
	DatasetTypeTable = "TABLE"
	DatasetTypeView  = "VIEW"
)

// Dataset is a table or view discovered on an instance. A dataset is global
// by default; when it has been associated with a workspace sandbox,
// WorkspaceID is set and notes on it inherit that workspace's privacy.
type Dataset struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InstanceID primitive.ObjectID `bson:"instance_id" json:"instance_id"`

	DatabaseName string `bson:"database_name" json:"database_name"`
	SchemaName   string `bson:"schema_name" json:"schema_name"`
	ObjectName   string `bson:"object_name" json:"object_name"`
	ObjectNameCI string `bson:"object_name_ci" json:"-"`
	ObjectType   string `bson:"object_type" json:"object_type"` // TABLE | VIEW

	WorkspaceID *primitive.ObjectID `bson:"workspace_id,omitempty" json:"workspace_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// WorkspaceScoped reports whether the dataset belongs to a workspace sandbox.
func (d Dataset) WorkspaceScoped() bool {
	return d.WorkspaceID != nil
}
