// internal/domain/models/workfile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workfile is a file (SQL script, document) kept inside a workspace.
// Version content lives in external file storage; the document tracks only
// metadata and the latest version number.
type Workfile struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`

	FileName    string `bson:"file_name" json:"file_name"`
	FileNameCI  string `bson:"file_name_ci" json:"-"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`

	LatestVersionNum int `bson:"latest_version_num" json:"latest_version_num"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// WorkfileVersion records one saved revision of a workfile. StorageKey is
// the opaque key under which the external file storage holds the content.
type WorkfileVersion struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkfileID primitive.ObjectID `bson:"workfile_id" json:"workfile_id"`
	VersionNum int                `bson:"version_num" json:"version_num"`

	CommitMessage string             `bson:"commit_message,omitempty" json:"commit_message,omitempty"`
	ModifierID    primitive.ObjectID `bson:"modifier_id" json:"modifier_id"`
	StorageKey    string             `bson:"storage_key" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
