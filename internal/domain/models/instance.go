// internal/domain/models/instance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Instance kinds. The kind decides which note event a comment on the
// instance turns into and which display type_name the feed renders.
const (
	InstanceKindGreenplum = "greenplum"
	InstanceKindHadoop    = "hadoop"
)

// Instance represents a registered database instance (Greenplum or Hadoop).
// Instances are global objects: they carry no workspace scoping, so notes on
// them are visible to any authenticated viewer.
type Instance struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
	Kind string             `bson:"kind" json:"kind"` // greenplum | hadoop

	Host string `bson:"host" json:"host"`
	Port int    `bson:"port" json:"port"`

	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Shared      bool               `bson:"shared" json:"shared"`
	Online      bool               `bson:"online" json:"online"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsValidInstanceKind checks if a value is a known instance kind.
func IsValidInstanceKind(kind string) bool {
	return kind == InstanceKindGreenplum || kind == InstanceKindHadoop
}
