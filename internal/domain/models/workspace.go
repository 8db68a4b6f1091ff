// internal/domain/models/workspace.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workspace is the unit of collaboration and of visibility. Datasets,
// workfiles, and most activity events are scoped to a workspace, and the
// permission layer answers every visibility question in terms of the
// workspace's public flag, owner, and member list.
//
// NOTE:
//   - MemberIDs is owned by the workspace document and mutated only through
//     the workspace store's AddMember/RemoveMember (single atomic update),
//     so permission checks never observe a half-applied membership change.
//   - Archived is terminal but reversible: Unarchive clears it.
type Workspace struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"` // case-insensitive for search
	Summary string            `bson:"summary,omitempty" json:"summary,omitempty"`

	OwnerID   primitive.ObjectID   `bson:"owner_id" json:"owner_id"`
	MemberIDs []primitive.ObjectID `bson:"member_ids" json:"member_ids"`

	Public   bool `bson:"public" json:"public"`
	Archived bool `bson:"archived" json:"archived"`

	ArchivedAt *time.Time          `bson:"archived_at,omitempty" json:"archived_at,omitempty"`
	ArchiverID *primitive.ObjectID `bson:"archiver_id,omitempty" json:"archiver_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasMember reports whether userID is in the workspace member list.
// The owner is always kept in MemberIDs, so this covers ownership too.
func (w Workspace) HasMember(userID primitive.ObjectID) bool {
	for _, id := range w.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
