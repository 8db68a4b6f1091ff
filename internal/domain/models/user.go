// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account that can own workspaces, author notes, and
// appear as the actor on activity events.
//
// NOTE:
//   - Workspace membership is not embedded on User. The member list lives
//     on the workspace document and is the single source of truth.
//   - Admin is a global flag: admins see every workspace and every feed.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`

	Admin bool `bson:"admin" json:"admin"`

	// PasswordHash is a bcrypt hash. Never serialized.
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"-"`
}

// Deleted reports whether the user has been soft-deleted.
func (u User) Deleted() bool {
	return u.DeletedAt != nil
}
