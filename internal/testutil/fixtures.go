// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates a test user with the given username. The full name is
// derived from the username.
func (f *Fixtures) CreateUser(ctx context.Context, username string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		Username:   username,
		FullName:   "Test " + username,
		FullNameCI: text.Fold("Test " + username),
		Email:      username + "@test.example",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("create user %q: %v", username, err)
	}
	return user
}

// CreateAdmin creates a test user with the global admin flag set.
func (f *Fixtures) CreateAdmin(ctx context.Context, username string) models.User {
	f.t.Helper()

	user := f.CreateUser(ctx, username)
	user.Admin = true
	if _, err := f.db.Collection("users").ReplaceOne(ctx, primitive.M{"_id": user.ID}, user); err != nil {
		f.t.Fatalf("promote user %q to admin: %v", username, err)
	}
	return user
}

// CreateWorkspace creates a workspace owned by owner. Additional members
// can be passed; the owner is always a member.
func (f *Fixtures) CreateWorkspace(ctx context.Context, name string, public bool, owner models.User, members ...models.User) models.Workspace {
	f.t.Helper()

	memberIDs := []primitive.ObjectID{owner.ID}
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
	}

	now := time.Now().UTC()
	ws := models.Workspace{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		OwnerID:   owner.ID,
		MemberIDs: memberIDs,
		Public:    public,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("workspaces").InsertOne(ctx, ws); err != nil {
		f.t.Fatalf("create workspace %q: %v", name, err)
	}
	return ws
}

// CreateInstance creates an instance of the given kind owned by owner.
func (f *Fixtures) CreateInstance(ctx context.Context, name, kind string, owner models.User) models.Instance {
	f.t.Helper()

	now := time.Now().UTC()
	inst := models.Instance{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Kind:      kind,
		Host:      "test-host.example",
		Port:      5432,
		OwnerID:   owner.ID,
		Online:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("instances").InsertOne(ctx, inst); err != nil {
		f.t.Fatalf("create instance %q: %v", name, err)
	}
	return inst
}

// CreateDataset creates a table dataset on the given instance. Pass a
// non-nil workspaceID to make it a sandboxed dataset.
func (f *Fixtures) CreateDataset(ctx context.Context, inst models.Instance, objectName string, workspaceID *primitive.ObjectID) models.Dataset {
	f.t.Helper()

	now := time.Now().UTC()
	ds := models.Dataset{
		ID:           primitive.NewObjectID(),
		InstanceID:   inst.ID,
		DatabaseName: "testdb",
		SchemaName:   "public",
		ObjectName:   objectName,
		ObjectNameCI: text.Fold(objectName),
		ObjectType:   models.DatasetTypeTable,
		WorkspaceID:  workspaceID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("datasets").InsertOne(ctx, ds); err != nil {
		f.t.Fatalf("create dataset %q: %v", objectName, err)
	}
	return ds
}

// CreateWorkfile creates a workfile in the given workspace owned by owner.
func (f *Fixtures) CreateWorkfile(ctx context.Context, ws models.Workspace, fileName string, owner models.User) models.Workfile {
	f.t.Helper()

	now := time.Now().UTC()
	wf := models.Workfile{
		ID:          primitive.NewObjectID(),
		WorkspaceID: ws.ID,
		OwnerID:     owner.ID,
		FileName:    fileName,
		FileNameCI:  text.Fold(fileName),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("workfiles").InsertOne(ctx, wf); err != nil {
		f.t.Fatalf("create workfile %q: %v", fileName, err)
	}
	return wf
}
