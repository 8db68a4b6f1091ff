// internal/app/store/workspaces/workspacestore_test.go
package workspacestore

import (
	"errors"
	"testing"

	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"github.com/dcomingore-pivotal/chorus/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	return store
}

func TestCreateAddsOwnerToMembers(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	ws, err := store.Create(ctx, models.Workspace{Name: "Analytics", OwnerID: owner})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !ws.HasMember(owner) {
		t.Error("owner missing from member list")
	}
	if ws.NameCI == "" {
		t.Error("name_ci not derived")
	}
}

func TestCreateDuplicateName(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	if _, err := store.Create(ctx, models.Workspace{Name: "Sales", OwnerID: owner}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Case-insensitive: the folded name collides.
	_, err := store.Create(ctx, models.Workspace{Name: "SALES", OwnerID: owner})
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("got %v, want ErrDuplicateName", err)
	}
}

func TestArchiveAndUnarchive(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	ws, err := store.Create(ctx, models.Workspace{Name: "Staging", OwnerID: owner})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.Archive(ctx, ws.ID, owner); err != nil {
		t.Fatalf("archive: %v", err)
	}
	got, err := store.GetByID(ctx, ws.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Archived || got.ArchivedAt == nil || got.ArchiverID == nil || *got.ArchiverID != owner {
		t.Errorf("archive state not recorded: %+v", got)
	}

	if err := store.Unarchive(ctx, ws.ID); err != nil {
		t.Fatalf("unarchive: %v", err)
	}
	got, err = store.GetByID(ctx, ws.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Archived || got.ArchivedAt != nil || got.ArchiverID != nil {
		t.Errorf("unarchive did not clear state: %+v", got)
	}
}

func TestAddMemberIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	ws, err := store.Create(ctx, models.Workspace{Name: "Team", OwnerID: owner})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.AddMember(ctx, ws.ID, member); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := store.AddMember(ctx, ws.ID, member); err != nil {
		t.Fatalf("add member again: %v", err)
	}

	got, err := store.GetByID(ctx, ws.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.MemberIDs) != 2 {
		t.Errorf("member list: got %d ids, want 2 (owner + member)", len(got.MemberIDs))
	}
}

func TestRemoveMemberRefusesOwner(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	ws, err := store.Create(ctx, models.Workspace{Name: "Core", OwnerID: owner, MemberIDs: []primitive.ObjectID{member}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.RemoveMember(ctx, ws.ID, member); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if err := store.RemoveMember(ctx, ws.ID, owner); !errors.Is(err, ErrNotFound) {
		t.Errorf("removing owner: got %v, want ErrNotFound", err)
	}

	got, err := store.GetByID(ctx, ws.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.HasMember(owner) {
		t.Error("owner was removed from member list")
	}
	if got.HasMember(member) {
		t.Error("member still in list after removal")
	}
}

func TestVisibleTo(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := models.User{ID: primitive.NewObjectID()}
	member := models.User{ID: primitive.NewObjectID()}
	outsider := models.User{ID: primitive.NewObjectID()}
	admin := models.User{ID: primitive.NewObjectID(), Admin: true}

	if _, err := store.Create(ctx, models.Workspace{Name: "Open", OwnerID: owner.ID, Public: true}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, models.Workspace{Name: "Closed", OwnerID: owner.ID, MemberIDs: []primitive.ObjectID{member.ID}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	cases := []struct {
		name   string
		viewer models.User
		want   int
	}{
		{"outsider", outsider, 1},
		{"member", member, 2},
		{"owner", owner, 2},
		{"admin", admin, 2},
	}
	for _, tc := range cases {
		got, err := store.VisibleTo(ctx, tc.viewer)
		if err != nil {
			t.Fatalf("%s: visible to: %v", tc.name, err)
		}
		if len(got) != tc.want {
			t.Errorf("%s: got %d workspaces, want %d", tc.name, len(got), tc.want)
		}

		ids, err := store.VisibleIDsTo(ctx, tc.viewer)
		if err != nil {
			t.Fatalf("%s: visible ids: %v", tc.name, err)
		}
		if len(ids) != tc.want {
			t.Errorf("%s: got %d ids, want %d", tc.name, len(ids), tc.want)
		}
	}
}
