// internal/app/store/users/userstore_test.go
package userstore

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

func TestCreateNormalizes(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{
		Username: "  Amahlig  ",
		FullName: "  Anita Mahlig ",
		Email:    " Anita@Example.COM ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Username != "amahlig" {
		t.Errorf("username: got %q", u.Username)
	}
	if u.FullName != "Anita Mahlig" {
		t.Errorf("full name: got %q", u.FullName)
	}
	if u.Email != "anita@example.com" {
		t.Errorf("email: got %q", u.Email)
	}
	if u.FullNameCI == "" {
		t.Error("full_name_ci not derived")
	}
}

func TestCreateRequiresUsername(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Username: "   "}); err == nil {
		t.Fatal("expected error for blank username")
	}
}

func TestCreateDuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Username: "dup", FullName: "One"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := store.Create(ctx, models.User{Username: "DUP", FullName: "Two"})
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("got %v, want ErrDuplicateUsername", err)
	}
}

func TestCheckPassword(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{Username: "pwuser", FullName: "PW User"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.SetPassword(ctx, u.ID, "correct horse"); err != nil {
		t.Fatalf("set password: %v", err)
	}

	got, err := store.CheckPassword(ctx, "pwuser", "correct horse")
	if err != nil {
		t.Fatalf("check password: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("got user %s, want %s", got.ID.Hex(), u.ID.Hex())
	}

	if _, err := store.CheckPassword(ctx, "pwuser", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("wrong password: got %v, want ErrBadCredentials", err)
	}
	if _, err := store.CheckPassword(ctx, "nobody", "whatever"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user: got %v, want ErrNotFound", err)
	}
}

func TestSoftDeleteHidesUser(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{Username: "gone", FullName: "Going Gone"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.SoftDelete(ctx, u.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := store.GetByID(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: got %v, want ErrNotFound", err)
	}
	if _, err := store.GetByUsername(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get by username after delete: got %v, want ErrNotFound", err)
	}

	// The session fetcher sees the same tombstone.
	fetcher := &Fetcher{s: store}
	if _, err := fetcher.FetchUser(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("fetch after delete: got %v, want ErrNotFound", err)
	}
}

func TestGetManyByIDSkipsMissingAndDeleted(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	alive, err := store.Create(ctx, models.User{Username: "alive", FullName: "Alive"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	dead, err := store.Create(ctx, models.User{Username: "dead", FullName: "Dead"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.SoftDelete(ctx, dead.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	got, err := store.GetManyByID(ctx, []primitive.ObjectID{alive.ID, dead.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("get many: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d users, want 1", len(got))
	}
	if _, ok := got[alive.ID]; !ok {
		t.Error("live user missing from batch result")
	}
}
