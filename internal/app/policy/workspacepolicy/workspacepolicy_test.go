// internal/app/policy/workspacepolicy/workspacepolicy_test.go
package workspacepolicy

import (
	"testing"

	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func user() models.User {
	return models.User{ID: primitive.NewObjectID()}
}

func admin() models.User {
	return models.User{ID: primitive.NewObjectID(), Admin: true}
}

func workspace(owner models.User, public bool, members ...models.User) models.Workspace {
	ids := []primitive.ObjectID{owner.ID}
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return models.Workspace{
		ID:        primitive.NewObjectID(),
		Name:      "test",
		OwnerID:   owner.ID,
		MemberIDs: ids,
		Public:    public,
	}
}

func TestCanView(t *testing.T) {
	owner := user()
	member := user()
	outsider := user()

	private := workspace(owner, false, member)
	public := workspace(owner, true)

	cases := []struct {
		name   string
		viewer models.User
		ws     models.Workspace
		want   bool
	}{
		{"owner sees private", owner, private, true},
		{"member sees private", member, private, true},
		{"outsider blocked from private", outsider, private, false},
		{"outsider sees public", outsider, public, true},
		{"admin sees private", admin(), private, true},
	}
	for _, tc := range cases {
		if got := CanView(tc.viewer, tc.ws); got != tc.want {
			t.Errorf("%s: CanView = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanModifyWorkfiles(t *testing.T) {
	owner := user()
	member := user()
	outsider := user()

	ws := workspace(owner, true, member)

	if !CanModifyWorkfiles(owner, ws) {
		t.Error("owner should modify workfiles")
	}
	if !CanModifyWorkfiles(member, ws) {
		t.Error("member should modify workfiles")
	}
	if CanModifyWorkfiles(outsider, ws) {
		t.Error("outsider should not modify workfiles, even in a public workspace")
	}
}

func TestArchivedBlocksWorkfileChangesForEveryone(t *testing.T) {
	owner := user()
	member := user()

	ws := workspace(owner, false, member)
	ws.Archived = true

	if CanModifyWorkfiles(owner, ws) {
		t.Error("owner should not modify workfiles in an archived workspace")
	}
	if CanModifyWorkfiles(member, ws) {
		t.Error("member should not modify workfiles in an archived workspace")
	}
	// Viewing is unaffected by archival.
	if !CanView(member, ws) {
		t.Error("member should still view an archived workspace")
	}
}

func TestCanAdminister(t *testing.T) {
	owner := user()
	member := user()

	ws := workspace(owner, false, member)

	if !CanAdminister(owner, ws) {
		t.Error("owner should administer")
	}
	if CanAdminister(member, ws) {
		t.Error("plain member should not administer")
	}
	if !CanAdminister(admin(), ws) {
		t.Error("admin should administer any workspace")
	}
}

func TestMembersVisibleTo(t *testing.T) {
	owner := user()
	member := user()
	outsider := user()

	private := workspace(owner, false, member)

	if got := MembersVisibleTo(outsider, private); got != nil {
		t.Errorf("outsider should see no members of a private workspace, got %v", got)
	}
	if got := MembersVisibleTo(member, private); len(got) != 2 {
		t.Errorf("member should see the full list, got %d ids", len(got))
	}
	if got := MembersVisibleTo(admin(), private); len(got) != 2 {
		t.Errorf("admin should see the full list, got %d ids", len(got))
	}
}
