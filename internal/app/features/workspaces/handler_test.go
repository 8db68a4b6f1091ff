// internal/app/features/workspaces/handler_test.go
package workspaces

import (
	"net/http"
	"net/http/httptest"
	"testing"

	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
	workspacestore "github.com/dcomingore-pivotal/chorus/internal/app/store/workspaces"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/activity"
	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"github.com/dcomingore-pivotal/chorus/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	emitter := activity.NewEmitter(eventstore.New(db), logger, activity.LogDB)
	return NewHandler(db, emitter, logger), testutil.NewFixtures(t, db)
}

func TestHandleCreate(t *testing.T) {
	h, fix := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	viewer := fix.CreateUser(ctx, "creator")

	req := testutil.AuthedJSONRequest(t, http.MethodPost, "/workspaces", viewer, map[string]any{
		"name":    "New Workspace",
		"summary": "for testing",
		"public":  true,
	})
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (body: %s)", rec.Code, rec.Body.String())
	}

	var ws models.Workspace
	testutil.DecodeResponse(t, rec, &ws)
	if ws.Name != "New Workspace" || !ws.Public {
		t.Errorf("workspace: %+v", ws)
	}
	if ws.OwnerID != viewer.ID || !ws.HasMember(viewer.ID) {
		t.Error("creator should be owner and member")
	}

	// Creation lands in the global feed.
	events, err := eventstore.New(h.DB).Page(ctx, eventstore.Query{Global: true, ViewerIsAdmin: true})
	if err != nil {
		t.Fatalf("page events: %v", err)
	}
	if len(events) != 1 || events[0].Kind != activity.KindWorkspaceCreated {
		t.Errorf("events: %+v", events)
	}
}

func TestHandleCreateValidation(t *testing.T) {
	h, fix := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	viewer := fix.CreateUser(ctx, "creator")

	req := testutil.AuthedJSONRequest(t, http.MethodPost, "/workspaces", viewer, map[string]any{"name": "   "})
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("blank name: got %d, want 422", rec.Code)
	}

	// Duplicate name needs the unique index in place.
	if err := workspacestore.New(h.DB).EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	fix.CreateWorkspace(ctx, "Taken", false, viewer)

	req = testutil.AuthedJSONRequest(t, http.MethodPost, "/workspaces", viewer, map[string]any{"name": "taken"})
	rec = httptest.NewRecorder()
	h.HandleCreate(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("duplicate name: got %d, want 422 (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestServeViewHidesPrivateWorkspace(t *testing.T) {
	h, fix := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := fix.CreateUser(ctx, "owner")
	outsider := fix.CreateUser(ctx, "outsider")
	ws := fix.CreateWorkspace(ctx, "Hidden", false, owner)

	req := testutil.AuthedRequest(http.MethodGet, "/workspaces/"+ws.ID.Hex(), outsider)
	req = testutil.WithChiURLParam(req, "id", ws.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeView(rec, req)

	// 404, not 403: existence is not confirmed.
	if rec.Code != http.StatusNotFound {
		t.Errorf("outsider view: got %d, want 404", rec.Code)
	}

	req = testutil.AuthedRequest(http.MethodGet, "/workspaces/"+ws.ID.Hex(), owner)
	req = testutil.WithChiURLParam(req, "id", ws.ID.Hex())
	rec = httptest.NewRecorder()
	h.ServeView(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("owner view: got %d, want 200", rec.Code)
	}
}

func TestMemberAdministration(t *testing.T) {
	h, fix := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := fix.CreateUser(ctx, "owner")
	member := fix.CreateUser(ctx, "member")
	recruit := fix.CreateUser(ctx, "recruit")
	ws := fix.CreateWorkspace(ctx, "Team", false, owner, member)

	// A plain member cannot add members.
	req := testutil.AuthedJSONRequest(t, http.MethodPost, "/workspaces/"+ws.ID.Hex()+"/members", member, map[string]any{
		"user_ids": []string{recruit.ID.Hex()},
	})
	req = testutil.WithChiURLParam(req, "id", ws.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleAddMembers(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("member adding members: got %d, want 403", rec.Code)
	}

	// The owner can.
	req = testutil.AuthedJSONRequest(t, http.MethodPost, "/workspaces/"+ws.ID.Hex()+"/members", owner, map[string]any{
		"user_ids": []string{recruit.ID.Hex()},
	})
	req = testutil.WithChiURLParam(req, "id", ws.ID.Hex())
	rec = httptest.NewRecorder()
	h.HandleAddMembers(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner adding members: got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var fresh models.Workspace
	testutil.DecodeResponse(t, rec, &fresh)
	if !fresh.HasMember(recruit.ID) {
		t.Error("recruit not added")
	}

	// The owner cannot be removed.
	req = testutil.AuthedRequest(http.MethodDelete, "/workspaces/"+ws.ID.Hex()+"/members/"+owner.ID.Hex(), owner)
	req = testutil.WithChiURLParam(req, "id", ws.ID.Hex())
	req = testutil.WithChiURLParam(req, "userID", owner.ID.Hex())
	rec = httptest.NewRecorder()
	h.HandleRemoveMember(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("removing owner: got %d, want 422", rec.Code)
	}
}

func TestServeMembersInvisibleToOutsiders(t *testing.T) {
	h, fix := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := fix.CreateUser(ctx, "owner")
	outsider := fix.CreateUser(ctx, "outsider")
	ws := fix.CreateWorkspace(ctx, "Private", false, owner)

	req := testutil.AuthedRequest(http.MethodGet, "/workspaces/"+ws.ID.Hex()+"/members", outsider)
	req = testutil.WithChiURLParam(req, "id", ws.ID.Hex())
	rec := httptest.NewRecorder()
	h.ServeMembers(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("outsider member list: got %d, want 404", rec.Code)
	}

	req = testutil.AuthedRequest(http.MethodGet, "/workspaces/"+ws.ID.Hex()+"/members", owner)
	req = testutil.WithChiURLParam(req, "id", ws.ID.Hex())
	rec = httptest.NewRecorder()
	h.ServeMembers(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner member list: got %d", rec.Code)
	}
	var members []models.User
	testutil.DecodeResponse(t, rec, &members)
	if len(members) != 1 || members[0].ID != owner.ID {
		t.Errorf("members: %+v", members)
	}
}
