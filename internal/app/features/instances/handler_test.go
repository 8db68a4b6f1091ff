// internal/app/features/instances/handler_test.go
package instances

import (
	"net/http"
	"net/http/httptest"
	"testing"

	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
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

func TestCreateAnnouncesByKind(t *testing.T) {
	h, fix := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fix.CreateUser(ctx, "owner")

	cases := []struct {
		kind string
		want string
	}{
		{"greenplum", activity.KindGreenplumInstanceCreated},
		{"hadoop", activity.KindHadoopInstanceCreated},
	}
	for _, tc := range cases {
		req := testutil.AuthedJSONRequest(t, http.MethodPost, "/instances", owner, map[string]any{
			"name": "warehouse-" + tc.kind,
			"kind": tc.kind,
			"host": "db.example",
			"port": 5432,
		})
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("%s: got %d (body: %s)", tc.kind, rec.Code, rec.Body.String())
		}
		var inst models.Instance
		testutil.DecodeResponse(t, rec, &inst)

		events, err := eventstore.New(h.DB).Page(ctx, eventstore.Query{ViewerIsAdmin: true, Limit: 10})
		if err != nil {
			t.Fatalf("page events: %v", err)
		}
		found := false
		for _, e := range events {
			if e.Kind == tc.want && e.Targets[eventstore.RoleInstance].ID == inst.ID {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: no %s event for instance %s", tc.kind, tc.want, inst.ID.Hex())
		}
	}
}

func TestCreateValidation(t *testing.T) {
	h, fix := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := fix.CreateUser(ctx, "owner")

	req := testutil.AuthedJSONRequest(t, http.MethodPost, "/instances", owner, map[string]any{
		"name": "   ",
		"kind": "oracle",
	})
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("got %d, want 422 (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestRenameAuthorization(t *testing.T) {
	h, fix := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fix.CreateUser(ctx, "owner")
	stranger := fix.CreateUser(ctx, "stranger")
	admin := fix.CreateAdmin(ctx, "root")
	inst := fix.CreateInstance(ctx, "old-name", "greenplum", owner)

	rename := func(as models.User, name string) *httptest.ResponseRecorder {
		req := testutil.AuthedJSONRequest(t, http.MethodPut, "/instances/"+inst.ID.Hex(), as, map[string]string{"name": name})
		req = testutil.WithChiURLParam(req, "id", inst.ID.Hex())
		rec := httptest.NewRecorder()
		h.HandleRename(rec, req)
		return rec
	}

	if rec := rename(stranger, "hijacked"); rec.Code != http.StatusForbidden {
		t.Fatalf("stranger rename: got %d, want 403", rec.Code)
	}
	if rec := rename(owner, "warehouse-prod"); rec.Code != http.StatusOK {
		t.Fatalf("owner rename: got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if rec := rename(admin, "warehouse-main"); rec.Code != http.StatusOK {
		t.Fatalf("admin rename: got %d", rec.Code)
	}
}

func TestGreenplumRenameRecordsBothNames(t *testing.T) {
	h, fix := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fix.CreateUser(ctx, "owner")
	inst := fix.CreateInstance(ctx, "gp-staging", "greenplum", owner)

	req := testutil.AuthedJSONRequest(t, http.MethodPut, "/instances/"+inst.ID.Hex(), owner, map[string]string{"name": "gp-prod"})
	req = testutil.WithChiURLParam(req, "id", inst.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleRename(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: got %d", rec.Code)
	}

	events, err := eventstore.New(h.DB).Page(ctx, eventstore.Query{ViewerIsAdmin: true, Limit: 10})
	if err != nil {
		t.Fatalf("page events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.Kind != activity.KindGreenplumInstanceChangedName {
		t.Fatalf("kind: got %s", e.Kind)
	}
	if e.Data["old_name"] != "gp-staging" || e.Data["new_name"] != "gp-prod" {
		t.Errorf("data: got %v", e.Data)
	}
}

func TestHadoopRenameIsSilent(t *testing.T) {
	h, fix := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fix.CreateUser(ctx, "owner")
	inst := fix.CreateInstance(ctx, "hd-cluster", "hadoop", owner)

	req := testutil.AuthedJSONRequest(t, http.MethodPut, "/instances/"+inst.ID.Hex(), owner, map[string]string{"name": "hd-main"})
	req = testutil.WithChiURLParam(req, "id", inst.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleRename(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: got %d", rec.Code)
	}

	events, err := eventstore.New(h.DB).Page(ctx, eventstore.Query{ViewerIsAdmin: true, Limit: 10})
	if err != nil {
		t.Fatalf("page events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want none for a hadoop rename", len(events))
	}
}
