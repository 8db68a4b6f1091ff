// internal/app/features/comments/handler_test.go
package comments

import (
	"net/http"
	"net/http/httptest"
	"testing"

	commentstore "github.com/dcomingore-pivotal/chorus/internal/app/store/comments"
	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/activity"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/entity"
	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"github.com/dcomingore-pivotal/chorus/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewHandler(db, zap.NewNop()), testutil.NewFixtures(t, db)
}

func emitNote(t *testing.T, db *mongo.Database, actor models.User, ws models.Workspace) eventstore.Event {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	em := activity.NewEmitter(eventstore.New(db), zap.NewNop(), activity.LogDB)
	event, err := em.Emit(ctx, activity.KindNoteOnWorkspace, actor.ID, map[string]eventstore.EntityRef{
		eventstore.RoleTarget1:   {Type: entity.TypeWorkspace, ID: ws.ID},
		eventstore.RoleWorkspace: {Type: entity.TypeWorkspace, ID: ws.ID},
	}, map[string]string{"body": "a note"})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	return event
}

func TestCommentRequiresEventVisibility(t *testing.T) {
	h, fix := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := fix.CreateUser(ctx, "owner")
	member := fix.CreateUser(ctx, "member")
	outsider := fix.CreateUser(ctx, "outsider")
	ws := fix.CreateWorkspace(ctx, "Private", false, owner, member)

	event := emitNote(t, h.DB, owner, ws)

	// Commenting on an invisible event 404s, same as a missing one.
	req := testutil.AuthedJSONRequest(t, http.MethodPost, "/comments", outsider, map[string]any{
		"event_id": event.ID,
		"body":     "drive-by",
	})
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("outsider comment: got %d, want 404", rec.Code)
	}

	// A member can comment; the body is sanitized.
	req = testutil.AuthedJSONRequest(t, http.MethodPost, "/comments", member, map[string]any{
		"event_id": event.ID,
		"body":     `fine <script>alert(1)</script>`,
	})
	rec = httptest.NewRecorder()
	h.HandleCreate(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("member comment: got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var comment commentstore.Comment
	testutil.DecodeResponse(t, rec, &comment)
	if comment.Body != "fine " {
		t.Errorf("body: got %q", comment.Body)
	}
	if comment.EventID != event.ID || comment.AuthorID != member.ID {
		t.Errorf("comment: %+v", comment)
	}
}

func TestDeleteCommentAuthorship(t *testing.T) {
	h, fix := newTestHandler(t)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	owner := fix.CreateUser(ctx, "owner")
	author := fix.CreateUser(ctx, "author")
	other := fix.CreateUser(ctx, "other")
	admin := fix.CreateAdmin(ctx, "root")
	ws := fix.CreateWorkspace(ctx, "Open", true, owner, author, other)

	event := emitNote(t, h.DB, owner, ws)

	comments := commentstore.New(h.DB)
	c, err := comments.Create(ctx, commentstore.Comment{EventID: event.ID, AuthorID: author.ID, Body: "mine"})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}

	del := func(as models.User) int {
		req := testutil.AuthedRequest(http.MethodDelete, "/comments/"+c.ID.Hex(), as)
		req = testutil.WithChiURLParam(req, "id", c.ID.Hex())
		rec := httptest.NewRecorder()
		h.HandleDelete(rec, req)
		return rec.Code
	}

	if code := del(other); code != http.StatusForbidden {
		t.Errorf("non-author delete: got %d, want 403", code)
	}
	if code := del(author); code != http.StatusOK {
		t.Errorf("author delete: got %d, want 200", code)
	}

	// Already-deleted comments can still be "deleted" by an admin; the
	// operation is idempotent on the tombstone flag.
	if code := del(admin); code != http.StatusOK {
		t.Errorf("admin delete: got %d, want 200", code)
	}

	got, err := comments.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Deleted {
		t.Error("comment not tombstoned")
	}
}
