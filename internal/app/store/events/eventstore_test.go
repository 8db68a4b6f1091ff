// internal/app/store/events/eventstore_test.go
package eventstore

import (
	"sort"
	"sync"
	"testing"

	"github.com/dcomingore-pivotal/chorus/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNextIDConcurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	const workers = 10
	const perWorker = 20

	var mu sync.Mutex
	var ids []int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id, err := store.NextID(ctx)
				if err != nil {
					t.Errorf("NextID: %v", err)
					return
				}
				mu.Lock()
				ids = append(ids, id)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(ids) != workers*perWorker {
		t.Fatalf("allocated %d ids, want %d", len(ids), workers*perWorker)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			t.Fatalf("duplicate id %d allocated under concurrency", ids[i])
		}
	}
	if ids[0] < 1 {
		t.Errorf("first id %d, want >= 1", ids[0])
	}
}

func TestAppendDerivesIndexFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	wsID := primitive.NewObjectID()
	event, err := store.Append(ctx, Event{
		Kind:    "NOTE_ON_WORKSPACE",
		ActorID: primitive.NewObjectID(),
		Targets: map[string]EntityRef{
			RoleTarget1:   {Type: "workspace", ID: wsID},
			RoleWorkspace: {Type: "workspace", ID: wsID},
		},
		Data: map[string]string{"body": "hello"},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if event.ID == 0 {
		t.Error("appended event has no id")
	}
	if event.CreatedAt.IsZero() {
		t.Error("appended event has no timestamp")
	}
	if event.WorkspaceID == nil || *event.WorkspaceID != wsID {
		t.Errorf("workspace_id not mirrored from targets: %v", event.WorkspaceID)
	}
	if len(event.TargetRefs) != 2 {
		t.Errorf("target_refs: got %d entries, want 2", len(event.TargetRefs))
	}

	got, err := store.GetByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Kind != event.Kind || got.Body() != "hello" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, 999999); err != ErrNotFound {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

// appendEvents writes n workspace notes and returns them newest first, the
// order feeds use.
func appendEvents(t *testing.T, store *Store, wsID primitive.ObjectID, actorID primitive.ObjectID, n int) []Event {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var out []Event
	for i := 0; i < n; i++ {
		e, err := store.Append(ctx, Event{
			Kind:    "NOTE_ON_WORKSPACE",
			ActorID: actorID,
			Targets: map[string]EntityRef{
				RoleTarget1:   {Type: "workspace", ID: wsID},
				RoleWorkspace: {Type: "workspace", ID: wsID},
			},
			Data: map[string]string{"body": "note"},
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		out = append([]Event{e}, out...)
	}
	return out
}

func TestPageOrderAndPagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	wsID := primitive.NewObjectID()
	actor := primitive.NewObjectID()
	appendEvents(t, store, wsID, actor, 5)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	q := Query{
		Entity:            &EntityRef{Type: "workspace", ID: wsID},
		ViewerID:          actor,
		VisibleWorkspaces: []primitive.ObjectID{wsID},
		Limit:             2,
	}

	first, err := store.Page(ctx, q)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	q.Offset = 2
	second, err := store.Page(ctx, q)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("page sizes: %d, %d; want 2, 2", len(first), len(second))
	}
	if first[0].ID <= first[1].ID {
		t.Errorf("page not newest first: %d then %d", first[0].ID, first[1].ID)
	}
	if first[1].ID <= second[0].ID {
		t.Errorf("pages overlap or out of order: page1 ends %d, page2 starts %d", first[1].ID, second[0].ID)
	}

	total, err := store.Count(ctx, Query{Entity: q.Entity, ViewerID: actor, VisibleWorkspaces: q.VisibleWorkspaces})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 5 {
		t.Errorf("count: got %d, want 5", total)
	}
}

func TestVisibilityFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	privateWS := primitive.NewObjectID()
	actor := primitive.NewObjectID()
	viewer := primitive.NewObjectID()

	// Private workspace note.
	wsEvent, err := store.Append(ctx, Event{
		Kind:    "NOTE_ON_WORKSPACE",
		ActorID: actor,
		Targets: map[string]EntityRef{
			RoleTarget1:   {Type: "workspace", ID: privateWS},
			RoleWorkspace: {Type: "workspace", ID: privateWS},
		},
		Data: map[string]string{"body": "secret"},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	// Workspace-free global event.
	instID := primitive.NewObjectID()
	if _, err := store.Append(ctx, Event{
		Kind:    "GREENPLUM_INSTANCE_CREATED",
		ActorID: actor,
		Global:  true,
		Targets: map[string]EntityRef{
			RoleInstance: {Type: "instance", ID: instID},
		},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Workspace-free restricted event.
	dsID := primitive.NewObjectID()
	if _, err := store.Append(ctx, Event{
		Kind:       "NOTE_ON_DATASET",
		ActorID:    actor,
		Restricted: true,
		Targets: map[string]EntityRef{
			RoleTarget1: {Type: "dataset", ID: dsID},
			RoleDataset: {Type: "dataset", ID: dsID},
		},
		Data: map[string]string{"body": "restricted note"},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Viewer with no workspace access: sees only the unrestricted
	// workspace-free event.
	got, err := store.Page(ctx, Query{ViewerID: viewer})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(got) != 1 || got[0].Kind != "GREENPLUM_INSTANCE_CREATED" {
		t.Fatalf("outsider visibility: got %d events %v", len(got), kinds(got))
	}

	// Viewer who can see the private workspace.
	got, err = store.Page(ctx, Query{ViewerID: viewer, VisibleWorkspaces: []primitive.ObjectID{privateWS}})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("member visibility: got %d events %v, want 2", len(got), kinds(got))
	}

	// The actor always sees their own events, including restricted ones.
	got, err = store.Page(ctx, Query{ViewerID: actor})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("actor visibility: got %d events %v, want 3", len(got), kinds(got))
	}

	// Admins bypass the filter entirely.
	n, err := store.Count(ctx, Query{ViewerIsAdmin: true})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("admin count: got %d, want 3", n)
	}

	// Body filter is case-insensitive and post-visibility.
	got, err = store.Page(ctx, Query{ViewerID: viewer, VisibleWorkspaces: []primitive.ObjectID{privateWS}, BodyFilter: "SECRET"})
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(got) != 1 || got[0].ID != wsEvent.ID {
		t.Errorf("body filter: got %v", kinds(got))
	}
}

func TestSearchableSince(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	wsID := primitive.NewObjectID()
	actor := primitive.NewObjectID()
	events := appendEvents(t, store, wsID, actor, 3)

	// An event with no body never reaches the indexer.
	if _, err := store.Append(ctx, Event{
		Kind:    "WORKSPACE_CREATED",
		ActorID: actor,
		Global:  true,
		Targets: map[string]EntityRef{
			RoleWorkspace: {Type: "workspace", ID: wsID},
		},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := store.SearchableSince(ctx, 0, 10)
	if err != nil {
		t.Fatalf("searchable since: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d searchable events, want 3", len(got))
	}
	if got[0].ID > got[1].ID {
		t.Error("indexer feed should be oldest first")
	}

	// Cursor resumes after the given id.
	got, err = store.SearchableSince(ctx, events[len(events)-1].ID, 10)
	if err != nil {
		t.Fatalf("searchable since: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("resumed feed: got %d events, want 2", len(got))
	}
}

func kinds(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}
