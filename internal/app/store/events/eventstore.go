// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Target role names used across event kinds. A kind's schema (see the
// activity package) decides which of these are required.
const (
	RoleTarget1   = "target1"
	RoleWorkspace = "workspace"
	RoleInstance  = "instance"
	RoleDataset   = "dataset"
	RoleWorkfile  = "workfile"
	RoleMember    = "member"
)

var ErrNotFound = errors.New("event not found")

// EntityRef points an event target role at an entity in the entity store.
// Only the type and id are frozen into the log; display fields are resolved
// live at read time so renames show current state.
type EntityRef struct {
	Type string             `bson:"type" json:"type"`
	ID   primitive.ObjectID `bson:"id" json:"id"`
}

// Event is one immutable row of the activity log.
//
// The _id is an int64 drawn from an atomically incremented sequence, so id
// order is creation order and every feed sorts by _id descending with no
// secondary key.
//
// WorkspaceID mirrors Targets["workspace"] and TargetRefs mirrors the values
// of Targets; both exist only so scope and visibility queries hit indexes
// instead of walking the role map.
type Event struct {
	ID      int64              `bson:"_id" json:"id"`
	Kind    string             `bson:"kind" json:"action"`
	ActorID primitive.ObjectID `bson:"actor_id" json:"actor_id"`

	Targets    map[string]EntityRef `bson:"targets" json:"targets"`
	TargetRefs []EntityRef          `bson:"target_refs" json:"-"`

	WorkspaceID *primitive.ObjectID `bson:"workspace_id,omitempty" json:"workspace_id,omitempty"`

	// Global marks events delivered to the everyone-visible feed.
	Global bool `bson:"global" json:"-"`

	// Restricted marks kinds whose target carries workspace-scoped privacy
	// the event itself cannot express; such events are shown only to admins
	// and the actor.
	Restricted bool `bson:"restricted,omitempty" json:"-"`

	Data map[string]string `bson:"data,omitempty" json:"data,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"timestamp"`
}

// Body returns the free-text body field, if the kind carries one.
func (e Event) Body() string {
	return e.Data["body"]
}

// Store manages the append-only event log and its id sequence.
type Store struct {
	c        *mongo.Collection
	counters *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("events"),
		counters: db.Collection("counters"),
	}
}

// EnsureIndexes creates the indexes feed queries depend on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Workspace feed: newest first within one workspace
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_events_workspace"),
		},
		// Actor feed
		{
			Keys:    bson.D{{Key: "actor_id", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_events_actor"),
		},
		// Entity-scoped feeds (instance, dataset, workfile pages)
		{
			Keys:    bson.D{{Key: "target_refs.type", Value: 1}, {Key: "target_refs.id", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_events_target"),
		},
		// Global feed
		{
			Keys:    bson.D{{Key: "global", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_events_global"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// NextID atomically allocates the next event id. The counter document is
// incremented server-side ($inc with upsert), so concurrent emitters can
// never read-then-write a stale value: ids are unique and strictly
// increasing even under racing inserts.
func (s *Store) NextID(ctx context.Context) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "events"},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

// Append assigns a fresh id and timestamp and inserts the event. The event
// is readable by any feed query issued after Append returns.
func (s *Store) Append(ctx context.Context, event Event) (Event, error) {
	id, err := s.NextID(ctx)
	if err != nil {
		return Event{}, err
	}
	event.ID = id
	event.CreatedAt = time.Now().UTC()

	event.TargetRefs = event.TargetRefs[:0]
	for _, ref := range event.Targets {
		event.TargetRefs = append(event.TargetRefs, ref)
	}
	if ws, ok := event.Targets[RoleWorkspace]; ok {
		event.WorkspaceID = &ws.ID
	}

	if _, err := s.c.InsertOne(ctx, event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// GetByID retrieves a single event.
func (s *Store) GetByID(ctx context.Context, id int64) (Event, error) {
	var e Event
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return Event{}, ErrNotFound
		}
		return Event{}, err
	}
	return e, nil
}

// Query describes one feed page request after the feed assembler has
// resolved the scope and the viewer's visibility.
type Query struct {
	// Scope: at most one of these is set. All unset means the global feed.
	ActorID *primitive.ObjectID
	Entity  *EntityRef
	Global  bool

	// Visibility, computed per request by the permission layer.
	// When ViewerIsAdmin is true no visibility clause is applied.
	ViewerIsAdmin     bool
	ViewerID          primitive.ObjectID
	VisibleWorkspaces []primitive.ObjectID

	// BodyFilter restricts results to events whose body matches the text,
	// case-insensitively (search within feed).
	BodyFilter string

	Limit  int64
	Offset int64
}

func (q Query) filter() bson.M {
	filter := bson.M{}

	switch {
	case q.ActorID != nil:
		filter["actor_id"] = *q.ActorID
	case q.Entity != nil:
		filter["target_refs"] = bson.M{"$elemMatch": bson.M{"type": q.Entity.Type, "id": q.Entity.ID}}
	case q.Global:
		filter["global"] = true
	}

	if !q.ViewerIsAdmin {
		visible := q.VisibleWorkspaces
		if visible == nil {
			// A nil slice marshals to BSON null, which $in rejects.
			visible = []primitive.ObjectID{}
		}
		filter["$or"] = []bson.M{
			{"workspace_id": bson.M{"$in": visible}},
			{"workspace_id": nil, "restricted": bson.M{"$ne": true}},
			{"actor_id": q.ViewerID},
		}
	}

	if q.BodyFilter != "" {
		filter["data.body"] = bson.M{
			"$regex":   regexp.QuoteMeta(q.BodyFilter),
			"$options": "i",
		}
	}

	return filter
}

// Page returns one reverse-chronological page of events for the query.
func (s *Store) Page(ctx context.Context, q Query) ([]Event, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetSkip(q.Offset)
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cur, err := s.c.Find(ctx, q.filter(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the post-filter total for the query, ignoring pagination.
// Feeds report this number, never the pre-filter candidate count, so a
// privacy-filtered event does not leak into "N results found".
func (s *Store) Count(ctx context.Context, q Query) (int64, error) {
	return s.c.CountDocuments(ctx, q.filter())
}

// SearchableSince returns events with a free-text body appended after
// sinceID, oldest first. The external search indexer polls this to mirror
// note bodies; no delivery guarantee is made beyond normal log reads.
func (s *Store) SearchableSince(ctx context.Context, sinceID int64, limit int64) ([]Event, error) {
	filter := bson.M{
		"_id":       bson.M{"$gt": sinceID},
		"data.body": bson.M{"$exists": true, "$ne": ""},
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
