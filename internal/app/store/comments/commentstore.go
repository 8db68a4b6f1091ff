// internal/app/store/comments/commentstore.go
package commentstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Comment is a reply on one event. Comments are never mutated; deletion
// flips a tombstone flag so the feed can show "comment removed" without
// renumbering the thread.
type Comment struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID  int64              `bson:"event_id" json:"event_id"`
	AuthorID primitive.ObjectID `bson:"author_id" json:"author_id"`
	Body     string             `bson:"body" json:"body"`
	Deleted  bool               `bson:"deleted" json:"deleted"`

	CreatedAt time.Time `bson:"created_at" json:"timestamp"`
}

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("comment not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("comments")}
}

// EnsureIndexes creates the per-event thread index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("idx_comments_event"),
	})
	return err
}

// Create appends a comment to an event's thread.
func (s *Store) Create(ctx context.Context, c Comment) (Comment, error) {
	c.ID = primitive.NewObjectID()
	c.Deleted = false
	c.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return Comment{}, err
	}
	return c, nil
}

// GetByID retrieves a comment, including tombstoned ones.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (Comment, error) {
	var c Comment
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return Comment{}, ErrNotFound
		}
		return Comment{}, err
	}
	return c, nil
}

// ListByEvent returns an event's comments in insertion order, which is
// display order. Tombstoned comments are included with Deleted set.
func (s *Store) ListByEvent(ctx context.Context, eventID int64) ([]Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"event_id": eventID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Comment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByEvents loads the threads of a page of events in one query, keyed by
// event id.
func (s *Store) ListByEvents(ctx context.Context, eventIDs []int64) (map[int64][]Comment, error) {
	out := make(map[int64][]Comment, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"event_id": bson.M{"$in": eventIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var c Comment
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out[c.EventID] = append(out[c.EventID], c)
	}
	return out, cur.Err()
}

// SoftDelete tombstones a comment. The row stays in place.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"deleted": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
