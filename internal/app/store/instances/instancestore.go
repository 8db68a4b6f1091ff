// internal/app/store/instances/instancestore.go
package instancestore

import (
	"context"
	"errors"
	"time"

	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound      = errors.New("instance not found")
	ErrDuplicateName = errors.New("an instance with this name already exists")
	errBadKind       = errors.New(`kind must be "greenplum" or "hadoop"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("instances")}
}

// EnsureIndexes creates the unique name index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetName("idx_instances_name").SetUnique(true),
	})
	return err
}

// Create registers a new instance.
func (s *Store) Create(ctx context.Context, inst models.Instance) (models.Instance, error) {
	if !models.IsValidInstanceKind(inst.Kind) {
		return models.Instance{}, errBadKind
	}

	now := time.Now().UTC()
	inst.ID = primitive.NewObjectID()
	inst.Online = true
	inst.CreatedAt = now
	inst.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, inst); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Instance{}, ErrDuplicateName
		}
		return models.Instance{}, err
	}
	return inst, nil
}

// GetByID retrieves an instance by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Instance, error) {
	var inst models.Instance
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inst)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Instance{}, ErrNotFound
		}
		return models.Instance{}, err
	}
	return inst, nil
}

// Rename changes the instance's display name. Events that reference the
// instance pick up the new name on their next read; nothing is rewritten
// in the log.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":       name,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an instance. Log events keep their reference and render a
// tombstone afterwards.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Find returns instances matching the given filter.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Instance, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Instance
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
