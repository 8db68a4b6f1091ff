// internal/app/store/datasets/datasetstore.go
package datasetstore

import (
	"context"
	"errors"
	"time"

	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("dataset not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("datasets")}
}

// EnsureIndexes creates the schema-listing and name indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "instance_id", Value: 1}, {Key: "schema_name", Value: 1}, {Key: "object_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_datasets_schema"),
		},
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}},
			Options: options.Index().SetName("idx_datasets_workspace"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create records a discovered table or view.
func (s *Store) Create(ctx context.Context, d models.Dataset) (models.Dataset, error) {
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.ObjectNameCI = text.Fold(d.ObjectName)
	d.CreatedAt = now
	d.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Dataset{}, err
	}
	return d, nil
}

// GetByID retrieves a dataset by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Dataset, error) {
	var d models.Dataset
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Dataset{}, ErrNotFound
		}
		return models.Dataset{}, err
	}
	return d, nil
}

// AssociateWorkspace places the dataset in a workspace sandbox. From then on
// notes on the dataset inherit the workspace's privacy.
func (s *Store) AssociateWorkspace(ctx context.Context, id, workspaceID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"workspace_id": workspaceID,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBySchema returns the datasets of one schema ordered by name, with an
// optional case-insensitive name filter.
func (s *Store) ListBySchema(ctx context.Context, instanceID primitive.ObjectID, schemaName, nameFilter string, limit, offset int64) ([]models.Dataset, error) {
	filter := bson.M{"instance_id": instanceID, "schema_name": schemaName}
	if nameFilter != "" {
		filter["object_name_ci"] = bson.M{"$regex": text.Fold(nameFilter)}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "object_name_ci", Value: 1}}).
		SetSkip(offset)
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Dataset
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a dataset (e.g. dropped in the source database). Events
// that referenced it render a tombstone afterwards.
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
