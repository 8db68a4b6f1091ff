// internal/app/store/workfiles/workfilestore.go
package workfilestore

import (
	"context"
	"errors"
	"time"

	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c        *mongo.Collection
	versions *mongo.Collection
}

var (
	ErrNotFound          = errors.New("workfile not found")
	ErrDuplicateFileName = errors.New("a workfile with this file name already exists in the workspace")
)

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("workfiles"),
		versions: db.Collection("workfile_versions"),
	}
}

// EnsureIndexes creates the per-workspace unique filename index and the
// version lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "file_name_ci", Value: 1}},
		Options: options.Index().SetName("idx_workfiles_name").SetUnique(true),
	}); err != nil {
		return err
	}
	_, err := s.versions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "workfile_id", Value: 1}, {Key: "version_num", Value: -1}},
		Options: options.Index().SetName("idx_workfile_versions"),
	})
	return err
}

// Create inserts a workfile and its initial version.
func (s *Store) Create(ctx context.Context, wf models.Workfile, commitMessage string) (models.Workfile, error) {
	now := time.Now().UTC()
	wf.ID = primitive.NewObjectID()
	wf.FileNameCI = text.Fold(wf.FileName)
	wf.LatestVersionNum = 1
	wf.CreatedAt = now
	wf.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, wf); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Workfile{}, ErrDuplicateFileName
		}
		return models.Workfile{}, err
	}

	version := models.WorkfileVersion{
		ID:            primitive.NewObjectID(),
		WorkfileID:    wf.ID,
		VersionNum:    1,
		CommitMessage: commitMessage,
		ModifierID:    wf.OwnerID,
		StorageKey:    uuid.NewString(),
		CreatedAt:     now,
	}
	if _, err := s.versions.InsertOne(ctx, version); err != nil {
		return models.Workfile{}, err
	}
	return wf, nil
}

// GetByID retrieves a workfile by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Workfile, error) {
	var wf models.Workfile
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&wf)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Workfile{}, ErrNotFound
		}
		return models.Workfile{}, err
	}
	return wf, nil
}

// AddVersion appends a new version and bumps the workfile's latest version
// counter with $inc, so concurrent saves cannot produce the same number
// twice even without a transaction.
func (s *Store) AddVersion(ctx context.Context, workfileID, modifierID primitive.ObjectID, commitMessage string) (models.WorkfileVersion, error) {
	var wf models.Workfile
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": workfileID},
		bson.M{
			"$inc": bson.M{"latest_version_num": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&wf)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.WorkfileVersion{}, ErrNotFound
		}
		return models.WorkfileVersion{}, err
	}

	version := models.WorkfileVersion{
		ID:            primitive.NewObjectID(),
		WorkfileID:    workfileID,
		VersionNum:    wf.LatestVersionNum,
		CommitMessage: commitMessage,
		ModifierID:    modifierID,
		StorageKey:    uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := s.versions.InsertOne(ctx, version); err != nil {
		return models.WorkfileVersion{}, err
	}
	return version, nil
}

// ListByWorkspace returns a workspace's workfiles ordered by file name.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Workfile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "file_name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"workspace_id": workspaceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Workfile
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a workfile and its version records.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	_, err = s.versions.DeleteMany(ctx, bson.M{"workfile_id": id})
	return err
}
