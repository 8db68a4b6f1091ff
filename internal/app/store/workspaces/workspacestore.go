// internal/app/store/workspaces/workspacestore.go
package workspacestore

import (
	"context"
	"errors"
	"time"

	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateName = errors.New("a workspace with this name already exists")
	ErrNotFound      = errors.New("workspace not found")
	ErrArchived      = errors.New("workspace is archived")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workspaces")}
}

// EnsureIndexes creates the unique name index and the visibility indexes
// used by WorkspacesVisibleTo-style queries.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_workspaces_name_ci").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "public", Value: 1}},
			Options: options.Index().SetName("idx_workspaces_public"),
		},
		{
			Keys:    bson.D{{Key: "member_ids", Value: 1}},
			Options: options.Index().SetName("idx_workspaces_members"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new workspace. The creator becomes owner and is always
// placed in the member list, so membership checks cover the owner too.
func (s *Store) Create(ctx context.Context, ws models.Workspace) (models.Workspace, error) {
	now := time.Now().UTC()
	ws.ID = primitive.NewObjectID()
	ws.NameCI = text.Fold(ws.Name)
	if !containsID(ws.MemberIDs, ws.OwnerID) {
		ws.MemberIDs = append(ws.MemberIDs, ws.OwnerID)
	}
	ws.CreatedAt = now
	ws.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, ws)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Workspace{}, ErrDuplicateName
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// GetByID retrieves a workspace by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error) {
	var ws models.Workspace
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ws)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Workspace{}, ErrNotFound
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// Update modifies name and summary.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, ws models.Workspace) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if ws.Name != "" {
		set["name"] = ws.Name
		set["name_ci"] = text.Fold(ws.Name)
	}
	set["summary"] = ws.Summary

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
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

// SetPublic flips the public flag in one atomic update.
func (s *Store) SetPublic(ctx context.Context, id primitive.ObjectID, public bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"public":     public,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Archive marks the workspace archived, recording who and when. Archival is
// a single atomic update so permission checks never see it half-applied.
func (s *Store) Archive(ctx context.Context, id, archiverID primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"archived":    true,
		"archived_at": now,
		"archiver_id": archiverID,
		"updated_at":  now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Unarchive reverses Archive.
func (s *Store) Unarchive(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set":   bson.M{"archived": false, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"archived_at": "", "archiver_id": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMember adds a user to the member list. $addToSet keeps the list a set
// and makes the whole mutation one atomic document update.
func (s *Store) AddMember(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$addToSet": bson.M{"member_ids": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveMember removes a user from the member list. The owner cannot be
// removed; ownership transfer is an administrative action outside this layer.
func (s *Store) RemoveMember(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "owner_id": bson.M{"$ne": userID}},
		bson.M{
			"$pull": bson.M{"member_ids": userID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// VisibleTo returns the workspaces the viewer may see: all of them for
// admins, otherwise the union of public workspaces and workspaces the
// viewer belongs to. Recomputed per call; never cached.
func (s *Store) VisibleTo(ctx context.Context, viewer models.User) ([]models.Workspace, error) {
	filter := bson.M{}
	if !viewer.Admin {
		filter["$or"] = []bson.M{
			{"public": true},
			{"member_ids": viewer.ID},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Workspace
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// VisibleIDsTo is VisibleTo projected down to ids, for building feed
// visibility filters without loading full documents.
func (s *Store) VisibleIDsTo(ctx context.Context, viewer models.User) ([]primitive.ObjectID, error) {
	filter := bson.M{}
	if !viewer.Admin {
		filter["$or"] = []bson.M{
			{"public": true},
			{"member_ids": viewer.ID},
		}
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
