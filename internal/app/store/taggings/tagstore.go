// internal/app/store/taggings/tagstore.go
package tagstore

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/htmlsanitize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxTagLength caps tag names, matching the API contract.
const MaxTagLength = 100

// Tagging attaches one tag name to one entity. The full tag set of an
// entity is replaced wholesale by Set, mirroring how the taggings endpoint
// behaves.
type Tagging struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EntityType string             `bson:"entity_type" json:"entity_type"`
	EntityID   primitive.ObjectID `bson:"entity_id" json:"entity_id"`
	Name       string             `bson:"name" json:"name"`
	NameCI     string             `bson:"name_ci" json:"-"`
	CreatorID  primitive.ObjectID `bson:"creator_id" json:"creator_id"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type Store struct {
	c *mongo.Collection
}

var (
	ErrTagTooLong = errors.New("tag names must be 100 characters or less")
	ErrEmptyTag   = errors.New("tag names must not be blank")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("taggings")}
}

// EnsureIndexes creates the entity lookup and tag search indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_taggings_entity").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_taggings_name"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Set replaces the entity's tag set with the given names. Names are
// validated first; on any invalid name nothing is written.
func (s *Store) Set(ctx context.Context, entityType string, entityID, creatorID primitive.ObjectID, names []string) ([]Tagging, error) {
	now := time.Now().UTC()
	taggings := make([]Tagging, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		// Tag names are rendered as plain text, never as HTML.
		name = strings.TrimSpace(htmlsanitize.StripAll(name))
		if name == "" {
			return nil, ErrEmptyTag
		}
		if len(name) > MaxTagLength {
			return nil, ErrTagTooLong
		}
		ci := text.Fold(name)
		if seen[ci] {
			continue
		}
		seen[ci] = true
		taggings = append(taggings, Tagging{
			ID:         primitive.NewObjectID(),
			EntityType: entityType,
			EntityID:   entityID,
			Name:       name,
			NameCI:     ci,
			CreatorID:  creatorID,
			CreatedAt:  now,
		})
	}

	if _, err := s.c.DeleteMany(ctx, bson.M{"entity_type": entityType, "entity_id": entityID}); err != nil {
		return nil, err
	}
	if len(taggings) == 0 {
		return taggings, nil
	}

	docs := make([]any, len(taggings))
	for i, t := range taggings {
		docs[i] = t
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return taggings, nil
}

// ListByEntity returns the entity's tags sorted by name.
func (s *Store) ListByEntity(ctx context.Context, entityType string, entityID primitive.ObjectID) ([]Tagging, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"entity_type": entityType, "entity_id": entityID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Tagging
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Search returns distinct tag names containing the query, folded for
// case-insensitive matching, paginated. The second return is the total
// number of distinct matches before pagination.
func (s *Store) Search(ctx context.Context, query string, limit, offset int64) ([]string, int64, error) {
	filter := bson.M{}
	if query != "" {
		filter["name_ci"] = bson.M{"$regex": regexp.QuoteMeta(text.Fold(query))}
	}

	raw, err := s.c.Distinct(ctx, "name", filter)
	if err != nil {
		return nil, 0, err
	}

	names := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return text.Fold(names[i]) < text.Fold(names[j])
	})
	total := int64(len(names))

	if offset >= total {
		return []string{}, total, nil
	}
	names = names[offset:]
	if limit > 0 && int64(len(names)) > limit {
		names = names[:limit]
	}
	return names, total, nil
}
