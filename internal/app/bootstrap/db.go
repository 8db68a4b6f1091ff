// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	commentstore "github.com/dcomingore-pivotal/chorus/internal/app/store/comments"
	datasetstore "github.com/dcomingore-pivotal/chorus/internal/app/store/datasets"
	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
	instancestore "github.com/dcomingore-pivotal/chorus/internal/app/store/instances"
	tagstore "github.com/dcomingore-pivotal/chorus/internal/app/store/taggings"
	userstore "github.com/dcomingore-pivotal/chorus/internal/app/store/users"
	workfilestore "github.com/dcomingore-pivotal/chorus/internal/app/store/workfiles"
	workspacestore "github.com/dcomingore-pivotal/chorus/internal/app/store/workspaces"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection and verifies it with a
// ping before the rest of startup proceeds.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		ChorusMongoClient:   client,
		ChorusMongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every store depends on. Index creation
// is idempotent, so this runs on every startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.ChorusMongoDatabase

	ensure := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"events", eventstore.New(db).EnsureIndexes},
		{"users", userstore.New(db).EnsureIndexes},
		{"workspaces", workspacestore.New(db).EnsureIndexes},
		{"instances", instancestore.New(db).EnsureIndexes},
		{"datasets", datasetstore.New(db).EnsureIndexes},
		{"workfiles", workfilestore.New(db).EnsureIndexes},
		{"comments", commentstore.New(db).EnsureIndexes},
		{"taggings", tagstore.New(db).EnsureIndexes},
	}

	for _, e := range ensure {
		if err := e.fn(ctx); err != nil {
			logger.Error("index creation failed", zap.String("collection", e.name), zap.Error(err))
			return fmt.Errorf("ensure indexes for %s: %w", e.name, err)
		}
	}

	logger.Info("schema ensured", zap.Int("collections", len(ensure)))
	return nil
}
