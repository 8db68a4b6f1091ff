// internal/app/features/instances/handler.go
package instances

import (
	"github.com/dcomingore-pivotal/chorus/internal/app/system/activity"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the instances feature.
type Handler struct {
	DB      *mongo.Database
	Emitter *activity.Emitter
	Log     *zap.Logger
}

// NewHandler constructs an instances Handler.
func NewHandler(db *mongo.Database, emitter *activity.Emitter, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Emitter: emitter, Log: logger}
}
