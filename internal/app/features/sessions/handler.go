// internal/app/features/sessions/handler.go
package sessions

import (
	"github.com/dcomingore-pivotal/chorus/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the sessions feature.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Limits *ratelimit.SignInLimiter
}

// NewHandler constructs a sessions Handler.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger, Limits: ratelimit.NewSignInLimiter()}
}
