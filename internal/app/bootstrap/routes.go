// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	activitiesfeature "github.com/dcomingore-pivotal/chorus/internal/app/features/activities"
	commentsfeature "github.com/dcomingore-pivotal/chorus/internal/app/features/comments"
	datasetsfeature "github.com/dcomingore-pivotal/chorus/internal/app/features/datasets"
	healthfeature "github.com/dcomingore-pivotal/chorus/internal/app/features/health"
	instancesfeature "github.com/dcomingore-pivotal/chorus/internal/app/features/instances"
	notesfeature "github.com/dcomingore-pivotal/chorus/internal/app/features/notes"
	sessionsfeature "github.com/dcomingore-pivotal/chorus/internal/app/features/sessions"
	taggingsfeature "github.com/dcomingore-pivotal/chorus/internal/app/features/taggings"
	usersfeature "github.com/dcomingore-pivotal/chorus/internal/app/features/users"
	workfilesfeature "github.com/dcomingore-pivotal/chorus/internal/app/features/workfiles"
	workspacesfeature "github.com/dcomingore-pivotal/chorus/internal/app/features/workspaces"
	eventstore "github.com/dcomingore-pivotal/chorus/internal/app/store/events"
	userstore "github.com/dcomingore-pivotal/chorus/internal/app/store/users"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/activity"
	"github.com/dcomingore-pivotal/chorus/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Chorus applies the session middleware
// globally and mounts one feature router per API area; every route under a
// feature shares that feature's handler and the app-wide event emitter.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on
	// each request. This ensures admin changes and account deletions take
	// effect immediately.
	db := deps.ChorusMongoDatabase
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	// One emitter for the whole app; every feature that records activity
	// shares it.
	emitter := activity.NewEmitter(eventstore.New(db), logger, appCfg.ActivityLog)

	r := chi.NewRouter()

	// Global auth middleware: loads the current user into context if a
	// valid session cookie is present.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.ChorusMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	sessionsHandler := sessionsfeature.NewHandler(db, logger)
	r.Mount("/sessions", sessionsfeature.Routes(sessionsHandler, sessionMgr))

	// Accounts
	usersHandler := usersfeature.NewHandler(db, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

	// Activity feeds
	activitiesHandler := activitiesfeature.NewHandler(db, logger)
	r.Mount("/activities", activitiesfeature.Routes(activitiesHandler, sessionMgr))

	// Notes
	notesHandler := notesfeature.NewHandler(db, emitter, logger)
	r.Mount("/notes", notesfeature.Routes(notesHandler, sessionMgr))

	// Comments on events
	commentsHandler := commentsfeature.NewHandler(db, logger)
	r.Mount("/comments", commentsfeature.Routes(commentsHandler, sessionMgr))

	// Workspaces and membership
	workspacesHandler := workspacesfeature.NewHandler(db, emitter, logger)
	r.Mount("/workspaces", workspacesfeature.Routes(workspacesHandler, sessionMgr))

	// Instances
	instancesHandler := instancesfeature.NewHandler(db, emitter, logger)
	r.Mount("/instances", instancesfeature.Routes(instancesHandler, sessionMgr))

	// Datasets and imports
	datasetsHandler := datasetsfeature.NewHandler(db, emitter, logger)
	r.Mount("/datasets", datasetsfeature.Routes(datasetsHandler, sessionMgr))

	// Workfiles
	workfilesHandler := workfilesfeature.NewHandler(db, emitter, logger)
	r.Mount("/workfiles", workfilesfeature.Routes(workfilesHandler, sessionMgr))

	// Tags
	taggingsHandler := taggingsfeature.NewHandler(db, logger)
	r.Mount("/taggings", taggingsfeature.Routes(taggingsHandler, sessionMgr))

	return r, nil
}
