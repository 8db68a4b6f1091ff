// internal/app/system/auth/auth.go

// Package auth provides cookie-session authentication for the JSON API.
//
// The session stores only the user's id. LoadSessionUser fetches the full
// user record on every request, so admin grants, revocations, and account
// deletions take effect on the user's next request with no session
// invalidation step.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dcomingore-pivotal/chorus/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const userIDKey = "user_id"

// minKeyLen is the shortest session key accepted. Shorter keys make the
// auth cookie forgeable.
const minKeyLen = 32

// UserFetcher loads the current state of a user by id. Implementations
// return an error for unknown or soft-deleted users.
type UserFetcher interface {
	FetchUser(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// SessionManager issues and validates session cookies and exposes the
// middleware that gates API routes.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	fetch  UserFetcher
	logger *zap.Logger
}

func NewSessionManager(key, name, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	keyBytes := []byte(key)
	if key == "" {
		// Ephemeral key: fine for development, but every restart signs
		// everyone out.
		keyBytes = securecookie.GenerateRandomKey(minKeyLen)
		logger.Warn("session_key not configured, using an ephemeral key")
	} else if len(key) < minKeyLen {
		return nil, errors.New("auth: session key must be at least 32 bytes")
	}
	store := sessions.NewCookieStore(keyBytes)
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   domain,
		MaxAge:   86400 * 14,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, name: name, logger: logger}, nil
}

// SetUserFetcher wires the store LoadSessionUser uses to refresh the user
// on each request. Must be called before the middleware runs.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) {
	sm.fetch = f
}

// SignIn writes the session cookie for the given user.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[userIDKey] = userID.Hex()
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Options.MaxAge = -1
	delete(sess.Values, userIDKey)
	return sess.Save(r, w)
}

type ctxKey struct{}

// CurrentUser returns the authenticated user placed in context by
// LoadSessionUser, with a found flag.
func CurrentUser(r *http.Request) (models.User, bool) {
	u, ok := r.Context().Value(ctxKey{}).(models.User)
	return u, ok
}

// WithTestUser injects a user directly into the request context, bypassing
// the session middleware. Only for handler tests.
func WithTestUser(r *http.Request, u models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey{}, u))
}

// LoadSessionUser resolves the session cookie to a live user record and
// injects it into the request context. A stale session (deleted user,
// malformed id) is treated as signed out, never as an error.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sm.store.Get(r, sm.name)
		hex, _ := sess.Values[userIDKey].(string)
		if hex == "" || sm.fetch == nil {
			next.ServeHTTP(w, r)
			return
		}

		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := sm.fetch.FetchUser(r.Context(), id)
		if err != nil {
			// Deleted account or transient store failure: proceed
			// unauthenticated rather than 500 every request.
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSignedIn rejects unauthenticated requests with a JSON 401.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests unless the authenticated user has the
// global admin flag.
func (sm *SessionManager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !u.Admin {
			writeJSONError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": map[string]any{"message": msg},
	})
}
