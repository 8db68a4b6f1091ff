// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging, CORS, timeouts); AppConfig is everything specific to Chorus:
// the Mongo connection, session cookies, and activity logging behavior.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: chorus-session)
	SessionDomain string // Cookie domain (blank means current host)

	// ActivityLog controls where emitted events are mirrored:
	// "all" mirrors every appended event to the structured log, "db"
	// appends to the event log only.
	ActivityLog string
}
