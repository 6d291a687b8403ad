// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP ports, TLS,
// logging, request limits). AppConfig is everything specific to GameTable:
// the MongoDB connection, session cookies, the reference timezone all civil
// dates are anchored to, outbound mail, and the reminder schedule.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // How long a signed-in session stays valid

	// ReferenceTimezone anchors every civil date in the system. All groups
	// share it; per-user timezones are deliberately not supported.
	ReferenceTimezone string

	// Email/SMTP configuration. A blank host disables outbound mail, which
	// keeps notifications in log-only mode for development.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string

	// SiteName and BaseURL appear in notification emails.
	SiteName string
	BaseURL  string

	// ReminderCron schedules the day-before session reminder sweep,
	// evaluated in the reference timezone.
	ReminderCron string

	// Operation timeout overrides; zero keeps the built-in defaults.
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
