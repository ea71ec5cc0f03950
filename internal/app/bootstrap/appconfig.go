// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for govhub.
//
// These values come from environment variables (GOVHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers ports, TLS, logging and CORS; everything specific to the portal
// lives here.
type AppConfig struct {
	// MongoDB connection configuration. An empty URI runs the portal on the
	// in-memory store with demonstration data.
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Review policy
	ReviewTopTier string // "city" or "province"

	// Process engine policy
	ClearUploadOnUncomplete bool // drop a node's upload when it is un-completed

	// Ledger mirror to structured logs: "all", "log" or "off"
	AuditLogLedger string

	// Insert the built-in process templates on startup when a kind has none
	SeedDefaultTemplates bool

	// Storage call deadlines
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}

// DemoMode reports whether the portal runs without a database.
func (c AppConfig) DemoMode() bool {
	return c.MongoURI == ""
}
