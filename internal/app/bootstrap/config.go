// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"

	"github.com/dalemusser/govhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for govhub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, review_top_tier, etc.
//   - Environment variables: GOVHUB_MONGO_URI, GOVHUB_REVIEW_TOP_TIER, etc.
//   - Command-line flags: --mongo_uri, --review_top_tier, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "", Desc: "MongoDB connection URI (empty runs in-memory with demo data)"},
	{Name: "mongo_database", Default: "govhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "review_top_tier", Default: "province", Desc: "Last review tier: 'city' or 'province'"},
	{Name: "clear_upload_on_uncomplete", Default: false, Desc: "Drop a node's uploaded file when it is marked incomplete again"},
	{Name: "audit_log_ledger", Default: "all", Desc: "Mirror ledger rows to the log: 'all', 'log', or 'off'"},
	{Name: "seed_default_templates", Default: true, Desc: "Insert built-in process templates when missing"},

	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-record reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for lists and single-collection writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for project transitions"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, GOVHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "GOVHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         strings.TrimSpace(appValues.String("mongo_uri")),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		ReviewTopTier:           strings.ToLower(strings.TrimSpace(appValues.String("review_top_tier"))),
		ClearUploadOnUncomplete: appValues.Bool("clear_upload_on_uncomplete"),
		AuditLogLedger:          strings.ToLower(strings.TrimSpace(appValues.String("audit_log_ledger"))),
		SeedDefaultTemplates:    appValues.Bool("seed_default_templates"),

		TimeoutShort:  appValues.Duration("timeout_short", timeouts.DefaultShort),
		TimeoutMedium: appValues.Duration("timeout_medium", timeouts.DefaultMedium),
		TimeoutLong:   appValues.Duration("timeout_long", timeouts.DefaultLong),
	}

	if appCfg.DemoMode() {
		logger.Info("no mongo_uri configured; running on the in-memory store with demo data")
	}
	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked before any connection attempt; the
// policy knobs must name known values.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if !appCfg.DemoMode() {
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if appCfg.MongoDatabase == "" {
			return fmt.Errorf("mongo_database is required when mongo_uri is set")
		}
	}

	switch appCfg.ReviewTopTier {
	case "city", "province":
	default:
		return fmt.Errorf("review_top_tier must be 'city' or 'province', got %q", appCfg.ReviewTopTier)
	}

	switch appCfg.AuditLogLedger {
	case "all", "log", "off":
	default:
		return fmt.Errorf("audit_log_ledger must be 'all', 'log' or 'off', got %q", appCfg.AuditLogLedger)
	}

	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)", appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	return nil
}
