package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/govhub/internal/app/system/timeouts"
	"github.com/dalemusser/govhub/internal/domain/models"
	"github.com/dalemusser/govhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func demoConfig() AppConfig {
	return AppConfig{
		MongoDatabase:        "govhub",
		MongoMaxPoolSize:     100,
		MongoMinPoolSize:     10,
		ReviewTopTier:        "province",
		AuditLogLedger:       "all",
		SeedDefaultTemplates: true,
		TimeoutShort:         timeouts.DefaultShort,
		TimeoutMedium:        timeouts.DefaultMedium,
		TimeoutLong:          timeouts.DefaultLong,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr string
	}{
		{"demo defaults", func(c *AppConfig) {}, ""},
		{"city top tier", func(c *AppConfig) { c.ReviewTopTier = "city" }, ""},
		{"county top tier", func(c *AppConfig) { c.ReviewTopTier = "county" }, "review_top_tier"},
		{"ledger off", func(c *AppConfig) { c.AuditLogLedger = "off" }, ""},
		{"ledger db", func(c *AppConfig) { c.AuditLogLedger = "db" }, "audit_log_ledger"},
		{"pool sizes", func(c *AppConfig) { c.MongoMinPoolSize = 200 }, "mongo_min_pool_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := demoConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{}, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConnectDB_DemoMode(t *testing.T) {
	deps, err := ConnectDB(context.Background(), &config.CoreConfig{}, demoConfig(), testLogger())
	if err != nil {
		t.Fatalf("ConnectDB: %v", err)
	}
	if deps.Mem == nil || deps.MongoClient != nil {
		t.Fatalf("deps = %+v", deps)
	}
	if err := EnsureSchema(context.Background(), &config.CoreConfig{}, demoConfig(), deps, testLogger()); err != nil {
		t.Errorf("EnsureSchema on memory: %v", err)
	}
}

func TestStartup_AppliesTimeouts(t *testing.T) {
	t.Cleanup(timeouts.Reset)
	cfg := demoConfig()
	cfg.TimeoutShort = 3 * time.Second
	deps, _ := ConnectDB(context.Background(), &config.CoreConfig{}, cfg, testLogger())
	if err := Startup(context.Background(), &config.CoreConfig{}, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	if timeouts.Short() != 3*time.Second {
		t.Errorf("short timeout = %v", timeouts.Short())
	}
}

func TestDemoServer(t *testing.T) {
	t.Cleanup(timeouts.Reset)
	ctx := context.Background()
	cfg := demoConfig()
	deps, err := ConnectDB(ctx, &config.CoreConfig{}, cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := Startup(ctx, &config.CoreConfig{}, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	h, err := BuildHandler(&config.CoreConfig{}, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	get := func(target string, v any) {
		t.Helper()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d: %s", target, rec.Code, rec.Body.String())
		}
		if v != nil {
			if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
				t.Fatalf("decode %s: %v", target, err)
			}
		}
	}

	get("/health", nil)

	var orgs []models.Organization
	get("/organizations", &orgs)
	if len(orgs) == 0 {
		t.Error("no demo organizations")
	}

	var projects []models.Project
	get("/projects", &projects)
	if len(projects) == 0 {
		t.Error("no demo projects")
	}

	var stats struct {
		Total int64 `json:"total"`
	}
	get("/statistics", &stats)
	if stats.Total != int64(len(projects)) {
		t.Errorf("statistics total = %d, projects = %d", stats.Total, len(projects))
	}

	var elections []json.RawMessage
	get("/branch-elections/", &elections)
	if len(elections) == 0 {
		t.Error("no demo election instances")
	}
	get("/member-developments/template", nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown route = %d", rec.Code)
	}
}

func TestEnsureSchema_Mongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	// SetupTestDB already built indexes; a second pass must be a no-op.
	if err := EnsureSchema(ctx, &config.CoreConfig{}, demoConfig(), deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := Startup(ctx, &config.CoreConfig{}, demoConfig(), deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	n, err := db.Collection("process_templates").CountDocuments(ctx, map[string]any{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("templates = %d, want 2", n)
	}
	timeouts.Reset()
}
