package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/govhub/internal/app/system/validators"
	"github.com/dalemusser/govhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	// Idempotent
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool)
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"organizations", "projects", "project_audit_logs", "process_templates", "process_instances"} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestProjectsValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		name    string
		doc     bson.M
		wantErr bool
	}{
		{"valid", bson.M{"title": "Pilot", "title_ci": "pilot", "status": "draft", "version": int64(1)}, false},
		{"typical case status", bson.M{"title": "Pilot", "title_ci": "pilot", "status": "典型案例", "version": int64(3)}, false},
		{"missing title", bson.M{"status": "draft", "version": int64(1)}, true},
		{"blank title", bson.M{"title": "   ", "title_ci": "", "status": "draft", "version": int64(1)}, true},
		{"unknown status", bson.M{"title": "Pilot", "title_ci": "pilot", "status": "archived", "version": int64(1)}, true},
		{"zero version", bson.M{"title": "Pilot", "title_ci": "pilot", "status": "draft", "version": int64(0)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Collection("projects").InsertOne(ctx, tt.doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("insert err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuditLogsValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	row := bson.M{
		"project_id":  primitive.NewObjectID(),
		"action":      "approve",
		"from_status": "pending_city",
		"to_status":   "pending_province",
		"operator":    "reviewer",
		"created_at":  time.Now(),
	}
	if _, err := db.Collection("project_audit_logs").InsertOne(ctx, row); err != nil {
		t.Fatalf("valid row rejected: %v", err)
	}

	row["action"] = "archive"
	if _, err := db.Collection("project_audit_logs").InsertOne(ctx, row); err == nil {
		t.Error("expected validation error for unknown action")
	}
}

func TestOrganizationsValidator_InvalidLevel(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("organizations").InsertOne(ctx, bson.M{
		"name":    "Somewhere",
		"name_ci": "somewhere",
		"level":   "nation",
		"code":    "X1",
	})
	if err == nil {
		t.Error("expected validation error for unknown level")
	}
}
