package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/govhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization inserts an organization node. parent may be nil for a root.
func (f *Fixtures) CreateOrganization(ctx context.Context, name, code string, level models.OrgLevel, parent *primitive.ObjectID) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Level:     level,
		ParentID:  parent,
		Code:      code,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// CreateProject inserts a project with the submission fields filled in.
func (f *Fixtures) CreateProject(ctx context.Context, title string, status models.ProjectStatus, org *models.Organization) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Project{
		ID:              primitive.NewObjectID(),
		Title:           title,
		TitleCI:         text.Fold(title),
		Category:        "组织建设类",
		Summary:         "test summary",
		Leader:          "Test Leader",
		Status:          status,
		ProgressReports: []models.ProgressReport{},
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if org != nil {
		id := org.ID
		p.OrganizationID = &id
		p.OrganizationName = org.Name
		p.OrgLevel = org.Level
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return p
}
