// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateOrganization = errors.New("an organization with this code already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations")}
}

// Create inserts an organization. The directory itself is maintained
// elsewhere; this exists for seeding and tests.
func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	now := time.Now().UTC()
	if org.ID.IsZero() {
		org.ID = primitive.NewObjectID()
	}
	org.NameCI = text.Fold(org.Name)
	org.CreatedAt = now
	org.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, org)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateOrganization
		}
		return models.Organization{}, apperr.Storage("insert organization", err)
	}
	return org, nil
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Organization{}, apperr.NotFound("organization %s not found", id.Hex())
	}
	if err != nil {
		return models.Organization{}, apperr.Storage("load organization", err)
	}
	return org, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Organization, error) {
	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}, {Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Storage("list organizations", err)
	}
	defer cur.Close(ctx)
	out := []models.Organization{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Storage("decode organizations", err)
	}
	return out, nil
}

// List returns every organization ordered by code.
func (s *Store) List(ctx context.Context) ([]models.Organization, error) {
	return s.find(ctx, bson.M{})
}

// Children returns the direct children of parentID; a nil parent lists roots.
func (s *Store) Children(ctx context.Context, parentID *primitive.ObjectID) ([]models.Organization, error) {
	if parentID == nil {
		return s.find(ctx, bson.M{"parent_id": nil})
	}
	return s.find(ctx, bson.M{"parent_id": *parentID})
}

// Count returns the number of organizations.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, apperr.Storage("count organizations", err)
	}
	return n, nil
}
