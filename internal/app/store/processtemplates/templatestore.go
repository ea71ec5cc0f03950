// internal/app/store/processtemplates/templatestore.go
package templatestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection holds one template document per process kind.
const Collection = "process_templates"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// GetByKind loads the template for a kind.
func (s *Store) GetByKind(ctx context.Context, kind models.ProcessKind) (models.ProcessTemplate, error) {
	var t models.ProcessTemplate
	err := s.c.FindOne(ctx, bson.M{"kind": kind}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ProcessTemplate{}, apperr.NotFound("no %s template", kind)
	}
	if err != nil {
		return models.ProcessTemplate{}, apperr.Storage("load template", err)
	}
	return t, nil
}

// Insert stores the first template of a kind at version 1. A second insert
// for the same kind is a Conflict.
func (s *Store) Insert(ctx context.Context, t models.ProcessTemplate) (models.ProcessTemplate, error) {
	now := time.Now().UTC()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	t.Version = 1
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ProcessTemplate{}, apperr.Conflict("a %s template already exists", t.Kind)
		}
		return models.ProcessTemplate{}, apperr.Storage("insert template", err)
	}
	return t, nil
}

// Update replaces the stage tree if the stored version still equals t.Version.
func (s *Store) Update(ctx context.Context, t models.ProcessTemplate) (models.ProcessTemplate, error) {
	expected := t.Version
	t.UpdatedAt = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": t.ID, "version": expected},
		bson.M{
			"$set": bson.M{"name": t.Name, "stages": t.Stages, "updated_at": t.UpdatedAt},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return models.ProcessTemplate{}, apperr.Storage("update template", err)
	}
	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": t.ID})
		if err != nil {
			return models.ProcessTemplate{}, apperr.Storage("load template", err)
		}
		if n == 0 {
			return models.ProcessTemplate{}, apperr.NotFound("template %s not found", t.ID.Hex())
		}
		return models.ProcessTemplate{}, apperr.Conflict("%s template was modified concurrently", t.Kind)
	}
	t.Version = expected + 1
	return t, nil
}
