// internal/app/store/processinstances/instancestore.go
package instancestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds one document per process instance.
const Collection = "process_instances"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts an instance at version 1.
func (s *Store) Create(ctx context.Context, inst models.ProcessInstance) (models.ProcessInstance, error) {
	if inst.ID.IsZero() {
		inst.ID = primitive.NewObjectID()
	}
	inst.Version = 1
	if _, err := s.c.InsertOne(ctx, inst); err != nil {
		return models.ProcessInstance{}, apperr.Storage("insert instance", err)
	}
	return inst, nil
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.ProcessInstance, error) {
	var inst models.ProcessInstance
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inst)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ProcessInstance{}, apperr.NotFound("instance %s not found", id.Hex())
	}
	if err != nil {
		return models.ProcessInstance{}, apperr.Storage("load instance", err)
	}
	return inst, nil
}

// List returns every instance of a kind, most recently started first.
func (s *Store) List(ctx context.Context, kind models.ProcessKind) ([]models.ProcessInstance, error) {
	filter := bson.M{}
	if kind != "" {
		filter["kind"] = kind
	}
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Storage("list instances", err)
	}
	defer cur.Close(ctx)
	out := []models.ProcessInstance{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Storage("decode instances", err)
	}
	return out, nil
}

// Replace writes inst if the stored version still equals inst.Version.
func (s *Store) Replace(ctx context.Context, inst models.ProcessInstance) (models.ProcessInstance, error) {
	expected := inst.Version
	inst.Version = expected + 1
	if inst.UpdatedAt.IsZero() {
		inst.UpdatedAt = time.Now().UTC()
	}
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": inst.ID, "version": expected}, inst)
	if err != nil {
		return models.ProcessInstance{}, apperr.Storage("update instance", err)
	}
	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": inst.ID})
		if err != nil {
			return models.ProcessInstance{}, apperr.Storage("load instance", err)
		}
		if n == 0 {
			return models.ProcessInstance{}, apperr.NotFound("instance %s not found", inst.ID.Hex())
		}
		return models.ProcessInstance{}, apperr.Conflict("instance %s was modified concurrently", inst.ID.Hex())
	}
	return inst, nil
}
