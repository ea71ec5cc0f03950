// internal/app/store/ledger/ledgerstore.go
package ledgerstore

import (
	"context"
	"time"

	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds one document per reviewer transition.
const Collection = "project_audit_logs"

// QueryFilter defines filters for querying ledger rows.
type QueryFilter struct {
	ProjectID *primitive.ObjectID
	Action    models.ReviewAction
	Operator  string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store is append-only: it exposes no update or delete.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Append inserts one ledger row. It joins the caller's transaction when ctx
// carries a session.
func (s *Store) Append(ctx context.Context, e models.LedgerEntry) (models.LedgerEntry, error) {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.LedgerEntry{}, apperr.Storage("append ledger entry", err)
	}
	return e, nil
}

// ListByProject returns a project's history, oldest first.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.LedgerEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, apperr.Storage("list ledger", err)
	}
	defer cur.Close(ctx)
	out := []models.LedgerEntry{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Storage("decode ledger", err)
	}
	return out, nil
}

// Query retrieves ledger rows matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]models.LedgerEntry, error) {
	query := bson.M{}
	if filter.ProjectID != nil {
		query["project_id"] = *filter.ProjectID
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}
	if filter.Operator != "" {
		query["operator"] = filter.Operator
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["created_at"] = timeQuery
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, apperr.Storage("query ledger", err)
	}
	defer cur.Close(ctx)

	entries := []models.LedgerEntry{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, apperr.Storage("decode ledger", err)
	}
	return entries, nil
}
