// internal/app/store/projects/projectstore.go
package projectstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	ledgerstore "github.com/dalemusser/govhub/internal/app/store/ledger"
	"github.com/dalemusser/govhub/internal/app/system/apperr"
	"github.com/dalemusser/govhub/internal/app/system/txn"
	"github.com/dalemusser/govhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Collection holds one document per project.
const Collection = "projects"

// Filter narrows a project listing. Zero values match everything.
type Filter struct {
	Statuses       []models.ProjectStatus // status ∈ Statuses
	ExcludeStatus  models.ProjectStatus   // status ≠ ExcludeStatus
	OrganizationID *primitive.ObjectID
	BatchID        string
	Search         string    // folded title prefix
	CreatedFrom    time.Time // created_at >= CreatedFrom
	CreatedBefore  time.Time // created_at < CreatedBefore
	Limit          int64
}

type Store struct {
	db     *mongo.Database
	c      *mongo.Collection
	ledger *ledgerstore.Store
	log    *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{
		db:     db,
		c:      db.Collection(Collection),
		ledger: ledgerstore.New(db),
		log:    logger,
	}
}

// Create inserts a new project at version 1.
func (s *Store) Create(ctx context.Context, p models.Project) (models.Project, error) {
	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.TitleCI = text.Fold(p.Title)
	p.Version = 1
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Project{}, apperr.Storage("insert project", err)
	}
	return p, nil
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (models.Project, error) {
	var p models.Project
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Project{}, apperr.NotFound("project %s not found", id.Hex())
	}
	if err != nil {
		return models.Project{}, apperr.Storage("load project", err)
	}
	return p, nil
}

func buildQuery(f Filter) bson.M {
	q := bson.M{}
	switch {
	case len(f.Statuses) > 0:
		q["status"] = bson.M{"$in": f.Statuses}
	case f.ExcludeStatus != "":
		q["status"] = bson.M{"$ne": f.ExcludeStatus}
	}
	if f.OrganizationID != nil {
		q["organization_id"] = *f.OrganizationID
	}
	if f.BatchID != "" {
		q["batch_id"] = f.BatchID
	}
	if f.Search != "" {
		q["title_ci"] = bson.M{"$regex": "^" + regexp.QuoteMeta(text.Fold(f.Search))}
	}
	created := bson.M{}
	if !f.CreatedFrom.IsZero() {
		created["$gte"] = f.CreatedFrom
	}
	if !f.CreatedBefore.IsZero() {
		created["$lt"] = f.CreatedBefore
	}
	if len(created) > 0 {
		q["created_at"] = created
	}
	return q
}

// List returns matching projects, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.c.Find(ctx, buildQuery(f), opts)
	if err != nil {
		return nil, apperr.Storage("list projects", err)
	}
	defer cur.Close(ctx)
	out := []models.Project{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.Storage("decode projects", err)
	}
	return out, nil
}

// CountByStatus groups the whole collection by raw status.
func (s *Store) CountByStatus(ctx context.Context) (map[models.ProjectStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperr.Storage("count projects", err)
	}
	defer cur.Close(ctx)
	var rows []struct {
		Status models.ProjectStatus `bson:"_id"`
		N      int64                `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, apperr.Storage("decode project counts", err)
	}
	out := make(map[models.ProjectStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

// missOrConflict explains a conditional write that matched nothing.
func (s *Store) missOrConflict(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Storage("load project", err)
	}
	if n == 0 {
		return apperr.NotFound("project %s not found", id.Hex())
	}
	return apperr.Conflict("project %s was modified concurrently", id.Hex())
}

// Replace writes p over the stored document if the stored version still
// equals p.Version, and returns p at the next version.
func (s *Store) Replace(ctx context.Context, p models.Project) (models.Project, error) {
	expected := p.Version
	p.TitleCI = text.Fold(p.Title)
	p.Version = expected + 1
	p.UpdatedAt = time.Now().UTC()
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": p.ID, "version": expected}, p)
	if err != nil {
		return models.Project{}, apperr.Storage("update project", err)
	}
	if res.MatchedCount == 0 {
		return models.Project{}, s.missOrConflict(ctx, p.ID)
	}
	return p, nil
}

// Delete removes a project at the given version.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, version int64) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "version": version})
	if err != nil {
		return apperr.Storage("delete project", err)
	}
	if res.DeletedCount == 0 {
		return s.missOrConflict(ctx, id)
	}
	return nil
}

// ApplyTransition writes p at status `to` and appends entry to the ledger as
// one unit. Field edits carried on p are saved with the status change. The
// write is conditional on the stored status and version matching p. Without
// transaction support a failed ledger insert is compensated by putting the
// previous document back, version included.
func (s *Store) ApplyTransition(ctx context.Context, p models.Project, to models.ProjectStatus, entry models.LedgerEntry) (models.Project, models.LedgerEntry, error) {
	now := time.Now().UTC()
	next := p
	next.Status = to
	next.TitleCI = text.Fold(p.Title)
	next.Version = p.Version + 1
	next.UpdatedAt = now

	var written models.LedgerEntry
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		var prev models.Project
		err := s.c.FindOneAndReplace(ctx,
			bson.M{"_id": p.ID, "version": p.Version, "status": p.Status},
			next,
			options.FindOneAndReplace().SetReturnDocument(options.Before),
		).Decode(&prev)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return s.missOrConflict(ctx, p.ID)
		}
		if err != nil {
			return apperr.Storage("update project status", err)
		}

		e := entry
		e.ProjectID = p.ID
		e.FromStatus = p.Status
		e.ToStatus = to
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e, err = s.ledger.Append(ctx, e)
		if err != nil {
			if !txn.InTransaction(ctx) {
				s.revert(ctx, prev, next)
			}
			return err
		}
		written = e
		return nil
	})
	if err != nil {
		return models.Project{}, models.LedgerEntry{}, err
	}
	return next, written, nil
}

// revert restores prev if nothing has written over next since.
func (s *Store) revert(ctx context.Context, prev, next models.Project) {
	_, err := s.c.ReplaceOne(ctx,
		bson.M{"_id": next.ID, "version": next.Version, "status": next.Status},
		prev)
	if err != nil {
		s.log.Error("failed to restore project after ledger failure",
			zap.String("project_id", prev.ID.Hex()),
			zap.String("status", string(prev.Status)),
			zap.Error(err))
	}
}

// Ledger exposes the ledger store sharing this store's database.
func (s *Store) Ledger() *ledgerstore.Store {
	return s.ledger
}
