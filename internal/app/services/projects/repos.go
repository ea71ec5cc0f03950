package projectsvc

import (
	"context"

	ledgerstore "github.com/dalemusser/govhub/internal/app/store/ledger"
	projectstore "github.com/dalemusser/govhub/internal/app/store/projects"
	"github.com/dalemusser/govhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectRepo is satisfied by projectstore.Store and memstore.Projects.
type ProjectRepo interface {
	Create(ctx context.Context, p models.Project) (models.Project, error)
	Get(ctx context.Context, id primitive.ObjectID) (models.Project, error)
	List(ctx context.Context, f projectstore.Filter) ([]models.Project, error)
	CountByStatus(ctx context.Context) (map[models.ProjectStatus]int64, error)
	Replace(ctx context.Context, p models.Project) (models.Project, error)
	Delete(ctx context.Context, id primitive.ObjectID, version int64) error
	ApplyTransition(ctx context.Context, p models.Project, to models.ProjectStatus, entry models.LedgerEntry) (models.Project, models.LedgerEntry, error)
}

// LedgerRepo reads transition history.
type LedgerRepo interface {
	ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.LedgerEntry, error)
	Query(ctx context.Context, filter ledgerstore.QueryFilter) ([]models.LedgerEntry, error)
}

// OrgDirectory resolves organizations for entry-tier routing and display names.
type OrgDirectory interface {
	Get(ctx context.Context, id primitive.ObjectID) (models.Organization, error)
}

// InstanceLister feeds per-kind process figures into statistics.
type InstanceLister interface {
	List(ctx context.Context, kind models.ProcessKind) ([]models.ProcessInstance, error)
}
