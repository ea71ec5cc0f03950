// internal/app/bootstrap/wire.go
package bootstrap

import (
	"github.com/dalemusser/govhub/internal/app/features/organizations"
	"github.com/dalemusser/govhub/internal/app/seed"
	processsvc "github.com/dalemusser/govhub/internal/app/services/processes"
	projectsvc "github.com/dalemusser/govhub/internal/app/services/projects"
	ledgerstore "github.com/dalemusser/govhub/internal/app/store/ledger"
	organizationstore "github.com/dalemusser/govhub/internal/app/store/organizations"
	instancestore "github.com/dalemusser/govhub/internal/app/store/processinstances"
	templatestore "github.com/dalemusser/govhub/internal/app/store/processtemplates"
	projectstore "github.com/dalemusser/govhub/internal/app/store/projects"
	"github.com/dalemusser/govhub/internal/app/system/auditlog"
	"github.com/dalemusser/govhub/internal/app/system/events"
	"github.com/dalemusser/govhub/internal/app/system/lifecycle"
	"github.com/dalemusser/govhub/internal/app/system/processflow"
	"github.com/dalemusser/govhub/internal/domain/models"
	"go.uber.org/zap"
)

// directory is what both the handlers and the seeder need from the
// organization store.
type directory interface {
	organizations.Directory
	seed.OrgWriter
}

// Services is the wired application graph shared by every feature and by
// the govhubctl tool.
type Services struct {
	Bus       *events.Bus
	Orgs      directory
	Projects  *projectsvc.Service
	Processes *processsvc.Service
	Stats     *projectsvc.Stats
}

// Wire builds the services over whichever backend ConnectDB produced.
func Wire(appCfg AppConfig, deps DBDeps, logger *zap.Logger) Services {
	var (
		orgs      directory
		projects  projectsvc.ProjectRepo
		ledger    projectsvc.LedgerRepo
		templates processsvc.TemplateRepo
		instances processsvc.InstanceRepo
	)
	if deps.Mem != nil {
		orgs = deps.Mem.Organizations()
		projects = deps.Mem.Projects()
		ledger = deps.Mem.Ledger()
		templates = deps.Mem.Templates()
		instances = deps.Mem.Instances()
	} else {
		db := deps.MongoDatabase
		orgs = organizationstore.New(db)
		projects = projectstore.New(db, logger)
		ledger = ledgerstore.New(db)
		templates = templatestore.New(db)
		instances = instancestore.New(db)
	}

	bus := events.NewBus()
	audit := auditlog.New(logger, auditlog.Config{Ledger: appCfg.AuditLogLedger})

	return Services{
		Bus:  bus,
		Orgs: orgs,
		Projects: projectsvc.New(projectsvc.Deps{
			Projects: projects,
			Ledger:   ledger,
			Orgs:     orgs,
			Policy:   lifecycle.Policy{TopTier: models.OrgLevel(appCfg.ReviewTopTier)},
			Audit:    audit,
			Bus:      bus,
			Log:      logger,
		}),
		Processes: processsvc.New(processsvc.Deps{
			Templates: templates,
			Instances: instances,
			Policy:    processflow.TogglePolicy{ClearUploadOnUncomplete: appCfg.ClearUploadOnUncomplete},
			Audit:     audit,
			Bus:       bus,
			Log:       logger,
		}),
		Stats: projectsvc.NewStats(projects, instances, bus),
	}
}
