// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	errorsfeature "github.com/dalemusser/govhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/govhub/internal/app/features/health"
	organizationsfeature "github.com/dalemusser/govhub/internal/app/features/organizations"
	processesfeature "github.com/dalemusser/govhub/internal/app/features/processes"
	projectsfeature "github.com/dalemusser/govhub/internal/app/features/projects"
	statisticsfeature "github.com/dalemusser/govhub/internal/app/features/statistics"
	"github.com/dalemusser/govhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for govhub.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. It wires the services once and mounts a JSON
// feature router per area.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	return newRouter(Wire(appCfg, deps, logger), deps, logger), nil
}

func newRouter(svc Services, deps DBDeps, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.NotFound(errorsfeature.NotFound)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Organization directory (read-only)
	orgHandler := organizationsfeature.NewHandler(svc.Orgs, logger)
	r.Mount("/organizations", organizationsfeature.Routes(orgHandler))

	// Project lifecycle
	projectsHandler := projectsfeature.NewHandler(svc.Projects, logger)
	r.Mount("/projects", projectsfeature.Routes(projectsHandler))

	// Dashboard figures
	statsHandler := statisticsfeature.NewHandler(svc.Stats, logger)
	r.Mount("/statistics", statisticsfeature.Routes(statsHandler))

	// Process engine, one mount per kind
	electionHandler := processesfeature.NewHandler(svc.Processes, models.ProcessElection, logger)
	r.Mount("/branch-elections", processesfeature.Routes(electionHandler))

	admissionHandler := processesfeature.NewHandler(svc.Processes, models.ProcessAdmission, logger)
	r.Mount("/member-developments", processesfeature.Routes(admissionHandler))

	return r
}
