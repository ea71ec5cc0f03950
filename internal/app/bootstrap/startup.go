// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/govhub/internal/app/seed"
	"github.com/dalemusser/govhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after schema setup and before the
// handler is built: storage deadlines, default templates, and the demo data
// set when running in memory.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	svc := Wire(appCfg, deps, logger)

	if deps.Mem != nil {
		_, err := seed.Demo(ctx, seed.Deps{
			Orgs:      svc.Orgs,
			Projects:  svc.Projects,
			Processes: svc.Processes,
			Log:       logger,
		})
		return err
	}

	if appCfg.SeedDefaultTemplates {
		kinds, err := svc.Processes.EnsureDefaults(ctx)
		if err != nil {
			logger.Error("seeding default process templates failed", zap.Error(err))
			return err
		}
		if len(kinds) > 0 {
			logger.Info("default process templates inserted", zap.Int("kinds", len(kinds)))
		}
	}
	return nil
}
