// Command govhubctl is the operator tool for a govhub deployment: it exports
// process templates, loads the demo data set, and prints the dashboard
// figures without going through the HTTP server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dalemusser/govhub/internal/app/bootstrap"
	"github.com/dalemusser/govhub/internal/app/system/timeouts"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.1.0"

type rootOptions struct {
	mongoURI string
	database string
	topTier  string
	verbose  bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "govhubctl",
		Short: "Operator tool for the govhub portal",
		Long: `govhubctl works directly against the govhub database.

Without --mongo-uri it runs against a fresh in-memory store loaded with the
demo data set, which is handy for trying templates and reports locally.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.mongoURI, "mongo-uri", os.Getenv("GOVHUB_MONGO_URI"), "MongoDB connection URI (empty for the in-memory demo store)")
	flags.StringVar(&opts.database, "db", envOr("GOVHUB_MONGO_DATABASE", "govhub"), "MongoDB database name")
	flags.StringVar(&opts.topTier, "top-tier", envOr("GOVHUB_REVIEW_TOP_TIER", "province"), "final review tier: city or province")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log storage activity to stderr")

	rootCmd.AddCommand(templatesCmd(opts))
	rootCmd.AddCommand(seedCmd(opts))
	rootCmd.AddCommand(statsCmd(opts))
	return rootCmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (o *rootOptions) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func (o *rootOptions) appConfig() bootstrap.AppConfig {
	return bootstrap.AppConfig{
		MongoURI:             o.mongoURI,
		MongoDatabase:        o.database,
		MongoMaxPoolSize:     10,
		MongoMinPoolSize:     0,
		ReviewTopTier:        o.topTier,
		AuditLogLedger:       "log",
		SeedDefaultTemplates: true,
		TimeoutShort:         timeouts.DefaultShort,
		TimeoutMedium:        timeouts.DefaultMedium,
		TimeoutLong:          timeouts.DefaultLong,
	}
}

// session is an opened backend with its services wired.
type session struct {
	cfg  bootstrap.AppConfig
	deps bootstrap.DBDeps
	svc  bootstrap.Services
	log  *zap.Logger
}

// open connects, reconciles the schema and runs the same startup the server
// does, so the in-memory store comes back seeded.
func (o *rootOptions) open(ctx context.Context) (*session, error) {
	log := o.logger()
	cfg := o.appConfig()
	if err := bootstrap.ValidateConfig(nil, cfg, log); err != nil {
		return nil, err
	}
	deps, err := bootstrap.ConnectDB(ctx, nil, cfg, log)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, deps: deps, log: log}
	if err := bootstrap.EnsureSchema(ctx, nil, cfg, deps, log); err != nil {
		s.close()
		return nil, err
	}
	if err := bootstrap.Startup(ctx, nil, cfg, deps, log); err != nil {
		s.close()
		return nil, err
	}
	s.svc = bootstrap.Wire(cfg, deps, log)
	return s, nil
}

func (s *session) close() {
	if s.deps.MongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.DefaultShort)
		defer cancel()
		_ = s.deps.MongoClient.Disconnect(ctx)
	}
	_ = s.log.Sync()
}
