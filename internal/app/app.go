// Package app defines the App struct that composes the program's main
// dependencies and sequences a run.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - database pool and the repository session on top of it
//   - seeder and reporter services
//
// A run is a fixed list of stages. Each stage has to finish before the
// next one starts and the first failure aborts the run.
package app

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/deppfellow/pgdemo/internal/config"
	"github.com/deppfellow/pgdemo/internal/database"
	loggerPkg "github.com/deppfellow/pgdemo/internal/logger"
	"github.com/deppfellow/pgdemo/internal/repository"
	"github.com/deppfellow/pgdemo/internal/service"
)

// App is the application container that holds shared resources.
type App struct {
	// Config holds all environment/config values for the run.
	Config *config.Config

	// Logger is the run's structured logger. Every line carries run_id.
	Logger *zerolog.Logger

	// LoggerService optionally holds the New Relic application instance.
	LoggerService *loggerPkg.LoggerService

	// DB holds the PostgreSQL pool wrapper. It is nil in tests that run
	// against an in-memory store.
	DB *database.Database

	// Services holds the seeder and the reporter.
	Services *service.Services

	store   service.Store
	console *service.Console
}

// New connects to the database and wires every dependency. Console lines
// go to out.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService, out io.Writer) (*App, error) {
	runLogger := logger.With().Str("run_id", uuid.NewString()).Logger()

	// Initialize PostgreSQL pool. This also pings the database.
	db, err := database.New(ctx, cfg, &runLogger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := newApp(cfg, &runLogger, loggerService, repository.NewSession(db, &runLogger), out)
	a.DB = db
	return a, nil
}

func newApp(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService, store service.Store, out io.Writer) *App {
	console := service.NewConsole(out)

	return &App{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		Services:      service.NewServices(store, console, logger),
		store:         store,
		console:       console,
	}
}

// stage is one step of a run. done is printed once fn succeeded.
type stage struct {
	name    string
	fn      func(ctx context.Context) error
	done    string
	preLine bool
}

// Run recreates the schema, seeds it and prints what was stored. The
// banner is printed by PrintBanner beforehand.
func (a *App) Run(ctx context.Context) error {
	return a.run(ctx, "run",
		stage{name: "reset", fn: a.store.Reset, done: "DB recreated", preLine: true},
		stage{name: "seed", fn: a.Services.Seeder.Seed, done: "Seeding done"},
		stage{name: "report", fn: a.Services.Reporter.Report},
		stage{name: "finish", done: "Bye!", preLine: true},
	)
}

// Reset only recreates the schema.
func (a *App) Reset(ctx context.Context) error {
	return a.run(ctx, "reset",
		stage{name: "reset", fn: a.store.Reset, done: "DB recreated"},
	)
}

// Migrate applies pending migrations and keeps all data.
func (a *App) Migrate(ctx context.Context) error {
	return a.run(ctx, "migrate",
		stage{name: "migrate", fn: a.store.Migrate, done: "DB migrated"},
	)
}

// Report prints whatever is stored without touching it.
func (a *App) Report(ctx context.Context) error {
	return a.run(ctx, "report",
		stage{name: "report", fn: a.Services.Reporter.Report},
		stage{name: "finish", done: "Bye!", preLine: true},
	)
}

// PrintBanner prints the title, host platform and Go version. It needs no
// database, so it runs before New connects and shows up even when the
// connection fails.
func PrintBanner(out io.Writer) error {
	console := service.NewConsole(out)

	lines := []string{
		"PostgreSQL db example ...",
		fmt.Sprintf("Host: %s/%s", runtime.GOOS, runtime.GOARCH),
		fmt.Sprintf("Go Version: %s", runtime.Version()),
	}
	for _, line := range lines {
		if err := console.Op(line, false); err != nil {
			return err
		}
	}
	return nil
}

// run executes stages in order inside one New Relic transaction, when the
// agent is enabled.
func (a *App) run(ctx context.Context, command string, stages ...stage) error {
	txn := a.LoggerService.GetApplication().StartTransaction(command)
	defer txn.End()
	ctx = newrelic.NewContext(ctx, txn)

	log := loggerPkg.WithTraceContext(*a.Logger, txn)
	log.Info().Str("command", command).Msg("run started")

	for _, st := range stages {
		if err := a.runStage(ctx, st); err != nil {
			err = errors.Wrapf(err, "%s failed", st.name)
			txn.NoticeError(nrpkgerrors.Wrap(err))
			return err
		}
		log.Debug().Str("stage", st.name).Msg("stage done")
	}

	log.Info().Str("command", command).Msg("run finished")
	return nil
}

func (a *App) runStage(ctx context.Context, st stage) error {
	if st.fn != nil {
		if err := st.fn(ctx); err != nil {
			return err
		}
	}
	if st.done != "" {
		return a.console.Op(st.done, st.preLine)
	}
	return nil
}

// Close releases the database pool and flushes New Relic.
func (a *App) Close() error {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	a.LoggerService.Shutdown()
	return nil
}
