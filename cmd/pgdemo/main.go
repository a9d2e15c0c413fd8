// Command pgdemo recreates a PostgreSQL schema, seeds it with sample
// many-to-many data and prints what was stored.
//
//	pgdemo            same as pgdemo run
//	pgdemo run        reset, seed and report
//	pgdemo reset      drop and recreate every table
//	pgdemo migrate    apply pending migrations, keep data
//	pgdemo report     print what is stored
//
// Configuration comes from PGDEMO_* environment variables or a .env file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deppfellow/pgdemo/internal/app"
	"github.com/deppfellow/pgdemo/internal/config"
	"github.com/deppfellow/pgdemo/internal/errs"
	loggerPkg "github.com/deppfellow/pgdemo/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		os.Exit(1)
	}
}

// action is one of the App entry points, e.g. (*app.App).Run.
type action func(a *app.App, ctx context.Context) error

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pgdemo",
		Short:         "PostgreSQL many-to-many demo",
		Long:          "Recreates the schema, seeds a Thing/Owner and an Order/StockItem graph and prints them.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          withApp((*app.App).Run, true),
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Reset the schema, seed it and print the stored rows",
			Args:  cobra.NoArgs,
			RunE:  withApp((*app.App).Run, true),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Drop and recreate every table",
			Args:  cobra.NoArgs,
			RunE:  withApp((*app.App).Reset, false),
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending migrations without dropping data",
			Args:  cobra.NoArgs,
			RunE:  withApp((*app.App).Migrate, false),
		},
		&cobra.Command{
			Use:   "report",
			Short: "Print the stored things and orders",
			Args:  cobra.NoArgs,
			RunE:  withApp((*app.App).Report, false),
		},
	)

	return root
}

// withApp loads the configuration, builds the App, runs fn and closes the
// App again. Every failure is logged before it is returned. With banner
// the banner is printed first, before the database is contacted.
func withApp(fn action, banner bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if banner {
			if err := app.PrintBanner(cmd.OutOrStdout()); err != nil {
				return err
			}
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			bootLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
				With().
				Timestamp().
				Logger()
			bootLogger.Error().Err(err).Msg("failed to load config")
			return err
		}

		loggerService, err := loggerPkg.NewLoggerService(cfg)
		logger := loggerPkg.NewLoggerWithService(cfg, loggerService)
		if err != nil {
			logger.Error().Err(err).Msg("failed to start New Relic")
			return err
		}

		a, err := app.New(ctx, cfg, &logger, loggerService, cmd.OutOrStdout())
		if err != nil {
			logFailure(&logger, err, cmd.Name(), "failed to initialize")
			loggerService.Shutdown()
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				a.Logger.Error().Err(err).Msg("failed to close")
			}
		}()

		if err := fn(a, ctx); err != nil {
			logFailure(a.Logger, err, cmd.Name(), "run failed")
			return err
		}

		return nil
	}
}

// logFailure logs err with its stack and its error kind, e.g.
// kind=CONNECTION for an unreachable database.
func logFailure(logger *zerolog.Logger, err error, command, msg string) {
	logger.Error().
		Stack().
		Err(err).
		Str("kind", string(errs.KindOf(err))).
		Str("command", command).
		Msg(msg)
}
