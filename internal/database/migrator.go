package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	tern "github.com/jackc/tern/v2/migrate"

	"github.com/deppfellow/pgdemo/internal/sqlerr"
)

// Embed all SQL files under migrations/ at compile time, so the binary
// carries its schema and does not depend on the filesystem at runtime.
//
//go:embed migrations/*.sql
var migrations embed.FS

// VersionTable is where tern records the applied schema version.
const VersionTable = "schema_version"

// withMigrator acquires one connection from the pool, builds a tern
// migrator on it with the embedded migrations loaded and calls fn.
func (db *Database) withMigrator(ctx context.Context, fn func(m *tern.Migrator) error) error {
	conn, err := db.Pool.Acquire(ctx)
	if err != nil {
		return sqlerr.HandleError(err)
	}
	defer conn.Release()

	m, err := tern.NewMigrator(ctx, conn.Conn(), VersionTable)
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", sqlerr.HandleError(err))
	}

	// tern expects an fs.FS pointing at the directory holding the files.
	subtree, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}

	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	m.OnStart = func(sequence int32, name, direction, _ string) {
		db.log.Debug().
			Int32("sequence", sequence).
			Str("name", name).
			Str("direction", direction).
			Msg("applying migration")
	}

	return fn(m)
}

// Migrate applies every pending migration. It never drops data.
func (db *Database) Migrate(ctx context.Context) error {
	return db.withMigrator(ctx, func(m *tern.Migrator) error {
		from, err := m.GetCurrentVersion(ctx)
		if err != nil {
			return fmt.Errorf("retrieving current database migration version: %w", sqlerr.HandleError(err))
		}

		if err := m.Migrate(ctx); err != nil {
			return fmt.Errorf("migrating database: %w", sqlerr.HandleError(err))
		}

		if from == int32(len(m.Migrations)) {
			db.log.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
		} else {
			db.log.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
		}
		return nil
	})
}

// Reset drops every table by migrating down to version 0 and then
// recreates the schema by migrating back up. All data is lost.
func (db *Database) Reset(ctx context.Context) error {
	err := db.withMigrator(ctx, func(m *tern.Migrator) error {
		from, err := m.GetCurrentVersion(ctx)
		if err != nil {
			return fmt.Errorf("retrieving current database migration version: %w", sqlerr.HandleError(err))
		}

		if err := m.MigrateTo(ctx, 0); err != nil {
			return fmt.Errorf("dropping database schema: %w", sqlerr.HandleError(err))
		}

		if err := m.Migrate(ctx); err != nil {
			return fmt.Errorf("creating database schema: %w", sqlerr.HandleError(err))
		}

		db.log.Info().
			Int32("from", from).
			Int("to", len(m.Migrations)).
			Msg("database schema recreated")
		return nil
	})
	if err != nil {
		return err
	}

	// Pooled connections may hold statements prepared against the dropped
	// tables.
	db.Pool.Reset()
	return nil
}
