package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"

	"github.com/deppfellow/patient-api/internal/config"
)

// LatestVersion asks MigrateTo for the newest embedded migration.
const LatestVersion int32 = -1

// versionTable records the applied migration version.
const versionTable = "schema_version"

// Migrations are embedded so the binary carries its own schema. Each file
// holds its rollback below a "---- create above / drop below ----" line.
//
//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the patients schema to the latest version.
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	return MigrateTo(ctx, logger, cfg, LatestVersion)
}

// MigrateTo moves the patients schema to target using jackc/tern.
//
// Behavior:
//   - target LatestVersion applies every pending migration
//   - a target below the current version rolls back, 0 drops the table
//   - a target past the newest embedded migration is rejected before any
//     statement runs
//
// A single connection is opened, not a pool; migrations are a one-shot
// action run by `patient-api migrate` or on serve start-up.
func MigrateTo(ctx context.Context, logger *zerolog.Logger, cfg *config.Config, target int32) error {
	if cfg.Database == nil {
		return fmt.Errorf("database config is missing")
	}

	conn, err := pgx.Connect(ctx, DSN(cfg.Database))
	if err != nil {
		return fmt.Errorf("connecting for migrations: %w", err)
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, versionTable)
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	subtree, err := migrationFS()
	if err != nil {
		return err
	}
	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	to, err := resolveTarget(target, len(m.Migrations))
	if err != nil {
		return err
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	if from == to {
		logger.Info().Int32("version", to).Msg("database schema up to date")
		return nil
	}

	if err := m.MigrateTo(ctx, to); err != nil {
		return fmt.Errorf("migrating database from %d to %d: %w", from, to, err)
	}

	logger.Info().
		Int32("from", from).
		Int32("to", to).
		Msg("migrated database schema")
	return nil
}

// migrationFS returns the embedded migrations rooted at their directory,
// which is the layout tern's LoadMigrations expects.
func migrationFS() (fs.FS, error) {
	subtree, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("retrieving database migrations subtree: %w", err)
	}
	return subtree, nil
}

// resolveTarget maps a requested version onto the available migrations.
func resolveTarget(target int32, available int) (int32, error) {
	switch {
	case target == LatestVersion:
		return int32(available), nil
	case target < 0:
		return 0, fmt.Errorf("invalid migration target %d", target)
	case int(target) > available:
		return 0, fmt.Errorf("migration target %d is past the newest migration %d", target, available)
	default:
		return target, nil
	}
}
