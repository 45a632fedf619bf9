package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const migrationsDir = "migrations"

// migrationDirs maps DB_DRIVER values to their migration directories.
var migrationDirs = map[string]string{
	"postgres": "postgresql",
	"mysql":    "mysql",
}

// migrationsSourceURL returns the file source holding the users, user_tokens and
// outbox_events migrations for dbDriver.
func migrationsSourceURL(baseDir, dbDriver string) (string, error) {
	dir, ok := migrationDirs[dbDriver]
	if !ok {
		return "", fmt.Errorf("unsupported database driver %q: expected postgres or mysql", dbDriver)
	}
	return "file://" + path.Join(baseDir, dir), nil
}

// RunMigrations applies every pending migration for dbDriver. Having nothing to apply is
// not an error.
func RunMigrations(logger *slog.Logger, dbDriver, dbConnectionString string) error {
	sourceURL, err := migrationsSourceURL(migrationsDir, dbDriver)
	if err != nil {
		return err
	}

	logger.Info("running database migrations",
		slog.String("driver", dbDriver),
		slog.String("source", sourceURL),
	)

	m, err := migrate.New(sourceURL, dbConnectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	logger.Info("migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}
