package postgres

import (
	stderrors "errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // file source driver

	"github.com/propshield/climarisk/pkg/errors"
)

// RunMigrations applies all pending migrations from migrationsPath (e.g.
// "file://migrations") against the database at dbURL.  A database that is
// already current is not an error.
func RunMigrations(dbURL, migrationsPath string) error {
	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfiguration, "failed to create migrate instance")
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to run migrations")
	}
	return nil
}

// RollbackMigrations rolls the schema back by the given number of steps.
func RollbackMigrations(dbURL, migrationsPath string, steps int) error {
	if steps <= 0 {
		return errors.NewValidation("steps must be greater than 0")
	}

	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfiguration, "failed to create migrate instance")
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			return errors.New(errors.ErrCodeDatabaseError, "no migrations to roll back")
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to roll back migrations")
	}
	return nil
}

// MigrationVersion reports the current schema version and whether the last
// migration left the schema dirty.
func MigrationVersion(dbURL, migrationsPath string) (uint, bool, error) {
	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return 0, false, errors.Wrap(err, errors.ErrCodeConfiguration, "failed to create migrate instance")
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		if stderrors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read migration version")
	}
	return version, dirty, nil
}
