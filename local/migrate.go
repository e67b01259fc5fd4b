package local

import (
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"

	"github.com/goliatone/go-user-cache/local/migrations"
)

// SchemaVersion is the only schema version the local cache knows about.
const SchemaVersion = 1

// ApplyMigrations brings the users table up to SchemaVersion using the embedded
// migration files. It is safe to call on every start.
func (s *Store) ApplyMigrations() error {
	driver, err := sqlite3.WithInstance(s.sqldb, &sqlite3.Config{})
	if err != nil {
		return errors.Wrap(err, "create migration driver")
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return errors.Wrap(err, "open embedded migrations")
	}

	// The instance is not closed: closing it would close the shared *sql.DB.
	instance, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return errors.Wrap(err, "create migrator")
	}

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "apply migrations")
	}
	return nil
}

// Version reports the currently applied schema version.
func (s *Store) Version() (uint, bool, error) {
	driver, err := sqlite3.WithInstance(s.sqldb, &sqlite3.Config{})
	if err != nil {
		return 0, false, errors.Wrap(err, "create migration driver")
	}
	version, dirty, err := driver.Version()
	if err != nil {
		return 0, false, errors.Wrap(err, "read schema version")
	}
	if version < 0 {
		return 0, dirty, nil
	}
	return uint(version), dirty, nil
}
