package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/cory-johannsen/gamzia/migrations"
)

// MigrateResult describes the schema state after a migration run.
type MigrateResult struct {
	Version uint
	Dirty   bool
	// Changed is false when the schema was already at the requested version.
	Changed bool
}

// NewMigrator returns a migrator over the embedded schema migrations.
//
// Precondition: dsn must be a postgres:// connection string.
// Postcondition: The caller must Close the returned migrator.
func NewMigrator(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// Migrate applies the embedded migrations in direction ("up" or "down").
// steps limits the number of migrations applied; 0 applies all of them.
//
// Precondition: direction is "up" or "down"; steps >= 0.
// Postcondition: Returns the resulting version or a non-nil error.
func Migrate(dsn, direction string, steps int) (MigrateResult, error) {
	if direction != "up" && direction != "down" {
		return MigrateResult{}, fmt.Errorf("invalid direction %q: must be 'up' or 'down'", direction)
	}
	if steps < 0 {
		return MigrateResult{}, fmt.Errorf("invalid steps %d: must be >= 0", steps)
	}

	m, err := NewMigrator(dsn)
	if err != nil {
		return MigrateResult{}, err
	}
	defer m.Close()

	switch {
	case direction == "up" && steps > 0:
		err = m.Steps(steps)
	case direction == "up":
		err = m.Up()
	case steps > 0:
		err = m.Steps(-steps)
	default:
		err = m.Down()
	}

	res := MigrateResult{Changed: true}
	if errors.Is(err, migrate.ErrNoChange) {
		res.Changed = false
		err = nil
	}
	if err != nil {
		return MigrateResult{}, fmt.Errorf("migrating %s: %w", direction, err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return MigrateResult{}, fmt.Errorf("reading schema version: %w", verr)
	}
	res.Version = version
	res.Dirty = dirty
	return res, nil
}
