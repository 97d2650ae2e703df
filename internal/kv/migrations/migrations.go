// Package migrations holds the schema of the local key/value database and
// applies it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

var (
	// ErrNoSchema means the database was never migrated.
	ErrNoSchema = errors.New("local storage has no schema version")
	// ErrDirty means a previous migration stopped halfway.
	ErrDirty = errors.New("local storage schema is dirty")
	// ErrBehind means migrations are pending. Opening the store applies them.
	ErrBehind = errors.New("local storage schema is behind")
	// ErrAhead means the database was written by a newer btmad.
	ErrAhead = errors.New("local storage schema is newer than this btmad")
)

// Status is the schema version of a database against the embedded files.
type Status struct {
	Current uint
	Latest  uint
	Dirty   bool
}

// Inspect reads the schema status of db. A never-migrated database reports
// Current 0 without error.
func Inspect(db *sql.DB) (Status, error) {
	m, err := newMigrate(db)
	if err != nil {
		return Status{}, err
	}
	// m is not closed: closing it would close db, which the caller owns.

	var st Status
	st.Current, st.Dirty, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, fmt.Errorf("reading schema version: %w", err)
	}

	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return Status{}, fmt.Errorf("reading migration files: %w", err)
	}
	defer src.Close()

	if st.Latest, err = latestVersion(src); err != nil {
		return Status{}, fmt.Errorf("finding latest migration: %w", err)
	}
	return st, nil
}

// Check returns nil when db is at the latest version, and otherwise an error
// wrapping ErrNoSchema, ErrDirty, ErrBehind or ErrAhead.
func Check(db *sql.DB) error {
	st, err := Inspect(db)
	if err != nil {
		return err
	}

	switch {
	case st.Dirty:
		return fmt.Errorf("%w at version %d", ErrDirty, st.Current)
	case st.Current == 0:
		return ErrNoSchema
	case st.Current < st.Latest:
		return fmt.Errorf("%w: version %d, latest %d", ErrBehind, st.Current, st.Latest)
	case st.Current > st.Latest:
		return fmt.Errorf("%w: version %d, this binary knows %d", ErrAhead, st.Current, st.Latest)
	}
	return nil
}

// MigrateUp runs all pending migrations.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating local storage: %w", err)
	}
	return nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("reading migration files: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

func latestVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			// no further migrations
			return v, nil
		}
		v = next
	}
}
