package storage

import (
	"database/sql"
	"embed"
	stderrors "errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/wippyai/component-runtime/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Open opens the sqlite database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseStorage, errors.KindInstantiation, err, "open "+path)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return db, nil
}

// Migrate applies the embedded schema migrations to db.
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(errors.PhaseStorage, errors.KindInstantiation, err, "load migrations")
	}
	defer src.Close()

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return errors.Wrap(errors.PhaseStorage, errors.KindInstantiation, err, "prepare migrations")
	}
	// Migrate.Close would close db through the driver.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return errors.Wrap(errors.PhaseStorage, errors.KindInstantiation, err, "prepare migrations")
	}
	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(errors.PhaseStorage, errors.KindInstantiation, err, "apply migrations")
	}
	return nil
}
