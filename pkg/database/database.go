// Package database opens the relational stores supported by the service and
// applies their schema migrations.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported driver names. They double as database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed migrations
var migrations embed.FS

// MigrationResult reports the schema state after Migrate.
type MigrationResult struct {
	Version uint
	Dirty   bool
}

// Open connects to the database and verifies it is reachable.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY between our own transactions.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s: %w", driver, err)
	}
	return db, nil
}

// Migrate applies all pending up migrations for driver.
func Migrate(ctx context.Context, db *sql.DB, driver string) (MigrationResult, error) {
	src, err := iofs.New(migrations, "migrations/"+driver)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("loading %s migrations: %w", driver, err)
	}

	var (
		target   database.Driver
		closeAll bool
	)
	switch driver {
	case DriverPostgres:
		conn, err := db.Conn(ctx)
		if err != nil {
			return MigrationResult{}, fmt.Errorf("acquiring connection: %w", err)
		}
		// WithConnection leaves the pool open when the migrator is closed.
		target, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			conn.Close()
			return MigrationResult{}, fmt.Errorf("creating postgres migration driver: %w", err)
		}
		closeAll = true
	case DriverSQLite:
		// The sqlite migration driver closes the *sql.DB on Close, so only the source is released.
		target, err = sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			return MigrationResult{}, fmt.Errorf("creating sqlite migration driver: %w", err)
		}
		defer src.Close()
	default:
		return MigrationResult{}, fmt.Errorf("unsupported database driver %q", driver)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("creating migrator: %w", err)
	}
	if closeAll {
		defer m.Close()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationResult{}, fmt.Errorf("applying migrations: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return MigrationResult{}, fmt.Errorf("reading migration version: %w", err)
	}
	return MigrationResult{Version: version, Dirty: dirty}, nil
}
