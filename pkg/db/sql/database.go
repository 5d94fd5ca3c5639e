// Package sql implements the tract store of pkg/db on database/sql.
//
// Two backends are supported, selected by the DSN:
//
//   - a postgres:// (or postgresql://) URI opens PostgreSQL through
//     github.com/jackc/pgx/v4/stdlib,
//   - anything else is taken as a SQLite database path and opened through
//     modernc.org/sqlite.
//
// Query text is shared between both; the few backend differences live in
// Dialect.
package sql

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/jackc/pgx/v4/stdlib"
	_ "modernc.org/sqlite"

	kdb "github.com/atldata/igs/pkg/db"
)

type igsDB struct { // implements kdb.IGSDatabase
	db      *sql.DB
	dialect Dialect
}

// New opens the tract store for the given DSN and verifies the connection.
func New(ctx context.Context, dsn string) (kdb.IGSDatabase, error) {
	driver, dialect := driverFor(dsn)

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	if dialect.Name == SQLite.Name {
		// database/sql serializes access for us; modernc's driver does not
		// tolerate concurrent writers on one connection.
		conn.SetMaxOpenConns(1)
	}

	return &igsDB{db: conn, dialect: dialect}, nil
}

func driverFor(dsn string) (string, Dialect) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "pgx", Postgres
	}
	return "sqlite", SQLite
}

func (d *igsDB) Tracts() kdb.TractInterface {
	return &tractStore{db: d.db, dialect: d.dialect}
}

func (d *igsDB) Admin() kdb.AdminInterface {
	return &adminStore{db: d.db, dialect: d.dialect}
}

func (d *igsDB) Close() error {
	return d.db.Close()
}
