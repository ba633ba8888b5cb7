// Package repomanager wires repository constructors to a database dialect
// and runs the matching embedded migrations via goose.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/soundhub/internal/dbx"
	"github.com/dmitrijs2005/soundhub/internal/server/migrations"
	"github.com/dmitrijs2005/soundhub/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager vends SQL-backed repositories for one dialect.
type SQLRepositoryManager struct {
	dialect    goose.Dialect
	migrations fs.FS
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

// gooseUp is a seam for testing the goose provider run.
var gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

// RunMigrations applies the embedded migrations of the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return gooseUp(ctx, m.dialect, db, m.migrations)
}

// NewRepositoryManager returns a manager for the database/sql driver name
// the server was configured with: "pgx" (PostgreSQL) or "sqlite".
func NewRepositoryManager(driver string) (RepositoryManager, error) {
	var (
		dialect goose.Dialect
		dir     fs.FS
		err     error
	)

	switch driver {
	case "pgx", "postgres":
		dialect = goose.DialectPostgres
		dir, err = fs.Sub(migrations.Postgres, "postgres")
	case "sqlite":
		dialect = goose.DialectSQLite3
		dir, err = fs.Sub(migrations.SQLite, "sqlite")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	return &SQLRepositoryManager{dialect: dialect, migrations: dir}, nil
}

// OpenDB opens and pings a database using the given driver.
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if driver == "postgres" {
		driver = "pgx"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if driver == "sqlite" {
		// SQLite serialises writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}
