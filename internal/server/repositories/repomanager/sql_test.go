package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/soundhub/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewRepositoryManager_Drivers(t *testing.T) {
	for _, driver := range []string{"pgx", "postgres", "sqlite"} {
		m, err := NewRepositoryManager(driver)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", driver, err)
		}
		var _ RepositoryManager = m
	}

	if _, err := NewRepositoryManager("oracle"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m, err := NewRepositoryManager("pgx")
	require.NoError(t, err)

	if u := m.Users(db); u == nil {
		t.Fatal("Users() nil")
	}
	var _ users.Repository = m.Users(db)
}

func TestRunMigrations_PassesDialectAndFS(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUp
	defer func() { gooseUp = orig }()

	gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
		if dialect != goose.DialectPostgres {
			return errors.New("unexpected dialect")
		}
		if _, err := fs.Stat(fsys, "00001_create_users.sql"); err != nil {
			return err
		}
		return nil
	}

	m, err := NewRepositoryManager("pgx")
	require.NoError(t, err)
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUp
	defer func() { gooseUp = orig }()
	gooseUp = func(context.Context, goose.Dialect, *sql.DB, fs.FS) error {
		return errors.New("boom")
	}

	m, err := NewRepositoryManager("sqlite")
	require.NoError(t, err)
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunMigrations_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := OpenDB(ctx, "sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()

	m, err := NewRepositoryManager("sqlite")
	require.NoError(t, err)
	require.NoError(t, m.RunMigrations(ctx, db))
	// idempotent
	require.NoError(t, m.RunMigrations(ctx, db))

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n))
	require.Equal(t, 0, n)
}
