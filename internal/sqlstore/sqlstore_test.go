package sqlstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"

	"losslessvault/internal/sqlstore"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"migrations/0001_init.sql":  {Data: []byte("CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);")},
		"migrations/0002_index.sql": {Data: []byte("CREATE INDEX idx_items_name ON items(name);")},
		"migrations/README":         {Data: []byte("ignored")},
	}
}

func TestOpenAppliesMigrationsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := sqlstore.Open(ctx, path, testMigrations(), "migrations")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO items (name) VALUES ('a')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_ = db.Close()

	db, err = sqlstore.Open(ctx, path, testMigrations(), "migrations")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	versions, err := sqlstore.AppliedMigrations(ctx, db)
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(versions) != 2 || versions[0] != "0001_init" || versions[1] != "0002_index" {
		t.Fatalf("versions = %v", versions)
	}
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(1) FROM items"); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("rows = %d, want data to survive reopen", count)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db, err := sqlstore.Open(ctx, filepath.Join(t.TempDir(), "tx.db"), testMigrations(), "migrations")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	boom := errors.New("boom")
	err = sqlstore.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO items (name) VALUES ('x')"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	var count int
	if err := db.GetContext(ctx, &count, "SELECT COUNT(1) FROM items"); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("rows = %d, want rollback", count)
	}
}

func TestOpenRejectsBlankPath(t *testing.T) {
	if _, err := sqlstore.Open(context.Background(), " ", testMigrations(), "migrations"); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestOpenFailsOnBadMigration(t *testing.T) {
	bad := fstest.MapFS{"migrations/0001_bad.sql": {Data: []byte("CREATE TABLE (")}}
	if _, err := sqlstore.Open(context.Background(), filepath.Join(t.TempDir(), "bad.db"), bad, "migrations"); err == nil {
		t.Fatal("expected migration error")
	}
}
