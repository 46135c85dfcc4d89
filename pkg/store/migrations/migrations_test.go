package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := CheckStatus(db); err == nil {
		t.Fatalf("fresh database should need migration")
	}
	if err := MigrateUp(db); err != nil {
		t.Fatalf("first MigrateUp: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Fatalf("second MigrateUp: %v", err)
	}
	if err := CheckStatus(db); err != nil {
		t.Fatalf("CheckStatus after migration: %v", err)
	}

	version, dirty, err := Version(db)
	if err != nil || dirty || version != LatestVersion {
		t.Fatalf("Version() = %d, %v, %v", version, dirty, err)
	}
	if _, err := db.Exec(`INSERT INTO entries (title, content, created_at, updated_at) VALUES ('t', 'c', 1, 1)`); err != nil {
		t.Fatalf("entries table missing: %v", err)
	}
}
