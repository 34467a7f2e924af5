package db_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"biotimeline/pkg/db"
)

func TestDB(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "db_test.db")

	d, err := db.Init(path)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}

	var n int
	if err := d.QueryRow("SELECT count(*) FROM pragma_table_info('gold_references') WHERE name='source'").Scan(&n); err != nil {
		t.Fatalf("pragma query failed: %v", err)
	}
	if n != 1 {
		t.Error("source column missing after migration")
	}
	v, err := d.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() failed: %v", err)
	}
	if v != 2 {
		t.Errorf("schema version = %d, want 2", v)
	}
	d.Close()

	// Re-opening finds nothing left to apply.
	d, err = db.Init(path)
	if err != nil {
		t.Fatalf("second Init() failed: %v", err)
	}
	defer d.Close()
	if v, _ := d.SchemaVersion(ctx); v != 2 {
		t.Errorf("schema version after reopen = %d, want 2", v)
	}
}

func TestDB_PreexistingSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	// A database created before versioning has the first schema but user_version 0.
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := raw.Exec(`CREATE TABLE gold_references (id TEXT PRIMARY KEY, name TEXT NOT NULL, locale TEXT NOT NULL,
		biography BLOB, events TEXT, builtin BOOLEAN DEFAULT 0, created_at DATETIME DEFAULT CURRENT_TIMESTAMP)`); err != nil {
		t.Fatal(err)
	}
	raw.Close()

	d, err := db.Init(path)
	if err != nil {
		t.Fatalf("Init() on legacy schema failed: %v", err)
	}
	defer d.Close()
	if _, err := d.Exec("INSERT INTO gold_references (id, name, locale, source) VALUES ('x', 'Ada', 'en', 'csv')"); err != nil {
		t.Errorf("source column not usable: %v", err)
	}
}
