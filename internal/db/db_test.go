package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewSQLite(t *testing.T) {
	db := NewSQLite("")

	if db.path != DefaultPath {
		t.Errorf("Expected default path %q, got %q", DefaultPath, db.path)
	}
	if db.conn != nil {
		t.Error("Expected connection to be nil initially")
	}
	if err := db.Close(); err != nil {
		t.Errorf("Expected closing an unopened database to succeed, got %v", err)
	}
}

func TestSQLiteInitDB(t *testing.T) {
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))

	path := filepath.Join(t.TempDir(), "test.db")
	db := NewSQLite(path)
	defer db.Close()

	if err := db.InitDB(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	if err := db.Get().Ping(); err != nil {
		t.Errorf("Failed to ping database: %v", err)
	}

	for _, table := range []string{"articles", "drafts"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %s to exist: %v", table, err)
		}
	}

	// InitDB is idempotent on an existing file.
	again := NewSQLite(path)
	defer again.Close()
	if err := again.InitDB(); err != nil {
		t.Errorf("Expected second InitDB to succeed, got %v", err)
	}
}

func TestSQLiteExecAndQuery(t *testing.T) {
	db := NewSQLite(":memory:")
	defer db.Close()
	if err := db.InitDB(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	if _, err := db.Exec(`INSERT INTO drafts (id, document) VALUES (?, ?)`, "d1", []byte("{}")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	rows, err := db.Query(`SELECT id FROM drafts`)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}
	if count != 1 {
		t.Errorf("Expected 1 draft row, got %d", count)
	}
}
