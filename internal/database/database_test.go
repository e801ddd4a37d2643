package database

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestOpen_RunsMigrations(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"match_details", "api_metric_windows"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table '%s' to exist, got %v", table, err)
		}
	}
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	first.Close()

	second, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Expected reopening to succeed, got %v", err)
	}
	second.Close()
}
