package database

import (
	"testing"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	db, err := NewDB(Config{Type: "sqlite", SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, cleanup
}
