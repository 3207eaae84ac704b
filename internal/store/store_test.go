package store

import (
	"database/sql"
	"testing"

	"github.com/avikal/sahaay/internal/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, table string, seniorID int64) int {
	t.Helper()
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE senior_id = ?", seniorID).Scan(&n)
	if err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
